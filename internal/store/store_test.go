package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seocho-ai/seocho/internal/model"
	"github.com/seocho-ai/seocho/internal/rules"
)

func sampleProfile() rules.RuleSet {
	return rules.RuleSet{
		SchemaVersion: rules.SchemaVersion,
		Rules: []rules.Rule{
			{Label: "Company", Property: "name", Kind: rules.KindRequired},
			{Label: "Company", Property: "name", Kind: rules.KindDatatype, Datatype: rules.TypeString},
		},
	}
}

func TestRuleProfileRoundTrip(t *testing.T) {
	s := NewRuleProfileStore(t.TempDir())

	saved, err := s.Save("ws1", "baseline", sampleProfile())
	require.NoError(t, err)
	assert.Contains(t, saved.ProfileID, "rp_")
	assert.Equal(t, 2, saved.RuleCount)
	assert.Equal(t, rules.SchemaVersion, saved.SchemaVersion)

	loaded, err := s.Get("ws1", saved.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, saved.RuleProfile, loaded.RuleProfile)
	assert.True(t, loaded.CreatedAt.Equal(saved.CreatedAt))
}

func TestRuleProfileListScopedToWorkspace(t *testing.T) {
	s := NewRuleProfileStore(t.TempDir())
	_, err := s.Save("ws1", "a", sampleProfile())
	require.NoError(t, err)
	_, err = s.Save("ws2", "b", sampleProfile())
	require.NoError(t, err)

	records, err := s.List("ws1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].Name)

	empty, err := s.List("ws3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRuleProfileGetMissing(t *testing.T) {
	s := NewRuleProfileStore(t.TempDir())
	_, err := s.Get("ws1", "rp_nope")
	require.Error(t, err)
	assert.Equal(t, model.KindNotFound, model.KindOf(err))
}

func TestArtifactDraftApproveFlow(t *testing.T) {
	s := NewArtifactStore(t.TempDir())

	draft, err := s.SaveDraft("ws1", "3 records from ingest",
		map[string]any{"ontology_name": "corp"}, map[string]any{"shapes": []any{}})
	require.NoError(t, err)
	assert.Equal(t, ArtifactDraft, draft.Status)
	assert.Contains(t, draft.ArtifactID, "sa_")

	approved, err := s.Approve("ws1", draft.ArtifactID, "reviewer@seocho.ai", "looks right")
	require.NoError(t, err)
	assert.Equal(t, ArtifactApproved, approved.Status)
	assert.Equal(t, "reviewer@seocho.ai", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	// A second approval is rejected.
	_, err = s.Approve("ws1", draft.ArtifactID, "reviewer@seocho.ai", "again")
	require.Error(t, err)
	assert.Equal(t, model.KindValidation, model.KindOf(err))
}

func TestArtifactList(t *testing.T) {
	s := NewArtifactStore(t.TempDir())
	_, err := s.SaveDraft("ws1", "first", nil, nil)
	require.NoError(t, err)
	_, err = s.SaveDraft("ws1", "second", nil, nil)
	require.NoError(t, err)

	artifacts, err := s.List("ws1")
	require.NoError(t, err)
	assert.Len(t, artifacts, 2)
}
