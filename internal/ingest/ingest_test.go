package ingest

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seocho-ai/seocho/internal/extract"
	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/llm"
	"github.com/seocho-ai/seocho/internal/model"
	"github.com/seocho-ai/seocho/internal/testutil"
)

func newIngestor(conn *testutil.FakeConnector, client llm.Client, useLM bool) *Ingestor {
	logger := slog.Default()
	manager := graph.NewManager(conn, graph.NewRegistry("kgnormal"), logger)
	return NewIngestor(
		manager,
		extract.NewPipeline(client, logger),
		extract.NewLinker(client, logger),
		extract.NewDeduplicator(client, 0, logger),
		useLM, 0.2, logger,
	)
}

func TestParseText(t *testing.T) {
	text, warning, err := Parse(model.IngestRecord{SourceType: "text", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Empty(t, warning)
}

func TestParseCSVWithHeader(t *testing.T) {
	text, warning, err := Parse(model.IngestRecord{
		SourceType: "csv",
		Content:    "name,sector\nAcme,finance\nGlobex,tech\n",
	})
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Contains(t, text, "row 1: name=Acme; sector=finance")
	assert.Contains(t, text, "row 2: name=Globex; sector=tech")
}

func TestParseCSVRowCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,value\n")
	for i := 0; i < 40; i++ {
		b.WriteString("1,2\n")
	}
	text, warning, err := Parse(model.IngestRecord{SourceType: "csv", Content: b.String()})
	require.NoError(t, err)
	assert.Contains(t, warning, "truncated to 30")
	assert.NotContains(t, text, "row 31:")
}

func TestParseCSVWithoutHeader(t *testing.T) {
	text, _, err := Parse(model.IngestRecord{SourceType: "csv", Content: "1,2\n3,4\n"})
	require.NoError(t, err)
	assert.Contains(t, text, "row 1: col1=1; col2=2")
}

func TestParsePDFRequiresBase64(t *testing.T) {
	_, _, err := Parse(model.IngestRecord{SourceType: "pdf", Content: "%PDF-1.4"})
	require.Error(t, err)
	assert.Equal(t, model.KindParse, model.KindOf(err))
}

func TestParseUnsupportedType(t *testing.T) {
	_, _, err := Parse(model.IngestRecord{SourceType: "docx", Content: "x"})
	require.Error(t, err)
	assert.Equal(t, model.KindParse, model.KindOf(err))
}

func TestIngestFallbackPath(t *testing.T) {
	conn := testutil.NewFakeConnector(
		testutil.QueryRule{Match: "MERGE", Rows: []map[string]any{{"n.id": "x"}}},
	)
	in := newIngestor(conn, llm.NewMockClient(), false)

	summary, err := in.Run(context.Background(), "kgnormal", []model.IngestRecord{
		{ID: "r1", SourceType: "text", Content: "Acme acquired Globex."},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccessWithFallback, summary.Status)
	assert.Equal(t, 1, summary.LoadedRecords)
	assert.Equal(t, 1, summary.FallbackRecords)
	require.Len(t, summary.Records, 1)
	assert.Greater(t, summary.Records[0].Nodes, 1)
	assert.NotEmpty(t, summary.RuleProfile.Rules)
	assert.Equal(t, 0, summary.ValidationSummary.Failed)
}

func TestIngestPartialSuccess(t *testing.T) {
	conn := testutil.NewFakeConnector(
		testutil.QueryRule{Match: "MERGE", Rows: []map[string]any{{"n.id": "x"}}},
	)
	in := newIngestor(conn, llm.NewMockClient(), false)

	summary, err := in.Run(context.Background(), "kgnormal", []model.IngestRecord{
		{ID: "good", SourceType: "text", Content: "Acme acquired Globex."},
		{ID: "bad", SourceType: "docx", Content: "x"},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPartialSuccess, summary.Status)
	assert.Equal(t, 1, summary.LoadedRecords)

	byID := map[string]RecordOutcome{}
	for _, r := range summary.Records {
		byID[r.ID] = r
	}
	assert.Equal(t, StatusFailed, byID["bad"].Status)
	assert.NotEmpty(t, byID["bad"].Errors)
}

func TestIngestAllRecordsFail(t *testing.T) {
	in := newIngestor(testutil.NewFakeConnector(), llm.NewMockClient(), false)
	summary, err := in.Run(context.Background(), "kgnormal", []model.IngestRecord{
		{ID: "bad", SourceType: "docx", Content: "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, summary.Status)
}

func TestIngestProvisionsUnknownDatabase(t *testing.T) {
	conn := testutil.NewFakeConnector(
		testutil.QueryRule{Match: "MERGE", Rows: []map[string]any{{"n.id": "x"}}},
	)
	in := newIngestor(conn, llm.NewMockClient(), false)

	summary, err := in.Run(context.Background(), "kgruntimec", []model.IngestRecord{
		{ID: "r1", SourceType: "text", Content: "Acme acquired Globex."},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.LoadedRecords)
	assert.Equal(t, 1, conn.CallCount("CREATE DATABASE"))
}

func TestIngestRejectsInvalidDatabaseName(t *testing.T) {
	in := newIngestor(testutil.NewFakeConnector(), llm.NewMockClient(), false)
	_, err := in.Run(context.Background(), "drop;table", nil)
	require.Error(t, err)
	assert.Equal(t, model.KindValidation, model.KindOf(err))
}

func TestIngestAppliesConstraintsWhenEnabled(t *testing.T) {
	conn := testutil.NewFakeConnector(
		testutil.QueryRule{Match: "MERGE", Rows: []map[string]any{{"n.id": "x"}}},
	)
	in := newIngestor(conn, llm.NewMockClient(), false)
	in.EnableConstraints()

	summary, err := in.Run(context.Background(), "kgnormal", []model.IngestRecord{
		{ID: "r1", SourceType: "text", Content: "Acme acquired Globex."},
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.LoadedRecords)
	assert.Greater(t, conn.CallCount("CREATE CONSTRAINT"), 0)
}

func TestIngestSkipsConstraintsByDefault(t *testing.T) {
	conn := testutil.NewFakeConnector(
		testutil.QueryRule{Match: "MERGE", Rows: []map[string]any{{"n.id": "x"}}},
	)
	in := newIngestor(conn, llm.NewMockClient(), false)

	_, err := in.Run(context.Background(), "kgnormal", []model.IngestRecord{
		{ID: "r1", SourceType: "text", Content: "Acme acquired Globex."},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, conn.CallCount("CREATE CONSTRAINT"))
}

func TestIngestLinkerSkippedWhenUnrelated(t *testing.T) {
	conn := testutil.NewFakeConnector(
		testutil.QueryRule{Match: "DISTINCT toLower", Rows: []map[string]any{{"name": "unrelatedco"}}},
		testutil.QueryRule{Match: "MERGE", Rows: []map[string]any{{"n.id": "x"}}},
	)
	client := llm.NewMockClient()
	linkerCalled := false
	client.CompleteJSONFunc = func(ctx context.Context, system, user string) (map[string]any, error) {
		if strings.Contains(system, "linking engine") {
			linkerCalled = true
		}
		return map[string]any{
			"nodes": []any{map[string]any{"id": "acme", "label": "Company", "properties": map[string]any{"name": "Acme"}}},
		}, nil
	}

	in := newIngestor(conn, client, true)
	summary, err := in.Run(context.Background(), "kgnormal", []model.IngestRecord{
		{ID: "r1", SourceType: "text", Content: "Acme."},
	})
	require.NoError(t, err)
	assert.False(t, linkerCalled)
	require.Len(t, summary.Records, 1)
	assert.Contains(t, strings.Join(summary.Records[0].Warnings, " "), "linking skipped")
}
