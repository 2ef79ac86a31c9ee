package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seocho-ai/seocho/internal/extract"
	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/model"
	"github.com/seocho-ai/seocho/internal/rules"
)

// Ingest statuses.
const (
	StatusSuccess             = "success"
	StatusSuccessWithFallback = "success_with_fallback"
	StatusPartialSuccess      = "partial_success"
	StatusFailed              = "failed"
)

const existingNameLimit = 500

// RecordOutcome reports one record's journey through the ingest.
type RecordOutcome struct {
	ID            string   `json:"id"`
	Status        string   `json:"status"`
	Nodes         int      `json:"nodes"`
	Relationships int      `json:"relationships"`
	Errors        []string `json:"errors,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Summary is the batch result returned to the caller.
type Summary struct {
	Status            string          `json:"status"`
	TargetDatabase    string          `json:"target_database"`
	SourceID          string          `json:"source_id"`
	TotalRecords      int             `json:"total_records"`
	LoadedRecords     int             `json:"loaded_records"`
	FallbackRecords   int             `json:"fallback_records"`
	Records           []RecordOutcome `json:"records"`
	RuleProfile       rules.RuleSet   `json:"rule_profile"`
	ValidationSummary rules.Summary   `json:"rule_validation_summary"`
}

// Ingestor runs the parse, extract, link, infer, annotate, load chain
// for a batch of raw records.
type Ingestor struct {
	manager              *graph.Manager
	pipeline             *extract.Pipeline
	linker               *extract.Linker
	dedup                *extract.Deduplicator
	useLM                bool
	applyConstraints     bool
	relatednessThreshold float64
	logger               *slog.Logger
}

// NewIngestor creates an ingestor. With useLM false, extraction uses
// the deterministic fallback and linking is skipped.
func NewIngestor(manager *graph.Manager, pipeline *extract.Pipeline, linker *extract.Linker, dedup *extract.Deduplicator, useLM bool, relatednessThreshold float64, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		manager:              manager,
		pipeline:             pipeline,
		linker:               linker,
		dedup:                dedup,
		useLM:                useLM,
		relatednessThreshold: relatednessThreshold,
		logger:               logger,
	}
}

// EnableConstraints turns on schema constraint creation: after a batch
// loads, the inferred profile's Cypher constraints are applied to the
// target database. Constraint failures are logged, not fatal.
func (in *Ingestor) EnableConstraints() { in.applyConstraints = true }

type recordGraph struct {
	outcome RecordOutcome
	graph   model.Graph
	shacl   map[string]any
	ok      bool
}

// Run ingests records into targetDB. Per-record failures are recorded
// and the batch continues; the summary reports partial success rather
// than failing the call.
func (in *Ingestor) Run(ctx context.Context, targetDB string, records []model.IngestRecord) (*Summary, error) {
	if !in.manager.Registry().IsValid(targetDB) {
		if err := in.manager.Provision(ctx, targetDB); err != nil {
			return nil, err
		}
		in.logger.Info("ingest provisioned database", "database", targetDB)
	}

	sourceID := fmt.Sprintf("ingest_%s_%s",
		time.Now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
	summary := &Summary{
		TargetDatabase: targetDB,
		SourceID:       sourceID,
		TotalRecords:   len(records),
	}

	existing := in.existingNames(ctx, targetDB)

	processed := make([]recordGraph, 0, len(records))
	union := model.Graph{}
	for i, record := range records {
		rg := in.processRecord(ctx, record, i, existing)
		if rg.ok {
			union.Merge(rg.graph)
		}
		if strings.Contains(strings.Join(rg.outcome.Warnings, " "), "fallback") {
			summary.FallbackRecords++
		}
		processed = append(processed, rg)
	}

	// One profile over the union graph, enriched with any LM-proposed
	// constraints, annotates every record.
	profile := rules.Infer(union, rules.DefaultOptions())
	for _, rg := range processed {
		if rg.shacl != nil {
			profile = profile.Merge(rules.FromShapes(rg.shacl))
		}
	}
	summary.RuleProfile = profile

	for i := range processed {
		rg := &processed[i]
		if !rg.ok {
			summary.Records = append(summary.Records, rg.outcome)
			continue
		}
		ruleSummary := rules.Apply(&rg.graph, profile)
		summary.ValidationSummary.Total += ruleSummary.Total
		summary.ValidationSummary.Passed += ruleSummary.Passed
		summary.ValidationSummary.Failed += ruleSummary.Failed

		if err := in.manager.LoadGraph(ctx, targetDB, rg.graph, sourceID); err != nil {
			in.logger.Warn("ingest load failed", "record", rg.outcome.ID, "error", err)
			rg.outcome.Status = StatusFailed
			rg.outcome.Errors = append(rg.outcome.Errors, err.Error())
		} else {
			summary.LoadedRecords++
		}
		summary.Records = append(summary.Records, rg.outcome)
	}

	if in.applyConstraints && summary.LoadedRecords > 0 {
		in.applyProfileConstraints(ctx, targetDB, profile)
	}

	summary.Status = batchStatus(summary)
	return summary, nil
}

func (in *Ingestor) applyProfileConstraints(ctx context.Context, database string, profile rules.RuleSet) {
	export := rules.ExportCypher(profile)
	for _, stmt := range export.Statements {
		if _, err := in.manager.Connector().Run(ctx, database, stmt, nil); err != nil {
			in.logger.Warn("constraint creation failed", "database", database, "statement", stmt, "error", err)
		}
	}
}

func (in *Ingestor) processRecord(ctx context.Context, record model.IngestRecord, index int, existing map[string]bool) recordGraph {
	id := record.ID
	if id == "" {
		id = fmt.Sprintf("record_%d", index+1)
	}
	rg := recordGraph{outcome: RecordOutcome{ID: id, Status: StatusSuccess}}

	text, warning, err := Parse(record)
	if err != nil {
		rg.outcome.Status = StatusFailed
		rg.outcome.Errors = append(rg.outcome.Errors, err.Error())
		return rg
	}
	if warning != "" {
		rg.outcome.Warnings = append(rg.outcome.Warnings, warning)
	}

	var g model.Graph
	if in.useLM {
		result, err := in.pipeline.Run(ctx, text)
		if err != nil {
			rg.outcome.Status = StatusFailed
			rg.outcome.Errors = append(rg.outcome.Errors, err.Error())
			return rg
		}
		g = result.Graph
		rg.shacl = result.Constraints
		for pass, kind := range result.Metadata {
			rg.outcome.Warnings = append(rg.outcome.Warnings, pass+": "+kind)
		}
	} else {
		g = extract.Fallback(id, text)
		rg.outcome.Warnings = append(rg.outcome.Warnings, "deterministic fallback extraction used")
	}

	g = in.dedup.Dedup(ctx, g)

	if in.useLM {
		overlap, ratio := nameOverlap(g, existing)
		if overlap >= 1 || ratio >= in.relatednessThreshold {
			names := make([]string, 0, len(existing))
			for name := range existing {
				names = append(names, name)
			}
			linked, warn := in.linker.Link(ctx, g, names)
			g = linked
			if warn != "" {
				rg.outcome.Warnings = append(rg.outcome.Warnings, warn)
			}
		} else {
			rg.outcome.Warnings = append(rg.outcome.Warnings, "linking skipped: record unrelated to target database")
		}
	}

	rg.graph = g
	rg.outcome.Nodes = len(g.Nodes)
	rg.outcome.Relationships = len(g.Relationships)
	rg.ok = true
	return rg
}

// existingNames fetches the lowercase entity names already present in
// the target database. Failures degrade to an empty set.
func (in *Ingestor) existingNames(ctx context.Context, database string) map[string]bool {
	rows, err := in.manager.Connector().Run(ctx, database,
		fmt.Sprintf(`MATCH (n) WHERE n.name IS NOT NULL
		 RETURN DISTINCT toLower(toString(n.name)) AS name LIMIT %d`, existingNameLimit), nil)
	if err != nil {
		in.logger.Warn("existing-name lookup failed", "database", database, "error", err)
		return map[string]bool{}
	}
	names := map[string]bool{}
	for _, row := range rows {
		if name, ok := row["name"].(string); ok && name != "" {
			names[name] = true
		}
	}
	return names
}

func nameOverlap(g model.Graph, existing map[string]bool) (int, float64) {
	if len(g.Nodes) == 0 {
		return 0, 0
	}
	overlap := 0
	for _, node := range g.Nodes {
		if existing[strings.ToLower(node.Name())] {
			overlap++
		}
	}
	return overlap, float64(overlap) / float64(len(g.Nodes))
}

func batchStatus(s *Summary) string {
	switch {
	case s.TotalRecords == 0 || s.LoadedRecords == 0:
		return StatusFailed
	case s.LoadedRecords < s.TotalRecords:
		return StatusPartialSuccess
	case s.FallbackRecords > 0:
		return StatusSuccessWithFallback
	default:
		return StatusSuccess
	}
}
