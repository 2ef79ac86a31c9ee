// Package ingest implements runtime ingestion of raw material: parsing
// text, CSV, and PDF records, extracting graphs, linking them into the
// target database, and loading the annotated result.
package ingest

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/seocho-ai/seocho/internal/model"
)

const maxCSVRows = 30

// Parse converts one raw record into plain text. The returned warning
// is non-fatal; an error marks the record as unparseable.
func Parse(record model.IngestRecord) (string, string, error) {
	switch strings.ToLower(record.SourceType) {
	case "", "text":
		content, err := decodeContent(record)
		if err != nil {
			return "", "", err
		}
		return content, "", nil
	case "csv":
		content, err := decodeContent(record)
		if err != nil {
			return "", "", err
		}
		return parseCSV(content)
	case "pdf":
		if !strings.EqualFold(record.ContentEncoding, "base64") {
			return "", "", model.Errorf(model.KindParse, "ingest: pdf records require base64 content encoding")
		}
		raw, err := base64.StdEncoding.DecodeString(record.Content)
		if err != nil {
			return "", "", model.NewError(model.KindParse, fmt.Errorf("ingest: decode pdf payload: %w", err))
		}
		return parsePDF(raw)
	default:
		return "", "", model.Errorf(model.KindParse, "ingest: unsupported source type %q", record.SourceType)
	}
}

func decodeContent(record model.IngestRecord) (string, error) {
	if strings.EqualFold(record.ContentEncoding, "base64") {
		raw, err := base64.StdEncoding.DecodeString(record.Content)
		if err != nil {
			return "", model.NewError(model.KindParse, fmt.Errorf("ingest: decode base64 content: %w", err))
		}
		return string(raw), nil
	}
	return record.Content, nil
}

// parseCSV renders rows as labelled lines. The first row is treated as
// a header when none of its cells parses as a number.
func parseCSV(content string) (string, string, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return "", "", model.NewError(model.KindParse, fmt.Errorf("ingest: parse csv: %w", err))
	}
	if len(rows) == 0 {
		return "", "", model.Errorf(model.KindParse, "ingest: empty csv")
	}

	header := rows[0]
	dataRows := rows
	hasHeader := looksLikeHeader(header)
	if hasHeader {
		dataRows = rows[1:]
	}

	warning := ""
	if len(dataRows) > maxCSVRows {
		warning = fmt.Sprintf("csv truncated to %d of %d rows", maxCSVRows, len(dataRows))
		dataRows = dataRows[:maxCSVRows]
	}

	var b strings.Builder
	for i, row := range dataRows {
		fmt.Fprintf(&b, "row %d: ", i+1)
		parts := make([]string, 0, len(row))
		for j, cell := range row {
			if hasHeader && j < len(header) {
				parts = append(parts, header[j]+"="+cell)
			} else {
				parts = append(parts, fmt.Sprintf("col%d=%s", j+1, cell))
			}
		}
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString("\n")
	}
	return b.String(), warning, nil
}

func looksLikeHeader(row []string) bool {
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			return false
		}
		if _, err := fmt.Sscanf(cell, "%f", new(float64)); err == nil {
			return false
		}
	}
	return true
}

func parsePDF(raw []byte) (string, string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", "", model.NewError(model.KindParse, fmt.Errorf("ingest: open pdf: %w", err))
	}

	var b strings.Builder
	warning := ""
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			warning = fmt.Sprintf("pdf page %d could not be extracted", i)
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", "", model.Errorf(model.KindParse, "ingest: pdf contains no extractable text")
	}
	return b.String(), warning, nil
}
