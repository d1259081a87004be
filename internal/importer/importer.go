// Package importer converts uploaded tabular files (CSV, XLSX, legacy
// XLS) into transaction rows. Headers go through the column normalizer,
// values and dates through the value normalizer, and every per-row
// failure lands in the result report instead of aborting the import.
package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/schollz/closestmatch"
	"github.com/shopspring/decimal"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/normalize"
)

// RejectedRecord keeps a failed row with its original content for user
// review.
type RejectedRecord struct {
	Line   int // 1-based line in the source file, header is line 1
	Raw    []string
	Reason string
}

// Result is the outcome of one import.
type Result struct {
	Rows     []core.Transaction // accepted rows, not yet loaded anywhere
	Accepted int
	Rejected []RejectedRecord
}

// Err reports partial failure: nil when every row was accepted,
// otherwise an error wrapping core.ErrImportPartial.
func (r *Result) Err() error {
	if len(r.Rejected) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d rows rejected",
		core.ErrImportPartial, len(r.Rejected), r.Accepted+len(r.Rejected))
}

// Read parses an uploaded file into transaction rows. A value column is
// required; date, tipo, categoria, descrição and centro de custo are
// optional. Fully blank records are skipped silently. File-level
// failures, an undecodable file or an unusable header, wrap
// core.ErrParse.
func Read(filename string, src io.Reader) (*Result, error) {
	records, err := decode(filename, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
	}
	res, err := fromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
	}
	return res, nil
}

// columns maps schema fields to indexes in the source header.
type columns struct {
	idx map[string]int
}

func (c columns) has(field string) bool {
	_, ok := c.idx[field]
	return ok
}

func (c columns) cell(rec []string, field string) string {
	i, ok := c.idx[field]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func mapColumns(header []string) (columns, error) {
	c := columns{idx: make(map[string]int)}
	var unmapped []string
	for i, h := range header {
		field, ok := normalize.Field(h)
		if ok {
			if !c.has(field) {
				c.idx[field] = i
			}
			continue
		}
		if strings.TrimSpace(h) != "" {
			unmapped = append(unmapped, h)
		}
	}
	if !c.has(normalize.FieldValue) {
		return c, fmt.Errorf("no value column found%s", suggest(unmapped))
	}
	return c, nil
}

// suggest names unmapped headers with their closest recognized spelling
// so a typo like "Vallor" points at "valor".
func suggest(unmapped []string) string {
	if len(unmapped) == 0 {
		return ""
	}
	cm := closestmatch.New(normalize.Recognized(), []int{2, 3, 4})
	hints := make([]string, 0, len(unmapped))
	for _, h := range unmapped {
		if match := cm.Closest(normalize.Key(h)); match != "" {
			hints = append(hints, fmt.Sprintf("%q (closest known header: %q)", h, match))
		} else {
			hints = append(hints, fmt.Sprintf("%q", h))
		}
	}
	return "; unmapped columns: " + strings.Join(hints, ", ")
}

func fromRecords(records [][]string) (*Result, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}
	cols, err := mapColumns(records[0])
	if err != nil {
		return nil, err
	}
	data := records[1:]
	n := len(data)

	// Column-wise passes: each column is parsed as a unit instead of
	// re-dispatching on field types per row.
	values := make([]decimal.NullDecimal, n)
	valueErrs := make([]error, n)
	for i, rec := range data {
		values[i], valueErrs[i] = core.ParseOptionalAmount(cols.cell(rec, normalize.FieldValue))
	}

	dates := make([]core.Date, n)
	dateErrs := make([]error, n)
	if cols.has(normalize.FieldDate) {
		for i, rec := range data {
			dates[i], dateErrs[i] = core.ParseDate(cols.cell(rec, normalize.FieldDate))
		}
	}

	kinds := make([]core.Kind, n)
	kindErrs := make([]error, n)
	if cols.has(normalize.FieldKind) {
		for i, rec := range data {
			raw := strings.TrimSpace(cols.cell(rec, normalize.FieldKind))
			if raw == "" {
				continue
			}
			kinds[i], kindErrs[i] = core.ParseKind(raw)
		}
	}

	result := &Result{}
	for i, rec := range data {
		line := i + 2
		if blank(rec) {
			continue
		}

		reject := func(reason string) {
			result.Rejected = append(result.Rejected, RejectedRecord{Line: line, Raw: rec, Reason: reason})
		}

		switch {
		case valueErrs[i] != nil:
			reject(valueErrs[i].Error())
			continue
		case !values[i].Valid:
			reject("missing value")
			continue
		case dateErrs[i] != nil:
			reject(dateErrs[i].Error())
			continue
		case kindErrs[i] != nil:
			reject(kindErrs[i].Error())
			continue
		}

		tx := core.Transaction{
			Date:        dates[i],
			Kind:        kinds[i],
			Category:    strings.TrimSpace(cols.cell(rec, normalize.FieldCategory)),
			Value:       values[i].Decimal,
			Description: strings.TrimSpace(cols.cell(rec, normalize.FieldDescription)),
			CostCenter:  strings.TrimSpace(cols.cell(rec, normalize.FieldCostCenter)),
		}
		if tx.Kind == "" {
			tx.Kind = core.KindOf(tx.Value)
		}
		if err := tx.Validate(); err != nil {
			reject(err.Error())
			continue
		}
		result.Rows = append(result.Rows, tx)
	}
	result.Accepted = len(result.Rows)
	return result, nil
}

func blank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
