package google

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/normalize"
)

// sheetHeader is the header row WriteAll emits. Reads do not depend on
// this order; columns are resolved by name so hand-edited sheets with
// reordered or renamed columns still load.
var sheetHeader = []interface{}{"ID", "Data", "Tipo", "Categoria", "Valor", "Descrição", "Centro de Custo"}

type columnIndex struct {
	id          int
	date        int
	kind        int
	category    int
	value       int
	description int
	costCenter  int
}

// mapHeader resolves column positions by normalized name. The only
// required column is the value; everything else is optional. The ID
// column is a sync concern, not a schema field, so it is matched here
// rather than in the shared alias table.
func mapHeader(headers []string) (columnIndex, bool) {
	ci := columnIndex{id: -1, date: -1, kind: -1, category: -1, value: -1, description: -1, costCenter: -1}
	for i, h := range headers {
		if normalize.Key(h) == "id" {
			if ci.id == -1 {
				ci.id = i
			}
			continue
		}
		field, ok := normalize.Field(h)
		if !ok {
			continue
		}
		switch field {
		case normalize.FieldDate:
			if ci.date == -1 {
				ci.date = i
			}
		case normalize.FieldKind:
			if ci.kind == -1 {
				ci.kind = i
			}
		case normalize.FieldCategory:
			if ci.category == -1 {
				ci.category = i
			}
		case normalize.FieldValue:
			if ci.value == -1 {
				ci.value = i
			}
		case normalize.FieldDescription:
			if ci.description == -1 {
				ci.description = i
			}
		case normalize.FieldCostCenter:
			if ci.costCenter == -1 {
				ci.costCenter = i
			}
		}
	}
	return ci, ci.value != -1
}

// parseRows converts a values matrix (as returned by the Sheets API)
// into transactions. The first row must be a header. Rows that cannot
// be parsed are skipped and counted; blank rows are ignored outright.
func parseRows(ctx context.Context, values [][]interface{}) ([]core.Transaction, int) {
	if len(values) == 0 {
		return nil, 0
	}
	headers := toStrings(values[0])
	ci, ok := mapHeader(headers)
	if !ok {
		slog.WarnContext(ctx, "sheet header has no value column", "headers", headers)
		return nil, len(values) - 1
	}

	var (
		rows    []core.Transaction
		skipped int
	)
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if blankRow(row) {
			continue
		}
		t, err := rowToTransaction(row, ci)
		if err != nil {
			skipped++
			slog.WarnContext(ctx, "skipping sheet row", "row", i+1, "error", err)
			continue
		}
		rows = append(rows, t)
	}
	return rows, skipped
}

func rowToTransaction(row []string, ci columnIndex) (core.Transaction, error) {
	value, err := core.ParseAmount(safeGet(row, ci.value))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("valor: %w", err)
	}

	var date core.Date
	if ci.date != -1 {
		date, err = core.ParseDate(safeGet(row, ci.date))
		if err != nil {
			return core.Transaction{}, fmt.Errorf("data: %w", err)
		}
	}

	kind := core.KindOf(value)
	if cell := safeGet(row, ci.kind); cell != "" {
		kind, err = core.ParseKind(cell)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("tipo: %w", err)
		}
	}

	id := safeGet(row, ci.id)
	if id == "" {
		id = uuid.NewString()
	}

	return core.Transaction{
		ID:          id,
		Date:        date,
		Kind:        kind,
		Category:    safeGet(row, ci.category),
		Value:       value,
		Description: safeGet(row, ci.description),
		CostCenter:  safeGet(row, ci.costCenter),
	}, nil
}

// rowsToValues renders the table for a wholesale write: the canonical
// header plus one row per transaction, dates in dd/mm/yyyy and values
// as plain numbers.
func rowsToValues(rows []core.Transaction) [][]interface{} {
	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, sheetHeader)
	for _, t := range rows {
		var date interface{} = ""
		if t.Date.Known() {
			date = t.Date.Brazilian()
		}
		values = append(values, []interface{}{
			t.ID,
			date,
			string(t.Kind),
			t.Category,
			t.Value.InexactFloat64(),
			t.Description,
			t.CostCenter,
		})
	}
	return values
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
