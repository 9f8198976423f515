package engine

import (
	"database/sql"
	"time"
)

// RowSet is one ordered collection of rows keyed by column name.
type RowSet []map[string]any

// CollectRowSets drains every row set a batch produced, in order, including
// empty ones. Cell values keep their native semantic type.
func CollectRowSets(rows *sql.Rows) ([]RowSet, error) {
	var sets []RowSet
	for {
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}

		set := RowSet{}
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return nil, err
			}
			row := make(map[string]any, len(cols))
			for i, col := range cols {
				row[col] = normalizeCell(values[i])
			}
			set = append(set, row)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		sets = append(sets, set)
		if !rows.NextResultSet() {
			break
		}
	}
	return sets, nil
}

// normalizeCell maps driver values to JSON-friendly Go values without
// stringifying non-string types. []byte carries text and uniqueidentifier
// payloads; numerics, booleans and timestamps pass through.
func normalizeCell(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(t)
	case time.Time:
		return t
	default:
		return v
	}
}

// procedureData folds a procedure invocation's outputs into the fixed shape
// contract: empty row sets are dropped; exactly one non-empty set is exposed
// as result_set, several as result_sets; return_value is always present;
// output_parameters appears only when the routine set explicit output
// parameters beyond the implicit return code.
func procedureData(sets []RowSet, returnValue int64, outputs map[string]any) map[string]any {
	data := map[string]any{"return_value": returnValue}

	var nonEmpty []RowSet
	for _, s := range sets {
		if len(s) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	switch len(nonEmpty) {
	case 0:
	case 1:
		data["result_set"] = nonEmpty[0]
	default:
		data["result_sets"] = nonEmpty
	}

	if len(outputs) > 0 {
		data["output_parameters"] = outputs
	}
	return data
}
