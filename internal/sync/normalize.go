// Sheetmirror - Spreadsheet Snapshot Mirror
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sheetmirror

package sync

import (
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sheetmirror/internal/models"
)

// Normalize decodes a fetch payload into a Table. It never fails: any
// missing or mistyped field takes its zero value. Read paths:
//
//	title:   sheets[0].properties.title
//	sheetId: sheets[0].properties.sheetId
//	cells:   sheets[0].data[0].rowData[].values[].formattedValue
//
// Rows whose cells are all empty strings (or that have no cells) are dropped.
func Normalize(raw []byte, updatedAt time.Time) *models.Table {
	table := &models.Table{
		Rows:      [][]string{},
		UpdatedAt: updatedAt,
	}

	var root interface{}
	if err := json.Unmarshal(raw, &root); err != nil {
		return table
	}

	sheet := asObject(first(asObject(root)["sheets"]))
	props := asObject(sheet["properties"])
	table.Title = asString(props["title"])
	table.SheetID = asInt64(props["sheetId"])

	grid := asObject(first(sheet["data"]))
	for _, rowData := range asArray(grid["rowData"]) {
		values := asArray(asObject(rowData)["values"])
		row := make([]string, 0, len(values))
		for _, cell := range values {
			row = append(row, asString(asObject(cell)["formattedValue"]))
		}
		if !isBlankRow(row) {
			table.Rows = append(table.Rows, row)
		}
	}
	return table
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

func asObject(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return nil
}

func asArray(v interface{}) []interface{} {
	if a, ok := v.([]interface{}); ok {
		return a
	}
	return nil
}

func first(v interface{}) interface{} {
	if a := asArray(v); len(a) > 0 {
		return a[0]
	}
	return nil
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asInt64(v interface{}) int64 {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0
	}
	return int64(f)
}
