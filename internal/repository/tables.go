package repository

import (
	"context"
	"encoding/json"
	"fmt"
)

// PeekableTables lists the tables exposed to the admin table viewer.
var PeekableTables = map[string]bool{
	"users":      true,
	"pools":      true,
	"user_pools": true,
	"seasons":    true,
	"weeks":      true,
	"games":      true,
	"teams":      true,
	"picks":      true,
}

// PeekLimit is the maximum number of rows returned by PeekTable.
const PeekLimit = 10

// PeekTable returns up to PeekLimit rows of a whitelisted table as JSON objects.
// The table name is interpolated, so callers must check PeekableTables first.
func PeekTable(ctx context.Context, db DBTX, table string) ([]json.RawMessage, error) {
	if !PeekableTables[table] {
		return nil, fmt.Errorf("table %q is not peekable", table)
	}

	rows, err := db.Query(ctx,
		fmt.Sprintf(`SELECT row_to_json(t) FROM %s t LIMIT %d`, table, PeekLimit))
	if err != nil {
		return nil, fmt.Errorf("peek %s: %w", table, err)
	}
	defer rows.Close()

	out := []json.RawMessage{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		out = append(out, json.RawMessage(raw))
	}
	return out, rows.Err()
}
