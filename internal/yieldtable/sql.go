package yieldtable

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLSource reads the yield_rates table.
type SQLSource struct {
	DB *sql.DB
}

func (s SQLSource) Load(ctx context.Context) (*Table, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT rate, flour_pct, bran_pct, secondary_pct
		FROM yield_rates
		ORDER BY rate
	`)
	if err != nil {
		return nil, fmt.Errorf("query yield rates: %w", err)
	}
	defer rows.Close()

	entries := make(map[int]Entry)
	for rows.Next() {
		var rate int
		var e Entry
		if err := rows.Scan(&rate, &e.FlourPct, &e.BranPct, &e.SecondaryPct); err != nil {
			return nil, fmt.Errorf("scan yield rate: %w", err)
		}
		entries[rate] = e
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate yield rates: %w", err)
	}

	return NewTable(entries)
}
