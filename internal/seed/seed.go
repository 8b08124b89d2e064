package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/flourprice/internal/yieldtable"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run inserts every rate of table that the yield_rates table does not have yet. Existing rows
// are left alone so edits made by the mill survive restarts.
func Run(ctx context.Context, db *sql.DB, table *yieldtable.Table) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	for _, rate := range table.Rates() {
		entry, _ := table.Entry(rate)
		if err := ensureYieldRate(ctx, tx, rate, entry, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureYieldRate(ctx context.Context, tx *sql.Tx, rate int, e yieldtable.Entry, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM yield_rates WHERE rate = ?)`, rate).Scan(&exists); err != nil {
		return fmt.Errorf("check yield rate %d existence: %w", rate, err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO yield_rates (rate, flour_pct, bran_pct, secondary_pct)
		VALUES (?, ?, ?, ?)
	`, rate, e.FlourPct, e.BranPct, e.SecondaryPct); err != nil {
		return fmt.Errorf("insert yield rate %d: %w", rate, err)
	}
	stats.Inserts++
	return nil
}
