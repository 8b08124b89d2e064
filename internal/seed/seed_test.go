package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/Simplici0/flourprice/internal/db"
	"github.com/Simplici0/flourprice/internal/migrations"
	"github.com/Simplici0/flourprice/internal/yieldtable"
)

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(ctx, dbPath, zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(ctx, database, "../../migrations", zap.NewNop()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	table := yieldtable.Default()
	for i := 0; i < 5; i++ {
		stats, err := Run(ctx, database, table)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != table.Len() {
				t.Fatalf("expected %d inserts in first run, got %d", table.Len(), stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM yield_rates`, table.Len())
	assertCount(t, database, `SELECT COUNT(*) FROM yield_rates WHERE rate = 76 AND bran_pct = 18.0 AND secondary_pct = 5.6`, 1)
}

func TestRunKeepsEditedRows(t *testing.T) {
	ctx := context.Background()

	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "seed-edit.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(ctx, database, "../../migrations", zap.NewNop()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	if _, err := database.Exec(`INSERT INTO yield_rates (rate, flour_pct, bran_pct, secondary_pct) VALUES (75, 75, 20, 4)`); err != nil {
		t.Fatalf("insert edited row: %v", err)
	}

	stats, err := Run(ctx, database, yieldtable.Default())
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != yieldtable.Default().Len()-1 {
		t.Fatalf("expected %d inserts, got %d", yieldtable.Default().Len()-1, stats.Inserts)
	}

	assertCount(t, database, `SELECT COUNT(*) FROM yield_rates WHERE rate = 75 AND bran_pct = 20`, 1)
}

func assertCount(t *testing.T, database *sql.DB, query string, expected int) {
	t.Helper()

	var count int
	if err := database.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
