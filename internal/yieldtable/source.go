package yieldtable

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/Simplici0/flourprice/internal/pricing"
)

//go:embed default_rates.json
var defaultRates []byte

// Default returns the built-in table covering extraction rates 70 through 90.
func Default() *Table {
	t, err := Decode(bytes.NewReader(defaultRates))
	if err != nil {
		panic(fmt.Sprintf("embedded yield table: %v", err))
	}
	return t
}

// Source loads a yield table.
type Source interface {
	Load(ctx context.Context) (*Table, error)
}

// FileSource reads a JSON table from Path, or the built-in table when Path is empty.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Path == "" {
		return Default(), nil
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open yield table: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Resolver looks extraction rates up in a table loaded from Source on every call.
type Resolver struct {
	Source Source
	Mode   Mode
}

// ResolveSplit implements pricing.SplitResolver.
func (r Resolver) ResolveSplit(ctx context.Context, extractionRatePct float64) (pricing.Split, error) {
	t, err := r.Source.Load(ctx)
	if err != nil {
		return pricing.Split{}, fmt.Errorf("load yield table: %w", err)
	}

	e, err := t.Lookup(extractionRatePct, r.Mode)
	if err != nil {
		return pricing.Split{}, err
	}
	return pricing.Split{BranPct: e.BranPct, SecondaryPct: e.SecondaryPct}, nil
}
