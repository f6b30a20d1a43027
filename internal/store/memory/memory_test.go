package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

func TestLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New(core.Record{Date: core.NewDate(2024, 1, 1), Category: "Food", Amount: decimal.NewFromInt(1)})

	got, _ := s.Load(ctx)
	got[0].Category = "changed"

	again, _ := s.Load(ctx)
	if again[0].Category != "Food" {
		t.Fatalf("store mutated through Load result: %+v", again[0])
	}
}

func TestSaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := New()
	in := []core.Record{{Date: core.NewDate(2024, 1, 1), Category: "Food", Amount: decimal.NewFromInt(1)}}
	if err := s.Save(ctx, in); err != nil {
		t.Fatal(err)
	}
	in[0].Category = "changed"
	if s.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", s.Len())
	}
	got, _ := s.Load(ctx)
	if got[0].Category != "Food" {
		t.Fatalf("store mutated through Save argument: %+v", got[0])
	}
}

func TestNewFromFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed.csv")
	if err := os.WriteFile(path, []byte("Date,Category,Amount,Description\n2024-03-01,Rent,900,March\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFromFile(ctx, path, log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.Load(ctx)
	if len(got) != 1 || got[0].Category != "Rent" || !got[0].Amount.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("unexpected seed: %+v", got)
	}

	empty, err := NewFromFile(ctx, filepath.Join(t.TempDir(), "missing.csv"), log.Discard())
	if err != nil || empty.Len() != 0 {
		t.Fatalf("missing seed must give empty store, got %d, %v", empty.Len(), err)
	}
}
