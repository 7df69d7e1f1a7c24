package session

import (
	"reflect"
	"testing"
)

func TestSession(t *testing.T) {
	t.Run("RoutesByMostRecentBeginScan", func(t *testing.T) {
		s := New()
		s.BeginScan(ModeProduct)
		s.ApplyResult("A123")
		s.ApplyResult("B456")
		s.BeginScan(ModeWarehouse)
		s.ApplyResult("WH1")
		s.ApplyResult("WH2")
		s.BeginScan(ModeProduct)
		s.ApplyResult("C789")

		if got, want := s.Products(), []string{"A123", "B456", "C789"}; !reflect.DeepEqual(got, want) {
			t.Errorf("products = %v, want %v", got, want)
		}
		if got := s.Warehouse(); got != "WH2" {
			t.Errorf("warehouse = %q, want %q", got, "WH2")
		}
	})

	t.Run("BlankResultsAreIgnored", func(t *testing.T) {
		tests := []struct {
			name string
			mode ScanMode
			text string
		}{
			{"empty product", ModeProduct, ""},
			{"spaces product", ModeProduct, "   "},
			{"tabs warehouse", ModeWarehouse, "\t\n"},
			{"empty warehouse", ModeWarehouse, ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := New()
				s.BeginScan(ModeProduct)
				s.ApplyResult("P1")
				s.BeginScan(ModeWarehouse)
				s.ApplyResult("W1")
				before := s.Snapshot()

				s.BeginScan(tt.mode)
				if s.ApplyResult(tt.text) {
					t.Errorf("ApplyResult(%q) reported a change", tt.text)
				}
				after := s.Snapshot()
				if !reflect.DeepEqual(before.Products, after.Products) || before.Warehouse != after.Warehouse {
					t.Errorf("state changed: before %v, after %v", before, after)
				}
			})
		}
	})

	t.Run("ResultBeforeAnyBeginScan", func(t *testing.T) {
		s := New()
		if s.ApplyResult("X") {
			t.Errorf("expected no change without an armed mode")
		}
		if len(s.Products()) != 0 || s.HasWarehouse() {
			t.Errorf("unexpected state %v", s.Snapshot())
		}
	})

	t.Run("ResetClearsBoth", func(t *testing.T) {
		s := New()
		s.BeginScan(ModeProduct)
		s.ApplyResult("A")
		s.ApplyResult("A")
		s.BeginScan(ModeWarehouse)
		s.ApplyResult("WH")

		s.Reset()
		if len(s.Products()) != 0 {
			t.Errorf("products not cleared: %v", s.Products())
		}
		if s.HasWarehouse() || s.Warehouse() != "" {
			t.Errorf("warehouse not cleared: %q", s.Warehouse())
		}

		// Reset on an empty session is a no-op.
		s.Reset()
		if !s.Snapshot().Empty() {
			t.Errorf("expected empty snapshot")
		}
	})

	t.Run("RearmKeepsMode", func(t *testing.T) {
		s := New()
		s.BeginScan(ModeProduct)
		for _, code := range []string{"A", "B", "A"} {
			if !s.ApplyResult(code) {
				t.Fatalf("ApplyResult(%q) = false", code)
			}
			if s.Mode() != ModeProduct {
				t.Fatalf("mode = %s after scan, want Product", s.Mode())
			}
		}
		if got, want := s.Products(), []string{"A", "B", "A"}; !reflect.DeepEqual(got, want) {
			t.Errorf("products = %v, want %v", got, want)
		}
	})

	t.Run("SnapshotIsACopy", func(t *testing.T) {
		s := New()
		s.BeginScan(ModeProduct)
		s.ApplyResult("A")
		snap := s.Snapshot()
		snap.Products[0] = "mutated"
		s.ApplyResult("B")

		if got := s.Products()[0]; got != "A" {
			t.Errorf("session mutated through snapshot: %q", got)
		}
		if len(snap.Products) != 1 {
			t.Errorf("snapshot grew with session: %v", snap.Products)
		}
	})
}

func TestScanModeString(t *testing.T) {
	tests := []struct {
		mode ScanMode
		want string
	}{
		{ModeNone, "None"},
		{ModeProduct, "Product"},
		{ModeWarehouse, "Warehouse"},
		{ScanMode(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}
