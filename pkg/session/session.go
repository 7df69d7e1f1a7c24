// Package session holds the scan accumulators of a single operator session:
// an ordered list of product codes and one warehouse code.
package session

import (
	"fmt"
	"strings"
)

// ScanMode selects which accumulator the next scan result is written to.
type ScanMode int

const (
	ModeNone ScanMode = iota // No scan has been started yet.
	ModeProduct
	ModeWarehouse
)

func (m ScanMode) String() string {
	switch m {
	case ModeNone:
		return "None"
	case ModeProduct:
		return "Product"
	case ModeWarehouse:
		return "Warehouse"
	default:
		return "Unknown"
	}
}

// Snapshot is a copy of the session state taken at one point in time.
type Snapshot struct {
	Mode      ScanMode
	Products  []string
	Warehouse string // Empty means unset.
}

// HasWarehouse reports whether a warehouse code has been scanned.
func (s Snapshot) HasWarehouse() bool { return s.Warehouse != "" }

// Empty reports whether there are no product codes to submit.
func (s Snapshot) Empty() bool { return len(s.Products) == 0 }

func (s Snapshot) String() string {
	return fmt.Sprintf("Snapshot{Mode:%s Products:%d Warehouse:%q}", s.Mode, len(s.Products), s.Warehouse)
}

// Session routes scan results into the product list or the warehouse code.
// It is owned by a single goroutine and does no locking of its own.
type Session struct {
	mode      ScanMode
	products  []string
	warehouse string
}

// New returns an empty session.
func New() *Session {
	return &Session{products: make([]string, 0)}
}

// BeginScan records the accumulator targeted by the next result. Existing data is untouched.
func (s *Session) BeginScan(mode ScanMode) {
	s.mode = mode
}

// ApplyResult writes text to the accumulator selected by the last BeginScan.
// Blank text is ignored. The mode stays armed, so the next result of the same
// kind can be applied without another BeginScan. It reports whether state changed.
func (s *Session) ApplyResult(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	switch s.mode {
	case ModeProduct:
		s.products = append(s.products, text)
	case ModeWarehouse:
		s.warehouse = text
	default:
		return false
	}
	return true
}

// Reset empties the product list and unsets the warehouse code.
func (s *Session) Reset() {
	s.products = make([]string, 0)
	s.warehouse = ""
}

// Mode returns the currently armed scan mode.
func (s *Session) Mode() ScanMode { return s.mode }

// Products returns a copy of the product codes in scan order.
func (s *Session) Products() []string {
	out := make([]string, len(s.products))
	copy(out, s.products)
	return out
}

// Warehouse returns the warehouse code, or "" when unset.
func (s *Session) Warehouse() string { return s.warehouse }

// HasWarehouse reports whether a warehouse code is set.
func (s *Session) HasWarehouse() bool { return s.warehouse != "" }

// Snapshot returns an independent copy of the current state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Mode:      s.mode,
		Products:  s.Products(),
		Warehouse: s.warehouse,
	}
}
