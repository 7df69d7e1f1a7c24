// Package ui holds the presenters of the scanning station: a full-screen
// termbox TUI and a line-oriented console for pipes and dumb terminals.
package ui

import (
	"fmt"
	"qrscan/pkg/session"
	"qrscan/pkg/station"
)

// Dispatcher accepts operator actions.
type Dispatcher interface {
	Dispatch(a station.Action) bool
}

const unsetWarehouse = "(not scanned)"

func headline(snap session.Snapshot, status station.Status) string {
	switch {
	case status.Scanning:
		return fmt.Sprintf("Scanning %s codes with %s", snap.Mode, status.Source)
	default:
		return fmt.Sprintf("Idle (%s)", status.Source)
	}
}

func warehouseLine(snap session.Snapshot) string {
	if !snap.HasWarehouse() {
		return "Warehouse: " + unsetWarehouse
	}
	return "Warehouse: " + snap.Warehouse
}

func productLines(snap session.Snapshot) []string {
	lines := []string{fmt.Sprintf("Products (%d):", len(snap.Products))}
	for i, p := range snap.Products {
		lines = append(lines, fmt.Sprintf("%3d. %s", i+1, p))
	}
	return lines
}

// Summary renders the session as plain text lines.
func Summary(snap session.Snapshot, status station.Status) []string {
	lines := []string{headline(snap, status), warehouseLine(snap)}
	lines = append(lines, productLines(snap)...)
	if status.Submitting {
		lines = append(lines, "Sending to "+status.Endpoint+" ...")
	}
	return lines
}

// wedgeArmed reports whether typed lines should be fed to the wedge.
func wedgeArmed(status station.Status) bool {
	return status.Scanning && status.Source == "Keyboard"
}

func noticeTag(n station.Notice) string {
	switch n.Kind {
	case station.NoticeSuccess:
		return "[ok]"
	case station.NoticeFailure:
		return "[!!]"
	default:
		return "[--]"
	}
}
