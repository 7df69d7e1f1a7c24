package ui

import (
	"bufio"
	"bytes"
	"qrscan/pkg/session"
	"qrscan/pkg/station"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nsf/termbox-go"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu      sync.Mutex
	actions []station.Action
}

func (d *recordingDispatcher) Dispatch(a station.Action) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, a)
	return true
}

func TestSummary(t *testing.T) {
	snap := session.Snapshot{Mode: session.ModeProduct, Products: []string{"A123", "B456"}, Warehouse: "WH1"}
	status := station.Status{Source: "Keyboard", Endpoint: "http://sink/V1/qr_update.php", Scanning: true, Submitting: true}

	require.Equal(t, []string{
		"Scanning Product codes with Keyboard",
		"Warehouse: WH1",
		"Products (2):",
		"  1. A123",
		"  2. B456",
		"Sending to http://sink/V1/qr_update.php ...",
	}, Summary(snap, status))

	idle := Summary(session.Snapshot{}, station.Status{Source: "Core"})
	require.Equal(t, []string{"Idle (Core)", "Warehouse: (not scanned)", "Products (0):"}, idle)
}

func TestConsoleRun(t *testing.T) {
	wedge := NewWedge()
	lines := make(chan string, 4)
	go func() {
		s := bufio.NewScanner(wedge.Reader())
		for s.Scan() {
			lines <- s.Text()
		}
		close(lines)
	}()

	var out bytes.Buffer
	in := strings.NewReader("/p\nA123\n/bogus\n/W\n/s\n/c\n/x\n")
	c := NewConsole(in, &out, wedge)
	c.Render(session.Snapshot{Mode: session.ModeProduct}, station.Status{Source: "Keyboard", Scanning: true})

	d := &recordingDispatcher{}
	require.NoError(t, c.Run(d))

	require.Equal(t, []station.Action{
		station.ScanProduct, station.ScanWarehouse, station.Submit,
		station.Clear, station.CancelScan, station.Exit,
	}, d.actions)

	var got []string
	for l := range lines {
		got = append(got, l)
	}
	require.Equal(t, []string{"A123"}, got)
	require.Contains(t, out.String(), `unknown command "/bogus"`)
}

func TestConsoleIgnoresCodesWhenIdle(t *testing.T) {
	wedge := NewWedge()
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("A123\n/q\n"), &out, wedge)
	c.Render(session.Snapshot{}, station.Status{Source: "Keyboard"})

	d := &recordingDispatcher{}
	require.NoError(t, c.Run(d))
	require.Equal(t, []station.Action{station.Exit}, d.actions)
	require.Contains(t, out.String(), "no scan armed")
}

func TestConsoleIgnoresCodesForOtherSources(t *testing.T) {
	// Nothing reads the wedge, any write to it would block.
	wedge := NewWedge()
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("oops\n/s\n/q\n"), &out, wedge)
	c.Render(session.Snapshot{Mode: session.ModeProduct}, station.Status{Source: "Camera", Scanning: true})

	d := &recordingDispatcher{}
	done := make(chan error, 1)
	go func() { done <- c.Run(d) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("console blocked on a wedge write")
	}
	require.Equal(t, []station.Action{station.Submit, station.Exit}, d.actions)
	require.Contains(t, out.String(), `codes are read from Camera, ignoring "oops"`)
}

func TestConsoleRenderOnlyOnChange(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out, NewWedge())
	snap := session.Snapshot{Products: []string{"A1"}}
	status := station.Status{Source: "Core"}

	c.Render(snap, status)
	first := out.Len()
	c.Render(snap, status)
	require.Equal(t, first, out.Len())

	c.Notify(station.Notice{Kind: station.NoticeFailure, Text: "send failed: Not Found"})
	require.True(t, strings.HasSuffix(out.String(), "[!!] send failed: Not Found\n"))
}

func TestWedgeClose(t *testing.T) {
	w := NewWedge()
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.Error(t, w.WriteLine("A1"))
}

func TestKeyAction(t *testing.T) {
	tests := []struct {
		name       string
		ev         termbox.Event
		wedgeArmed bool
		want       station.Action
		ok         bool
	}{
		{"F1", termbox.Event{Key: termbox.KeyF1}, false, station.ScanProduct, true},
		{"F2 while armed", termbox.Event{Key: termbox.KeyF2}, true, station.ScanWarehouse, true},
		{"F5", termbox.Event{Key: termbox.KeyF5}, false, station.Submit, true},
		{"F8", termbox.Event{Key: termbox.KeyF8}, false, station.Clear, true},
		{"F10", termbox.Event{Key: termbox.KeyF10}, false, station.Exit, true},
		{"ctrl-c while armed", termbox.Event{Key: termbox.KeyCtrlC}, true, station.Exit, true},
		{"esc", termbox.Event{Key: termbox.KeyEsc}, true, station.CancelScan, true},
		{"p", termbox.Event{Ch: 'p'}, false, station.ScanProduct, true},
		{"W", termbox.Event{Ch: 'W'}, false, station.ScanWarehouse, true},
		{"q", termbox.Event{Ch: 'q'}, false, station.Exit, true},
		{"q while armed", termbox.Event{Ch: 'q'}, true, 0, false},
		{"other letter", termbox.Event{Ch: 'z'}, false, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := keyAction(tt.ev, tt.wedgeArmed)
			require.Equal(t, tt.ok, ok)
			if ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEditBuffer(t *testing.T) {
	tui := NewTUI(NewWedge())
	for _, ev := range []termbox.Event{
		{Ch: 'A'}, {Ch: '1'}, {Key: termbox.KeySpace}, {Ch: 'x'},
		{Key: termbox.KeyBackspace2}, {Ch: '2'},
	} {
		_, consumed := tui.editBuffer(ev)
		require.True(t, consumed)
	}
	line, consumed := tui.editBuffer(termbox.Event{Key: termbox.KeyEnter})
	require.True(t, consumed)
	require.Equal(t, "A1 2", line)

	_, consumed = tui.editBuffer(termbox.Event{Key: termbox.KeyF5})
	require.False(t, consumed)
}
