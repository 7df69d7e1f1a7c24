package ui

import (
	"qrscan/pkg/log"
	"qrscan/pkg/session"
	"qrscan/pkg/station"
	"sync"
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
)

const tuiHelp = "F1/p product  F2/w warehouse  F5/s submit  F8/c clear  Esc cancel  F10/q quit"

// TUI is a full-screen termbox presenter. While a Keyboard scan is armed,
// typed characters are collected and Enter hands the line to the wedge.
type TUI struct {
	wedge *Wedge

	mu     sync.Mutex
	snap   session.Snapshot
	status station.Status
	notice *station.Notice
	buffer []rune
}

// NewTUI creates a TUI feeding wedge.
func NewTUI(wedge *Wedge) *TUI {
	return &TUI{wedge: wedge}
}

// Start takes over the terminal.
func (t *TUI) Start() error {
	if err := termbox.Init(); err != nil {
		return err
	}
	termbox.SetInputMode(termbox.InputEsc)
	return nil
}

// Close restores the terminal.
func (t *TUI) Close() {
	termbox.Close()
}

// Render redraws the screen with the given state.
func (t *TUI) Render(snap session.Snapshot, status station.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap, t.status = snap, status
	if !status.Scanning {
		t.buffer = t.buffer[:0]
	}
	t.draw()
}

// Notify shows n on the status line until the next notice or action.
func (t *TUI) Notify(n station.Notice) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notice = &n
	t.draw()
}

// Run handles key events until the operator exits or done is closed.
func (t *TUI) Run(d Dispatcher, done <-chan struct{}) error {
	defer t.wedge.Close()

	events := make(chan termbox.Event)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				close(events)
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case <-done:
			termbox.Interrupt()
			for range events {
			}
			return nil
		case ev := <-events:
			switch ev.Type {
			case termbox.EventError:
				return ev.Err
			case termbox.EventResize:
				t.redraw()
			case termbox.EventKey:
				if exit := t.handleKey(d, ev); exit {
					termbox.Interrupt()
					for range events {
					}
					return nil
				}
			}
		}
	}
}

func (t *TUI) redraw() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draw()
}

// handleKey reports whether the TUI should stop.
func (t *TUI) handleKey(d Dispatcher, ev termbox.Event) bool {
	t.mu.Lock()
	armed := wedgeArmed(t.status)
	if armed {
		if line, ok := t.editBuffer(ev); ok {
			t.draw()
			t.mu.Unlock()
			if line != "" {
				if err := t.wedge.WriteLine(line); err != nil {
					log.Error("Wedge write failed: %v", err)
				}
			}
			return false
		}
	}
	t.notice = nil
	t.mu.Unlock()

	action, ok := keyAction(ev, armed)
	if !ok {
		return false
	}
	if !d.Dispatch(action) {
		return true
	}
	return action == station.Exit
}

// editBuffer applies ev to the wedge buffer. It reports whether ev was
// consumed, and the completed line when ev was Enter.
func (t *TUI) editBuffer(ev termbox.Event) (string, bool) {
	switch {
	case ev.Key == termbox.KeyEnter:
		line := string(t.buffer)
		t.buffer = t.buffer[:0]
		return line, true
	case ev.Key == termbox.KeyBackspace || ev.Key == termbox.KeyBackspace2:
		if len(t.buffer) > 0 {
			t.buffer = t.buffer[:len(t.buffer)-1]
		}
		return "", true
	case ev.Key == termbox.KeySpace:
		t.buffer = append(t.buffer, ' ')
		return "", true
	case ev.Ch != 0 && unicode.IsPrint(ev.Ch):
		t.buffer = append(t.buffer, ev.Ch)
		return "", true
	}
	return "", false
}

// keyAction maps a key to an action. Letter shortcuts are disabled while the
// keyboard wedge is armed, since they would be part of a scanned code.
func keyAction(ev termbox.Event, armed bool) (station.Action, bool) {
	switch ev.Key {
	case termbox.KeyF1:
		return station.ScanProduct, true
	case termbox.KeyF2:
		return station.ScanWarehouse, true
	case termbox.KeyF5:
		return station.Submit, true
	case termbox.KeyF8:
		return station.Clear, true
	case termbox.KeyF10, termbox.KeyCtrlC:
		return station.Exit, true
	case termbox.KeyEsc:
		return station.CancelScan, true
	}
	if armed {
		return 0, false
	}
	switch unicode.ToLower(ev.Ch) {
	case 'p':
		return station.ScanProduct, true
	case 'w':
		return station.ScanWarehouse, true
	case 's':
		return station.Submit, true
	case 'c':
		return station.Clear, true
	case 'q':
		return station.Exit, true
	}
	return 0, false
}

// draw paints the whole screen. t.mu must be held.
func (t *TUI) draw() {
	const fg, bg = termbox.ColorDefault, termbox.ColorDefault
	if err := termbox.Clear(fg, bg); err != nil {
		return
	}
	width, height := termbox.Size()

	y := 0
	printLine(0, y, width, "qrscan  "+t.status.Endpoint, fg|termbox.AttrBold, bg)
	y += 2
	headFg := fg
	if t.status.Scanning {
		headFg = termbox.ColorGreen | termbox.AttrBold
	}
	printLine(0, y, width, headline(t.snap, t.status), headFg, bg)
	y++
	printLine(0, y, width, warehouseLine(t.snap), fg, bg)
	y += 2

	footer := 3
	products := productLines(t.snap)
	if room := height - y - footer; room > 0 && len(products) > room {
		// Keep the header and the most recent codes.
		products = append(products[:1], products[len(products)-room+1:]...)
	}
	for _, line := range products {
		if y >= height-footer {
			break
		}
		printLine(0, y, width, line, fg, bg)
		y++
	}

	if t.status.Scanning && t.status.Source == "Keyboard" {
		printLine(0, height-3, width, "> "+string(t.buffer), termbox.ColorCyan, bg)
	}
	if t.notice != nil {
		noticeFg := termbox.ColorYellow
		switch t.notice.Kind {
		case station.NoticeSuccess:
			noticeFg = termbox.ColorGreen
		case station.NoticeFailure:
			noticeFg = termbox.ColorRed | termbox.AttrBold
		}
		printLine(0, height-2, width, noticeTag(*t.notice)+" "+t.notice.Text, noticeFg, bg)
	} else if t.status.Submitting {
		printLine(0, height-2, width, "sending...", termbox.ColorYellow, bg)
	}
	printLine(0, height-1, width, tuiHelp, termbox.ColorBlue, bg)

	if err := termbox.Flush(); err != nil {
		log.Error("Screen flush failed: %v", err)
	}
}

func printLine(x, y, width int, text string, fg, bg termbox.Attribute) {
	for _, r := range runewidth.Truncate(text, width-x, "~") {
		termbox.SetCell(x, y, r, fg, bg)
		x += runewidth.RuneWidth(r)
	}
}
