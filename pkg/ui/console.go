package ui

import (
	"bufio"
	"fmt"
	"io"
	"qrscan/pkg/log"
	"qrscan/pkg/session"
	"qrscan/pkg/station"
	"strings"
	"sync"
)

var consoleCommands = map[string]station.Action{
	"/product":   station.ScanProduct,
	"/p":         station.ScanProduct,
	"/warehouse": station.ScanWarehouse,
	"/w":         station.ScanWarehouse,
	"/submit":    station.Submit,
	"/s":         station.Submit,
	"/clear":     station.Clear,
	"/c":         station.Clear,
	"/cancel":    station.CancelScan,
	"/x":         station.CancelScan,
	"/exit":      station.Exit,
	"/q":         station.Exit,
}

const consoleHelp = "commands: /product /warehouse /submit /clear /cancel /exit (or /p /w /s /c /x /q); other lines are scanned codes"

// Console is a line-oriented presenter. Lines starting with "/" are commands,
// any other line is a code typed by a keyboard-wedge scanner.
type Console struct {
	in    io.Reader
	wedge *Wedge

	mu       sync.Mutex
	out      io.Writer
	last     string
	status   station.Status
}

// NewConsole creates a console reading in and writing out.
func NewConsole(in io.Reader, out io.Writer, wedge *Wedge) *Console {
	return &Console{in: in, out: out, wedge: wedge}
}

// Render prints the session whenever it changed since the last call.
func (c *Console) Render(snap session.Snapshot, status station.Status) {
	text := strings.Join(Summary(snap, status), "\n")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
	if text == c.last {
		return
	}
	c.last = text
	fmt.Fprintf(c.out, "%s\n", text)
}

// Notify prints a notice on its own line.
func (c *Console) Notify(n station.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", noticeTag(n), n.Text)
}

func (c *Console) println(format string, v ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", v...)
}

func (c *Console) currentStatus() station.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Run reads input until EOF or until the controller stops, then dispatches
// Exit and closes the wedge.
func (c *Console) Run(d Dispatcher) error {
	defer c.wedge.Close()
	c.println("%s", consoleHelp)

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			action, ok := consoleCommands[strings.ToLower(line)]
			if !ok {
				c.println("unknown command %q; %s", line, consoleHelp)
				continue
			}
			if !d.Dispatch(action) || action == station.Exit {
				return nil
			}
			continue
		}
		status := c.currentStatus()
		if !status.Scanning {
			c.println("no scan armed, start one with /product or /warehouse")
			continue
		}
		// Only the Keyboard source reads the wedge, a write for any other
		// source blocks forever.
		if !wedgeArmed(status) {
			c.println("codes are read from %s, ignoring %q", status.Source, line)
			continue
		}
		if err := c.wedge.WriteLine(line); err != nil {
			log.Error("Wedge write failed: %v", err)
			return err
		}
	}
	d.Dispatch(station.Exit)
	return scanner.Err()
}
