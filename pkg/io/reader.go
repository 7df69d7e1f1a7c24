package io

import (
	"bufio"
	"bytes"
	stdcontext "context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"qrscan/pkg/config"
	"qrscan/pkg/context"
	"qrscan/pkg/log"
	"qrscan/pkg/metrics"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"
	"golang.org/x/xerrors"
)

// --- CoreReader (In-Memory Mock) ---

// CoreReader serves a fixed list of codes, one per Read. Once the list is
// exhausted it blocks until the scan is cancelled.
type CoreReader struct {
	mu    sync.Mutex
	codes []string
	next  int
}

// NewCoreReader creates a new in-memory reader.
func NewCoreReader(codes []string) *CoreReader {
	cp := make([]string, len(codes))
	copy(cp, codes)
	return &CoreReader{codes: cp}
}

// Read returns the next scripted code.
func (r *CoreReader) Read(ctx *context.OperationContext) (string, error) {
	r.mu.Lock()
	if r.next < len(r.codes) {
		code := r.codes[r.next]
		r.next++
		r.mu.Unlock()
		return code, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return "", ErrCancelled
}

// Remaining reports how many scripted codes have not been served yet.
func (r *CoreReader) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes) - r.next
}

// --- LineReader (Keyboard wedge) ---

// LineReader turns a byte stream into scan results, one per CR or LF terminated
// line. Keyboard-wedge scanners type the code followed by Enter, so the stream
// is whatever the presenter captured from the keyboard.
type LineReader struct {
	src   io.Reader
	once  sync.Once
	lines chan string
	err   error // set before lines is closed
}

// NewLineReader creates a reader over src. Reading starts on the first Read.
func NewLineReader(src io.Reader) *LineReader {
	return &LineReader{src: src, lines: make(chan string, 16)}
}

func (r *LineReader) start() {
	go func() {
		scanner := bufio.NewScanner(r.src)
		scanner.Split(splitCodeLines)
		for scanner.Scan() {
			line := scanner.Text()
			log.Trace("line reader: %q", line)
			r.lines <- line
		}
		if err := scanner.Err(); err != nil {
			r.err = xerrors.Errorf("read scan line: %w", err)
		} else {
			r.err = ErrSourceClosed
		}
		close(r.lines)
	}()
}

// Read waits for the next line or for cancellation.
func (r *LineReader) Read(ctx *context.OperationContext) (string, error) {
	r.once.Do(r.start)
	select {
	case <-ctx.Done():
		return "", ErrCancelled
	case line, ok := <-r.lines:
		if !ok {
			return "", r.err
		}
		return line, nil
	}
}

// splitCodeLines is a bufio.SplitFunc that accepts CR, LF or CRLF terminators
// and drops empty lines.
func splitCodeLines(data []byte, atEOF bool) (int, []byte, error) {
	start := 0
	for start < len(data) && (data[start] == '\r' || data[start] == '\n') {
		start++
	}
	if i := bytes.IndexAny(data[start:], "\r\n"); i >= 0 {
		return start + i + 1, data[start : start+i], nil
	}
	if atEOF {
		if start < len(data) {
			return len(data), data[start:], nil
		}
		return len(data), nil, nil
	}
	return start, nil, nil
}

// --- SerialReader (Scanner on a serial port) ---

// SerialReader reads codes from a scanner attached to a serial port (USB CDC
// or RS-232). Such scanners send one code per line, like a keyboard wedge.
type SerialReader struct {
	port  io.ReadCloser
	lines *LineReader
}

// OpenSerialReader opens the configured serial device.
func OpenSerialReader(cfg *config.Config) (*SerialReader, error) {
	port, err := serial.OpenPort(&serial.Config{Name: cfg.SerialPort, Baud: cfg.SerialBaud})
	if err != nil {
		return nil, xerrors.Errorf("open serial port %s: %w", cfg.SerialPort, err)
	}
	log.Info("Serial scanner opened: device=%s baud=%d", cfg.SerialPort, cfg.SerialBaud)
	return NewSerialReader(port), nil
}

// NewSerialReader wraps an already open port.
func NewSerialReader(port io.ReadCloser) *SerialReader {
	return &SerialReader{port: port, lines: NewLineReader(port)}
}

// Read waits for the next code sent by the scanner.
func (r *SerialReader) Read(ctx *context.OperationContext) (string, error) {
	var code string
	err := ctx.Recorder.Record("IO_SerialReader.Read", metrics.MHardwareRead, func() error {
		var err error
		code, err = r.lines.Read(ctx)
		return err
	})
	return code, err
}

// Close releases the serial port.
func (r *SerialReader) Close() error {
	return r.port.Close()
}

// --- PicReader (Reads pictures from an inbox) ---

// PicReader watches an inbox directory for pictures of QR codes. Each Read
// decodes the oldest picture and removes it; pictures that cannot be decoded
// are renamed with a ".failed" suffix so they are not read again.
type PicReader struct {
	cfg *config.Config
}

// NewPicReader creates a reader watching cfg.InboxPath.
func NewPicReader(cfg *config.Config) *PicReader {
	return &PicReader{cfg: cfg}
}

// Read polls the inbox until a picture appears or the scan is cancelled.
func (r *PicReader) Read(ctx *context.OperationContext) (string, error) {
	ticker := time.NewTicker(r.cfg.PollEvery)
	defer ticker.Stop()

	for {
		path, err := r.oldestPicture()
		if err != nil {
			return "", err
		}
		if path != "" {
			return r.consume(ctx, path)
		}

		select {
		case <-ctx.Done():
			return "", ErrCancelled
		case <-ticker.C:
		}
	}
}

func (r *PicReader) consume(ctx *context.OperationContext, path string) (string, error) {
	var text string
	err := ctx.Recorder.Record("IO_PicReader.Decode", metrics.MDiskRead, func() error {
		var err error
		text, err = DecodeFile(path)
		return err
	})
	if err != nil {
		if renameErr := os.Rename(path, path+".failed"); renameErr != nil {
			log.Error("Could not set aside %s: %v", path, renameErr)
		}
		return "", xerrors.Errorf("failed to read code from file %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil {
		log.Error("Could not remove %s: %v", path, err)
	}
	log.Debug("Decoded %s from %s", text, path)
	return text, nil
}

// oldestPicture returns the least recently modified picture in the inbox, or "".
func (r *PicReader) oldestPicture() (string, error) {
	entries, err := os.ReadDir(r.cfg.InboxPath)
	if err != nil {
		return "", xerrors.Errorf("could not list inbox %s: %w", r.cfg.InboxPath, err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var pics []candidate
	for _, e := range entries {
		if e.IsDir() || !IsPicture(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		pics = append(pics, candidate{filepath.Join(r.cfg.InboxPath, e.Name()), info.ModTime()})
	}
	if len(pics) == 0 {
		return "", nil
	}
	sort.Slice(pics, func(i, j int) bool {
		if pics[i].mod.Equal(pics[j].mod) {
			return pics[i].path < pics[j].path
		}
		return pics[i].mod.Before(pics[j].mod)
	})
	return pics[0].path, nil
}

// --- CamReader (Taking a picture) ---

// CommandRunner runs an external command and returns its combined output.
type CommandRunner func(ctx stdcontext.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx stdcontext.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CamReader takes pictures with the system camera command until one of them
// holds a readable QR code.
type CamReader struct {
	cfg *config.Config
	run CommandRunner
}

// NewCamReader creates a reader using the camera command of cfg.System.
func NewCamReader(cfg *config.Config) *CamReader {
	return &CamReader{cfg: cfg, run: execRunner}
}

// NewCamReaderWithRunner creates a reader with a custom command runner.
func NewCamReaderWithRunner(cfg *config.Config, run CommandRunner) *CamReader {
	return &CamReader{cfg: cfg, run: run}
}

// Read captures and decodes pictures until a code is found or the scan is cancelled.
func (cr *CamReader) Read(ctx *context.OperationContext) (string, error) {
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return "", ErrCancelled
		}

		text, err := cr.captureOnce(ctx)
		switch {
		case err == nil:
			log.Debug("Camera decoded a code after %d picture(s)", attempt)
			return text, nil
		case ctx.Err() != nil:
			return "", ErrCancelled
		case !xerrors.Is(err, ErrNoCode):
			return "", err
		}

		log.Trace("No code in picture %d, retrying", attempt)
		select {
		case <-ctx.Done():
			return "", ErrCancelled
		case <-time.After(cr.cfg.PollEvery):
		}
	}
}

// captureOnce takes one picture, decodes it and removes it.
func (cr *CamReader) captureOnce(ctx *context.OperationContext) (string, error) {
	scannedFile := filepath.Join(cr.cfg.PicturePath, fmt.Sprintf("image_%d.jpg", time.Now().UnixNano()))
	cmdName, args := cr.cfg.GetImageCommand(scannedFile)

	err := ctx.Recorder.Record("IO_CamReader.TakePicture", metrics.MHardwareRead, func() error {
		output, err := cr.run(ctx, cmdName, args...)
		if err != nil {
			return fmt.Errorf("failed to run camera command '%s': %w, output: %s", cmdName, err, strings.TrimSpace(string(output)))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	defer os.Remove(scannedFile)

	// A partial or corrupt frame is retried like a frame without a code.
	text, err := DecodeFile(scannedFile)
	if err != nil && !xerrors.Is(err, ErrNoCode) {
		log.Debug("Discarding unreadable picture %s: %v", scannedFile, err)
		return "", fmt.Errorf("%w: %v", ErrNoCode, err)
	}
	return text, err
}
