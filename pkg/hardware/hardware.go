package hardware

import (
	"fmt"
	stdio "io"
	"qrscan/pkg/config"
	"qrscan/pkg/context"
	"qrscan/pkg/io"
	"qrscan/pkg/log"
	"qrscan/pkg/metrics"
	"qrscan/pkg/session"
)

// baseSource provides common functionality for scan source implementations.
type baseSource struct {
	name   string
	reader CodeReader
	closer stdio.Closer
}

// Scan reads one code and records how long the operator took to produce it.
func (s *baseSource) Scan(ctx *context.OperationContext, mode session.ScanMode) (string, error) {
	log.Debug("%s scan armed for %s", s.name, mode)
	var text string
	err := ctx.Recorder.Record("Scan_"+mode.String(), metrics.MLogic, func() error {
		var err error
		text, err = s.reader.Read(ctx)
		return err
	})
	return text, err
}

func (s *baseSource) Name() string { return s.name }

func (s *baseSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Core is a mock source that serves scripted codes from memory.
type Core struct {
	baseSource
}

func newCore(codes []string) *Core {
	return &Core{baseSource{name: "Core", reader: io.NewCoreReader(codes)}}
}

// Keyboard reads keyboard-wedge lines captured by the presenter.
type Keyboard struct {
	baseSource
}

func newKeyboard(wedge stdio.Reader) *Keyboard {
	return &Keyboard{baseSource{name: "Keyboard", reader: io.NewLineReader(wedge)}}
}

// Serial reads lines sent by a scanner on a serial port.
type Serial struct {
	baseSource
}

func newSerial(cfg *config.Config) (*Serial, error) {
	r, err := io.OpenSerialReader(cfg)
	if err != nil {
		return nil, err
	}
	return &Serial{baseSource{name: "Serial", reader: r, closer: r}}, nil
}

// Disk decodes pictures dropped into an inbox directory.
type Disk struct {
	baseSource
}

func newDisk(cfg *config.Config) (*Disk, error) {
	if _, err := config.EnsureDirectory(cfg.InboxPath); err != nil {
		return nil, err
	}
	return &Disk{baseSource{name: "Disk", reader: io.NewPicReader(cfg)}}, nil
}

// Camera takes pictures with the system camera until a code is visible.
type Camera struct {
	baseSource
}

func newCamera(cfg *config.Config) (*Camera, error) {
	if _, err := config.EnsureDirectory(cfg.PicturePath); err != nil {
		return nil, err
	}
	return &Camera{baseSource{name: "Camera", reader: io.NewCamReader(cfg)}}, nil
}

// New selects and creates the scan source named by cfg.Source. wedge carries
// the keystrokes captured by the presenter and is only used by Keyboard.
func New(cfg *config.Config, wedge stdio.Reader) (ScanSource, error) {
	switch cfg.Source {
	case config.SourceCore:
		return newCore(cfg.Codes), nil
	case config.SourceKeyboard:
		if wedge == nil {
			return nil, fmt.Errorf("keyboard source needs a wedge input")
		}
		return newKeyboard(wedge), nil
	case config.SourceSerial:
		return newSerial(cfg)
	case config.SourceDisk:
		return newDisk(cfg)
	case config.SourceCamera:
		return newCamera(cfg)
	default:
		return nil, fmt.Errorf("unknown scan source specified: %s", cfg.Source)
	}
}

// NewFromReader wraps any CodeReader as a ScanSource.
func NewFromReader(name string, r CodeReader) ScanSource {
	return &baseSource{name: name, reader: r}
}
