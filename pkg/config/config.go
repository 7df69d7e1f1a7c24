package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"qrscan/pkg/log"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is where qrsink listens when started with its defaults.
	DefaultEndpoint = "http://localhost:8080/V1/qr_update.php"

	// defaultPictureRearm is the pause before a picture-based source re-arms, so the
	// same code held under the camera is not read twice in a row.
	defaultPictureRearm = time.Second
)

// SystemType defines the platforms with a known camera command, see GetImageCommand().
type SystemType string

const (
	SystemMac   SystemType = "Mac"
	SystemPi    SystemType = "Pi"
	SystemLinux SystemType = "Linux"
)

// SourceType defines the scan source implementation to use.
type SourceType string

const (
	SourceCore     SourceType = "Core"     // In-memory scripted codes, no I/O.
	SourceKeyboard SourceType = "Keyboard" // Keyboard-wedge scanner typing into the UI.
	SourceSerial   SourceType = "Serial"   // Scanner attached to a serial port.
	SourceDisk     SourceType = "Disk"     // Pictures dropped into an inbox directory.
	SourceCamera   SourceType = "Camera"   // Pictures taken with the system camera command.
)

// UIMode selects the presenter.
type UIMode string

const (
	UIAuto    UIMode = "auto"
	UITUI     UIMode = "tui"
	UIConsole UIMode = "console"
)

// Config holds all parameters for a scanning station.
type Config struct {
	Endpoint      string
	SubmitTimeout time.Duration // Zero keeps the transport default.

	Source      SourceType
	System      SystemType
	UI          UIMode
	Codes       []string // Scripted codes for SourceCore.
	InboxPath   string   // Watched directory for SourceDisk.
	PicturePath string   // Where SourceCamera stores captured pictures.
	SerialPort  string
	SerialBaud  int
	PollEvery   time.Duration
	RearmDelay  time.Duration

	LogLevel     log.LogLevel
	LogFile      string
	PrintMetrics bool
	ResultsPath  string
}

// NewConfig creates a new Config by parsing command-line flags, exiting on error.
func NewConfig() *Config {
	log.Debug("Parsing command-line flags...")
	cfg, err := Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Debug("Config: %s", cfg)
	return cfg
}

// Parse builds a Config from args, falling back to QRSCAN_* environment variables
// for the endpoint and serial port.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("qrscan", flag.ContinueOnError)

	endpoint := fs.String("endpoint", getenv("QRSCAN_ENDPOINT", DefaultEndpoint), "URL receiving the form POST.")
	submitTimeout := fs.Duration("submit-timeout", 0, "Timeout for one submission (0 keeps the transport default).")
	source := fs.String("source", string(SourceKeyboard), "Scan source (Core, Keyboard, Serial, Disk, Camera).")
	system := fs.String("system", string(SystemLinux), "System for the camera command (Mac, Pi, Linux).")
	ui := fs.String("ui", string(UIAuto), "Presenter (auto, tui, console).")
	codes := fs.String("codes", "", "Comma-separated codes served by the Core source.")
	inbox := fs.String("inbox", "output/inbox/", "Directory watched by the Disk source.")
	picPath := fs.String("pics", "output/pics/", "Directory for pictures taken by the Camera source.")
	serialPort := fs.String("serial-port", getenv("QRSCAN_SERIAL_PORT", "/dev/ttyACM0"), "Serial device of the scanner.")
	baud := fs.Int("baud", 9600, "Serial baud rate.")
	pollEvery := fs.Duration("poll", 250*time.Millisecond, "Poll interval of the Disk and Camera sources.")
	rearm := fs.Duration("rearm-delay", -1, "Pause before re-arming after a scan (-1 picks a default per source).")
	logLevel := fs.String("log-level", "info", "Set log level (trace, debug, info, error).")
	logFile := fs.String("log-file", "qrscan.log", "Log file used while the TUI owns the terminal.")
	printMetrics := fs.Bool("print-metrics", false, "Whether to print a metrics summary on exit.")
	resultsPath := fs.String("results", "", "Directory for metric CSV files (empty disables them).")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	level, err := ParseLogLevel(*logLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	cfg := &Config{
		Endpoint:      strings.TrimSpace(*endpoint),
		SubmitTimeout: *submitTimeout,
		Source:        SourceType(*source),
		System:        SystemType(*system),
		UI:            UIMode(strings.ToLower(*ui)),
		Codes:         splitCodes(*codes),
		InboxPath:     filepath.Clean(*inbox),
		PicturePath:   filepath.Clean(*picPath),
		SerialPort:    strings.TrimSpace(*serialPort),
		SerialBaud:    *baud,
		PollEvery:     *pollEvery,
		RearmDelay:    *rearm,

		LogLevel:     level,
		LogFile:      *logFile,
		PrintMetrics: *printMetrics,
		ResultsPath:  strings.TrimSpace(*resultsPath),
	}
	if cfg.RearmDelay < 0 {
		cfg.RearmDelay = cfg.defaultRearmDelay()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the endpoint and the enumerated settings.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("endpoint %q is not an http(s) URL", c.Endpoint)
	}
	switch c.Source {
	case SourceCore, SourceKeyboard, SourceSerial, SourceDisk, SourceCamera:
	default:
		return fmt.Errorf("unknown scan source: %s", c.Source)
	}
	switch c.UI {
	case UIAuto, UITUI, UIConsole:
	default:
		return fmt.Errorf("unknown ui mode: %s", c.UI)
	}
	if c.Source == SourceSerial && (c.SerialPort == "" || c.SerialBaud <= 0) {
		return fmt.Errorf("serial source needs a port and a positive baud rate")
	}
	if c.PollEvery <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.SubmitTimeout < 0 {
		return fmt.Errorf("submit timeout must not be negative")
	}
	return nil
}

// GetImageCommand returns the command to take a picture for the configured system.
func (c *Config) GetImageCommand(outputPath string) (string, []string) {
	switch c.System {
	case SystemPi:
		return "libcamera-still", []string{"-o", outputPath, "--timeout", "1", "--nopreview"}
	case SystemMac:
		return "imagesnap", []string{"-q", outputPath}
	default:
		return "fswebcam", []string{"-q", "--no-banner", outputPath}
	}
}

// String returns a string representation of the Config instance
func (c *Config) String() string {
	return fmt.Sprintf("Config{Endpoint:%s SubmitTimeout:%s Source:%s System:%s UI:%s "+
		"Codes:%d Inbox:%s PicPath:%s Serial:%s@%d Poll:%s Rearm:%s LogLevel:%s "+
		"LogFile:%s PrintMetrics:%t Results:%s}",
		c.Endpoint, c.SubmitTimeout, c.Source, c.System, c.UI,
		len(c.Codes), c.InboxPath, c.PicturePath, c.SerialPort, c.SerialBaud,
		c.PollEvery, c.RearmDelay, c.LogLevel, c.LogFile, c.PrintMetrics, c.ResultsPath)
}

// --- Config Helpers ---

func (c *Config) defaultRearmDelay() time.Duration {
	switch c.Source {
	case SourceDisk, SourceCamera:
		return defaultPictureRearm
	default:
		return 0
	}
}

// EnsureDirectory creates path if necessary and returns it cleaned.
func EnsureDirectory(path string) (string, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return path, nil
}

// ParseLogLevel maps the -log-level names trace, debug, info and error to a
// log level. An empty name means info.
func ParseLogLevel(name string) (log.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info", "":
		return log.LevelInfo, nil
	case "error":
		return log.LevelError, nil
	default:
		return log.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

func splitCodes(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
