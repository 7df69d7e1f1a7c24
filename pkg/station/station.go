// Package station drives one scanning session. A Controller owns the session
// on a single goroutine: operator actions, scan results and submission
// outcomes are all handed to that goroutine before they touch state or reach
// the presenter.
package station

import (
	stdcontext "context"
	"errors"
	"fmt"
	"qrscan/pkg/config"
	"qrscan/pkg/context"
	"qrscan/pkg/hardware"
	"qrscan/pkg/io"
	"qrscan/pkg/log"
	"qrscan/pkg/session"
	"qrscan/pkg/submit"
	"time"
)

// Action is an operator request.
type Action int

const (
	ScanProduct Action = iota
	ScanWarehouse
	CancelScan
	Submit
	Clear
	Exit
)

func (a Action) String() string {
	switch a {
	case ScanProduct:
		return "ScanProduct"
	case ScanWarehouse:
		return "ScanWarehouse"
	case CancelScan:
		return "CancelScan"
	case Submit:
		return "Submit"
	case Clear:
		return "Clear"
	case Exit:
		return "Exit"
	default:
		return "Unknown"
	}
}

// Status describes what the station is doing, for rendering.
type Status struct {
	Source     string
	Endpoint   string
	Scanning   bool // A scan is pending or about to re-arm.
	Submitting bool
}

func (s Status) String() string {
	state := "idle"
	if s.Scanning {
		state = "scanning"
	}
	if s.Submitting {
		state += ", sending"
	}
	return fmt.Sprintf("%s (%s)", state, s.Source)
}

// NoticeKind classifies a transient notification.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeFailure
)

// Notice is a transient, user-visible notification.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Notice texts.
const (
	TextSent       = "data sent"
	TextCleared    = "list cleared"
	TextBusy       = "a submission is already in progress"
	sendFailedFmt  = "send failed: %s"
	scanFailedFmt  = "scan failed: %v"
	sourceGoneText = "scan source closed"
)

// Presenter renders state and surfaces notices. Both methods are called from
// the controller goroutine only.
type Presenter interface {
	Render(snap session.Snapshot, status Status)
	Notify(n Notice)
}

// Submitter sends a snapshot and reports exactly one outcome on the channel.
type Submitter interface {
	Submit(ctx *context.OperationContext, snap session.Snapshot) <-chan submit.Outcome
}

type scanResult struct {
	seq  uint64
	mode session.ScanMode
	text string
	err  error
}

// Controller is the single owner of a scan session.
type Controller struct {
	source    hardware.ScanSource
	client    Submitter
	presenter Presenter
	endpoint  string
	rearm     time.Duration

	actions chan Action
	results chan scanResult
	done    chan struct{}

	session    *session.Session
	seq        uint64
	scanning   bool
	cancelScan stdcontext.CancelFunc
	rearmC     <-chan time.Time
	pending    <-chan submit.Outcome
}

// New creates a controller. Run must be called to start it.
func New(cfg *config.Config, source hardware.ScanSource, client Submitter, presenter Presenter) *Controller {
	return &Controller{
		source:    source,
		client:    client,
		presenter: presenter,
		endpoint:  cfg.Endpoint,
		rearm:     cfg.RearmDelay,
		actions:   make(chan Action, 16),
		results:   make(chan scanResult, 1),
		done:      make(chan struct{}),
		session:   session.New(),
	}
}

// Dispatch queues an action for the controller goroutine. It is safe to call
// from any goroutine and reports false once the controller has stopped.
func (c *Controller) Dispatch(a Action) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.actions <- a:
		return true
	case <-c.done:
		return false
	}
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Run processes actions until Exit is dispatched or ctx is cancelled. An
// in-flight submission is left to finish on its own; its outcome is dropped.
func (c *Controller) Run(ctx *context.OperationContext) error {
	defer close(c.done)
	defer c.stopScan()

	log.Info("Station started: source=%s endpoint=%s", c.source.Name(), c.endpoint)
	c.render()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a := <-c.actions:
			log.Debug("Action %s", a)
			if a == Exit {
				log.Info("Station exiting")
				return nil
			}
			c.handle(ctx, a)
		case r := <-c.results:
			c.applyScan(ctx, r)
		case <-c.rearmC:
			c.rearmC = nil
			c.startScan(ctx, c.session.Mode())
		case o, ok := <-c.pending:
			c.pending = nil
			if ok {
				c.reportOutcome(o)
			}
			c.render()
		}
	}
}

func (c *Controller) handle(ctx *context.OperationContext, a Action) {
	switch a {
	case ScanProduct:
		c.startScan(ctx, session.ModeProduct)
	case ScanWarehouse:
		c.startScan(ctx, session.ModeWarehouse)
	case CancelScan:
		c.stopScan()
		c.render()
	case Submit:
		if c.pending != nil {
			c.presenter.Notify(Notice{Kind: NoticeInfo, Text: TextBusy})
			return
		}
		c.pending = c.client.Submit(ctx, c.session.Snapshot())
		c.render()
	case Clear:
		c.session.Reset()
		c.presenter.Notify(Notice{Kind: NoticeInfo, Text: TextCleared})
		c.render()
	}
}

// startScan cancels any pending scan and arms a new one for mode.
func (c *Controller) startScan(ctx *context.OperationContext, mode session.ScanMode) {
	c.stopScan()
	c.seq++
	c.session.BeginScan(mode)

	scanCtx, cancel := ctx.WithCancel()
	c.cancelScan = cancel
	c.scanning = true

	seq := c.seq
	go func() {
		text, err := c.source.Scan(scanCtx, mode)
		select {
		case c.results <- scanResult{seq: seq, mode: mode, text: text, err: err}:
		case <-c.done:
		}
	}()
	c.render()
}

func (c *Controller) stopScan() {
	if c.cancelScan != nil {
		c.cancelScan()
		c.cancelScan = nil
	}
	c.scanning = false
	c.rearmC = nil
}

func (c *Controller) applyScan(ctx *context.OperationContext, r scanResult) {
	if !c.scanning || r.seq != c.seq {
		log.Trace("Dropping stale %s result %q (seq %d, current %d)", r.mode, r.text, r.seq, c.seq)
		return
	}
	c.stopScan()

	switch {
	case r.err == nil:
	case errors.Is(r.err, io.ErrCancelled):
		c.render()
		return
	case errors.Is(r.err, io.ErrSourceClosed):
		log.Error("Scan source %s closed", c.source.Name())
		c.presenter.Notify(Notice{Kind: NoticeFailure, Text: sourceGoneText})
		c.render()
		return
	default:
		log.Error("Scan failed: %v", r.err)
		c.presenter.Notify(Notice{Kind: NoticeFailure, Text: fmt.Sprintf(scanFailedFmt, r.err)})
		c.render()
		return
	}

	if c.session.ApplyResult(r.text) {
		log.Info("Scanned %s code %q", r.mode, r.text)
	} else {
		log.Debug("Ignoring blank %s result", r.mode)
	}

	if c.rearm <= 0 {
		c.startScan(ctx, r.mode)
		return
	}
	c.rearmC = time.After(c.rearm)
	c.render()
}

func (c *Controller) reportOutcome(o submit.Outcome) {
	switch o.Kind {
	case submit.Success:
		c.presenter.Notify(Notice{Kind: NoticeSuccess, Text: TextSent})
	case submit.ValidationFailure:
		c.presenter.Notify(Notice{Kind: NoticeFailure, Text: o.Message})
	default:
		c.presenter.Notify(Notice{Kind: NoticeFailure, Text: fmt.Sprintf(sendFailedFmt, o.Message)})
	}
}

func (c *Controller) render() {
	c.presenter.Render(c.session.Snapshot(), Status{
		Source:     c.source.Name(),
		Endpoint:   c.endpoint,
		Scanning:   c.scanning || c.rearmC != nil,
		Submitting: c.pending != nil,
	})
}
