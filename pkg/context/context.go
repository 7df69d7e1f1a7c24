package context

import (
	stdcontext "context"
	"qrscan/pkg/config"
	"qrscan/pkg/metrics"
)

// OperationContext carries cancellation plus the station configuration and
// metrics recorder into a single scan or submission.
type OperationContext struct {
	stdcontext.Context
	Config   *config.Config    // The station configuration
	Recorder *metrics.Recorder // The metrics recorder for the current run.
}

// NewContext creates a new OperationContext bound to parent.
func NewContext(parent stdcontext.Context, config *config.Config, rec *metrics.Recorder) *OperationContext {
	if parent == nil {
		parent = stdcontext.Background()
	}
	return &OperationContext{
		Context:  parent,
		Config:   config,
		Recorder: rec,
	}
}

// WithCancel derives a cancellable OperationContext sharing config and recorder.
func (c *OperationContext) WithCancel() (*OperationContext, stdcontext.CancelFunc) {
	ctx, cancel := stdcontext.WithCancel(c.Context)
	return &OperationContext{Context: ctx, Config: c.Config, Recorder: c.Recorder}, cancel
}
