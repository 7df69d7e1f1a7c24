package hardware

import (
	"qrscan/pkg/context"
	"qrscan/pkg/session"
)

// CodeReader defines the ability to read one code from a device.
type CodeReader interface {
	Read(ctx *context.OperationContext) (string, error)
}

// ScanSource asynchronously yields one decoded string per activation. A
// cancelled activation returns io.ErrCancelled and produces no result.
type ScanSource interface {
	Scan(ctx *context.OperationContext, mode session.ScanMode) (string, error)
	Name() string
	Close() error
}
