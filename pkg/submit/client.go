// Package submit sends the accumulated scan data to the remote endpoint as one
// form POST and reports the result through a single-use outcome channel.
package submit

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"qrscan/pkg/config"
	"qrscan/pkg/context"
	"qrscan/pkg/log"
	"qrscan/pkg/metrics"
	"qrscan/pkg/session"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"
)

const (
	// FieldData carries the comma-joined product codes.
	FieldData = "data"
	// FieldWarehouse carries the warehouse code, empty when unset.
	FieldWarehouse = "warehouseCode"

	contentType  = "application/x-www-form-urlencoded"
	maxDrainBody = 64 * 1024
)

// ErrEmpty is reported when a submission is requested without product codes.
var ErrEmpty = xerrors.New("no data to send")

// Kind tags the variant of an Outcome.
type Kind int

const (
	Success Kind = iota
	ValidationFailure
	TransportFailure
	HTTPFailure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "Success"
	case ValidationFailure:
		return "ValidationFailure"
	case TransportFailure:
		return "TransportFailure"
	case HTTPFailure:
		return "HTTPFailure"
	default:
		return "Unknown"
	}
}

// Outcome is the result of one submission.
type Outcome struct {
	ID         uuid.UUID
	Kind       Kind
	StatusCode int    // Set for Success and HTTPFailure.
	Message    string // Error text or the response's status text.
	Elapsed    time.Duration
}

// OK reports whether the endpoint accepted the submission.
func (o Outcome) OK() bool { return o.Kind == Success }

func (o Outcome) String() string {
	if o.StatusCode != 0 {
		return fmt.Sprintf("%s(%d %s)", o.Kind, o.StatusCode, o.Message)
	}
	if o.Message != "" {
		return fmt.Sprintf("%s(%s)", o.Kind, o.Message)
	}
	return o.Kind.String()
}

// Client posts snapshots to a fixed endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	rec      *metrics.Recorder
}

// New creates a client for cfg.Endpoint. A zero SubmitTimeout keeps the
// transport default.
func New(cfg *config.Config, rec *metrics.Recorder) *Client {
	return NewWithClient(cfg.Endpoint, &http.Client{Timeout: cfg.SubmitTimeout}, rec)
}

// NewWithClient creates a client using hc for all requests.
func NewWithClient(endpoint string, hc *http.Client, rec *metrics.Recorder) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{endpoint: strings.TrimSpace(endpoint), http: hc, rec: rec}
}

// Endpoint returns the URL submissions are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Encode returns the form body for snap.
func Encode(snap session.Snapshot) string {
	form := url.Values{}
	form.Set(FieldData, strings.Join(snap.Products, ","))
	form.Set(FieldWarehouse, snap.Warehouse)
	return form.Encode()
}

// Submit sends snap in the background. The returned channel receives exactly
// one Outcome and is then closed. An empty product list is rejected without
// any network call. Submissions are not retried.
func (c *Client) Submit(ctx *context.OperationContext, snap session.Snapshot) <-chan Outcome {
	out := make(chan Outcome, 1)
	id := uuid.New()

	if snap.Empty() {
		log.Info("Submission %s rejected: %v", id, ErrEmpty)
		out <- Outcome{ID: id, Kind: ValidationFailure, Message: ErrEmpty.Error()}
		close(out)
		return out
	}

	body := Encode(snap)
	go func() {
		defer close(out)
		start := time.Now()
		var o Outcome
		_ = c.rec.Record("Submit", metrics.MNetwork, func() error {
			o = c.post(ctx, body)
			if !o.OK() {
				return xerrors.New(o.Message)
			}
			return nil
		})
		o.ID = id
		o.Elapsed = time.Since(start)
		log.Info("Submission %s of %d product(s) to %s: %s in %s", id, len(snap.Products), c.endpoint, o, o.Elapsed)
		out <- o
	}()
	return out
}

func (c *Client) post(ctx *context.OperationContext, body string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		return Outcome{Kind: TransportFailure, Message: err.Error()}
	}
	req.Header.Set("Content-Type", contentType)
	log.Debug("POST %s %s", c.endpoint, body)

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{Kind: TransportFailure, Message: err.Error()}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Outcome{Kind: HTTPFailure, StatusCode: resp.StatusCode, Message: statusText(resp)}
	}
	return Outcome{Kind: Success, StatusCode: resp.StatusCode, Message: statusText(resp)}
}

// statusText returns the reason phrase of resp, e.g. "Internal Server Error".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
