// Package serial implements the report link: one text line per decoded
// symbol over a UART, or any io.Writer when no device is configured.
package serial

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/reglet-dev/scannode/internal/domain/execution"
)

const (
	// LinePrefix starts every report line.
	LinePrefix = "QR:"

	// LineTerminator ends every report line.
	LineTerminator = "\r\n"
)

// lineBreaks turns CR and LF into spaces so a payload stays on one line.
var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// FormatLine renders the report line for payload. The payload ends at the
// first NUL, line breaks become spaces, and it is cut to at most
// execution.MaxReportPayload bytes without splitting a UTF-8 sequence.
func FormatLine(payload string) string {
	if i := strings.IndexByte(payload, 0); i >= 0 {
		payload = payload[:i]
	}
	text, _ := execution.TruncatePayload(lineBreaks.Replace(payload), execution.MaxReportPayload)
	return LinePrefix + text + LineTerminator
}

// Reporter writes report lines. Writes are fire-and-forget at the protocol
// level: there is no acknowledgement, and failures are returned for the
// caller to count.
type Reporter struct {
	w          io.Writer
	drain      func() error
	sleep      func(time.Duration)
	logger     *slog.Logger
	flushDelay time.Duration
	mu         sync.Mutex
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithFlushDelay sets the pause after draining.
func WithFlushDelay(d time.Duration) Option {
	return func(r *Reporter) {
		r.flushDelay = d
	}
}

// WithDrainer sets the function that blocks until queued bytes have left
// the transmitter.
func WithDrainer(drain func() error) Option {
	return func(r *Reporter) {
		r.drain = drain
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reporter) {
		r.logger = logger
	}
}

// NewReporter creates a reporter over w.
func NewReporter(w io.Writer, opts ...Option) *Reporter {
	r := &Reporter{
		w:      w,
		sleep:  time.Sleep,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SendLine writes the report line for payload in a single write.
func (r *Reporter) SendLine(payload string) error {
	line := FormatLine(payload)
	if len(line)-len(LinePrefix)-len(LineTerminator) < len(payload) {
		r.logger.Warn("report payload truncated", "payload_bytes", len(payload), "limit", execution.MaxReportPayload)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := io.WriteString(r.w, line)
	if err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	if n != len(line) {
		return fmt.Errorf("serial write: short write %d of %d bytes", n, len(line))
	}
	r.logger.Debug("report line sent", "bytes", n)
	return nil
}

// Flush waits until the transmitter has drained, then for the flush delay,
// so the last line is on the wire before the node powers down.
func (r *Reporter) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var drainErr error
	if r.drain != nil {
		if err := r.drain(); err != nil {
			drainErr = fmt.Errorf("serial drain: %w", err)
		}
	}
	if r.flushDelay > 0 {
		r.sleep(r.flushDelay)
	}
	return drainErr
}

// Close closes the underlying writer if it is closable.
func (r *Reporter) Close() error {
	if c, ok := r.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
