// Package decoder implements QR symbol detection and decoding over a
// grayscale workspace, backed by gozxing.
package decoder

import (
	"errors"
	"log/slog"
	"sync"

	apperrors "github.com/reglet-dev/scannode/internal/application/errors"
	"github.com/reglet-dev/scannode/internal/application/ports"
	"github.com/reglet-dev/scannode/internal/domain/entities"
)

// MaxSymbolVersion is the largest QR version defined.
const MaxSymbolVersion = 40

// Decoder allocates decode workspaces against a fixed memory budget, the way
// the node's heap bounds them. Live workspaces count against the budget
// until destroyed.
type Decoder struct {
	logger     *slog.Logger
	budget     int
	inUse      int
	maxVersion int
	mu         sync.Mutex
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) {
		d.logger = logger
	}
}

// WithMaxVersion limits the symbol versions the decoder accepts. Larger
// symbols are reported as unsupported without being decoded.
func WithMaxVersion(v int) Option {
	return func(d *Decoder) {
		d.maxVersion = v
	}
}

// New creates a decoder with a workspace budget in bytes. A non-positive
// budget means unlimited.
func New(budget int, opts ...Option) *Decoder {
	d := &Decoder{
		budget:     budget,
		maxVersion: MaxSymbolVersion,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewWorkspace allocates a workspace for width x height grayscale pixels.
func (d *Decoder) NewWorkspace(width, height int) (ports.DecodeWorkspace, error) {
	g := entities.Geometry{Width: width, Height: height}
	if err := g.Validate(); err != nil {
		return nil, apperrors.NewAllocError(g, 0, d.available())
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	need := g.Bytes()
	if d.budget > 0 && d.inUse+need > d.budget {
		return nil, apperrors.NewAllocError(g, need, d.budget-d.inUse)
	}
	d.inUse += need

	d.logger.Debug("decode workspace allocated", "geometry", g.String(), "bytes", need, "in_use", d.inUse)
	return &workspace{
		owner:      d,
		geometry:   g,
		pixels:     make([]byte, need),
		maxVersion: d.maxVersion,
		logger:     d.logger,
	}, nil
}

// InUse returns the bytes held by live workspaces.
func (d *Decoder) InUse() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inUse
}

func (d *Decoder) available() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.budget <= 0 {
		return 0
	}
	return d.budget - d.inUse
}

func (d *Decoder) free(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inUse -= n
}

var (
	// ErrDestroyed is returned by any call on a destroyed workspace.
	ErrDestroyed = errors.New("decode workspace destroyed")

	// ErrNotBegun is returned when Commit is called before Begin.
	ErrNotBegun = errors.New("decode workspace not begun")
)
