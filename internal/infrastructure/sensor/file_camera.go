package sensor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	apperrors "github.com/reglet-dev/scannode/internal/application/errors"
	"github.com/reglet-dev/scannode/internal/application/ports"
	"github.com/reglet-dev/scannode/internal/domain/entities"
)

// errNoFrame means the frames directory holds no image yet. Acquire keeps polling.
var errNoFrame = errors.New("no frame available")

// FileCamera is a frame source backed by a directory of PNG/JPEG images.
// Each Acquire captures the newest image, converted to 8-bit grayscale at its
// own resolution; an image whose size differs from the negotiated geometry
// produces a frame that fails the geometry check, as a misconfigured sensor would.
type FileCamera struct {
	faults  map[string]error
	logger  *slog.Logger
	control *Control
	out     *entities.FrameBuffer
	now     func() time.Time
	dir     string
	variant string
	cfg     entities.CaptureConfig
	timeout time.Duration
	seq     uint64
	mu      sync.Mutex
	ready   bool
}

// CameraOption configures a FileCamera.
type CameraOption func(*FileCamera)

// WithCameraLogger sets the logger.
func WithCameraLogger(logger *slog.Logger) CameraOption {
	return func(c *FileCamera) {
		c.logger = logger
	}
}

// WithOverrideFault makes one quality override fail, for exercising the
// warn-and-continue path.
func WithOverrideFault(override string, err error) CameraOption {
	return func(c *FileCamera) {
		c.faults[override] = err
	}
}

// NewFileCamera creates a camera reading from dir. The variant is checked at Init.
func NewFileCamera(dir, variant string, timeout time.Duration, opts ...CameraOption) *FileCamera {
	c := &FileCamera{
		dir:     dir,
		variant: variant,
		timeout: timeout,
		faults:  make(map[string]error),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init brings the sensor up. Only grayscale with a single frame buffer is supported.
func (c *FileCamera) Init(cfg entities.CaptureConfig) (ports.SensorControl, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready {
		return nil, apperrors.NewInitError(c.variant, "sensor already initialized", nil)
	}
	variant, err := ParseVariant(c.variant)
	if err != nil {
		return nil, apperrors.NewInitError(c.variant, "sensor not detected", err)
	}
	if cfg.PixelFormat != entities.PixelFormatGrayscale {
		return nil, apperrors.NewInitError(c.variant, fmt.Sprintf("unsupported pixel format %q", cfg.PixelFormat), nil)
	}
	if cfg.BufferCount != 1 {
		return nil, apperrors.NewInitError(c.variant, fmt.Sprintf("unsupported buffer count %d", cfg.BufferCount), nil)
	}
	if err := cfg.Geometry.Validate(); err != nil {
		return nil, apperrors.NewInitError(c.variant, "bad geometry", err)
	}

	info, err := os.Stat(c.dir)
	if err != nil {
		return nil, apperrors.NewInitError(c.variant, "frame source unavailable", err)
	}
	if !info.IsDir() {
		return nil, apperrors.NewInitError(c.variant, "frame source unavailable",
			fmt.Errorf("%s is not a directory", c.dir))
	}

	c.cfg = cfg
	c.control = newControl(variant, c.faults, c.logger)
	c.ready = true
	c.logger.Debug("sensor initialized", "sensor", variant, "geometry", cfg.Geometry.String(), "frames_dir", c.dir)
	return c.control, nil
}

// Acquire captures one frame, polling the directory with exponential
// backoff until an image appears or the capture timeout elapses.
func (c *FileCamera) Acquire() (*entities.FrameBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return nil, apperrors.NewCaptureError("sensor not initialized", nil)
	}
	if c.out != nil {
		return nil, apperrors.NewCaptureError("frame buffer already checked out", nil)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond

	frame, err := backoff.Retry(context.Background(), c.capture,
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(c.timeout),
	)
	if err != nil {
		if errors.Is(err, errNoFrame) {
			return nil, apperrors.NewCaptureError(fmt.Sprintf("no frame within %s", c.timeout), err)
		}
		return nil, apperrors.NewCaptureError("frame read failed", err)
	}

	c.seq++
	frame.Seq = c.seq
	c.out = frame
	c.logger.Debug("frame captured", "seq", frame.Seq, "reported", frame.Reported().String(), "bytes", frame.Len())
	return frame, nil
}

func (c *FileCamera) capture() (*entities.FrameBuffer, error) {
	path, err := newestImage(c.dir)
	if err != nil {
		if errors.Is(err, errNoFrame) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	img, err := loadImage(path)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	gray := toGray(img)
	return &entities.FrameBuffer{
		Data:      gray.Pix,
		Width:     gray.Rect.Dx(),
		Height:    gray.Rect.Dy(),
		Timestamp: c.now(),
	}, nil
}

// Release returns the checked-out frame. Releasing anything else fails.
func (c *FileCamera) Release(frame *entities.FrameBuffer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if frame == nil || c.out != frame {
		return errors.New("frame is not checked out")
	}
	c.out = nil
	frame.Data = nil
	return nil
}

// Shutdown powers the sensor down. It refuses while a frame is checked out.
func (c *FileCamera) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return errors.New("sensor not initialized")
	}
	if c.out != nil {
		return fmt.Errorf("frame %d still checked out", c.out.Seq)
	}
	c.ready = false
	c.control = nil
	c.logger.Debug("sensor shut down")
	return nil
}

// Outstanding reports whether a frame is checked out.
func (c *FileCamera) Outstanding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out != nil
}

// IsImage reports whether name has an extension the camera reads.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

func newestImage(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read frames dir: %w", err)
	}

	var (
		newest     string
		newestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !IsImage(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) ||
			(info.ModTime().Equal(newestTime) && entry.Name() > filepath.Base(newest)) {
			newest = filepath.Join(dir, entry.Name())
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", errNoFrame
	}
	return newest, nil
}

func loadImage(path string) (image.Image, error) {
	//nolint:gosec // G304: frames dir is operator-configured
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// toGray converts img to a tightly packed 8-bit grayscale image at origin (0,0).
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Rect, img, b.Min, draw.Src)
	return gray
}
