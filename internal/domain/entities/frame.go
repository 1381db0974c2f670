package entities

import "time"

// PixelFormat is the sensor output encoding.
type PixelFormat string

// PixelFormatGrayscale is the only format the decoder accepts: one luminance byte per pixel.
const PixelFormatGrayscale PixelFormat = "grayscale"

// CaptureConfig is the fixed configuration handed to the frame source at init.
type CaptureConfig struct {
	PixelFormat PixelFormat
	Geometry    Geometry
	BufferCount int
}

// DefaultCaptureConfig returns grayscale QVGA with a single frame buffer.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		PixelFormat: PixelFormatGrayscale,
		Geometry:    QVGA,
		BufferCount: 1,
	}
}

// FrameBuffer is one captured frame checked out from the frame source.
//
// The buffer belongs to the frame source; holding a *FrameBuffer means it is
// checked out and must be released exactly once before the source shuts down.
// Data must not be retained after release.
type FrameBuffer struct {
	// Data holds the raw pixels as reported by the sensor.
	Data []byte

	// Width and Height are what the sensor says it produced, which may
	// disagree with the negotiated geometry.
	Width  int
	Height int

	// Timestamp when the frame was captured
	Timestamp time.Time

	// Seq is the frame source's capture counter.
	Seq uint64
}

// Len returns the number of pixel bytes captured.
func (f *FrameBuffer) Len() int {
	return len(f.Data)
}

// Reported returns the geometry the sensor reported for this frame.
func (f *FrameBuffer) Reported() Geometry {
	return Geometry{Width: f.Width, Height: f.Height}
}

// Matches reports whether both the captured length and the reported
// dimensions agree with the negotiated geometry.
func (f *FrameBuffer) Matches(negotiated Geometry) bool {
	return f.Len() == negotiated.Bytes() && f.Reported() == negotiated
}
