package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/reglet-dev/scannode/internal/domain/values"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	busFault := errors.New("sccb nack")

	tests := []struct {
		name string
		err  error
		want values.ErrorKind
	}{
		{name: "nil", err: nil, want: values.ErrorKindNone},
		{name: "init", err: NewInitError("ov2640", "bus fault", busFault), want: values.ErrorKindInit},
		{name: "capture", err: NewCaptureError("timeout", nil), want: values.ErrorKindCapture},
		{name: "geometry", err: NewGeometryMismatchError(entities.QVGA, entities.Geometry{Width: 640, Height: 480}, 640*480), want: values.ErrorKindGeometry},
		{name: "alloc", err: NewAllocError(entities.QVGA, 76800, 4096), want: values.ErrorKindAlloc},
		{name: "wrapped", err: fmt.Errorf("scan init: %w", NewAllocError(entities.QVGA, 76800, 0)), want: values.ErrorKindAlloc},
		{name: "other", err: errors.New("boom"), want: values.ErrorKindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestInitError_Unwrap(t *testing.T) {
	busFault := errors.New("sccb nack")
	err := NewInitError("ov2640", "bus fault", busFault)

	assert.ErrorIs(t, err, busFault)
	assert.Contains(t, err.Error(), "ov2640")
	assert.Contains(t, err.Error(), "sccb nack")
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "capture failed: no buffer", NewCaptureError("no buffer", nil).Error())

	geo := NewGeometryMismatchError(entities.QVGA, entities.Geometry{Width: 640, Height: 480}, 307200)
	assert.Contains(t, geo.Error(), "320x240")
	assert.Contains(t, geo.Error(), "640x480")

	alloc := NewAllocError(entities.QVGA, 76800, 0)
	assert.Equal(t, "decode workspace 320x240: cannot allocate 76800 bytes", alloc.Error())

	sym := NewSymbolDecodeError(entities.NewFailedSymbol(1, values.DecodeChecksum, "ecc"))
	assert.Equal(t, "symbol 1 decode failed (checksum): ecc", sym.Error())

	cfg := NewConfigurationError("serial", "unknown parity", nil)
	assert.Equal(t, "configuration error (serial): unknown parity", cfg.Error())
}
