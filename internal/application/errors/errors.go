// Package apperrors defines application-level error types.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/reglet-dev/scannode/internal/domain/values"
)

// ErrCycleInFlight is returned when a cycle is started while another one has
// not yet reached sleep.
var ErrCycleInFlight = errors.New("a scan cycle is already in flight")

// InitError indicates the sensor could not be brought up.
type InitError struct {
	Cause  error
	Sensor string
	Reason string
}

func (e *InitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sensor %s init failed: %s: %v", e.Sensor, e.Reason, e.Cause)
	}
	return fmt.Sprintf("sensor %s init failed: %s", e.Sensor, e.Reason)
}

func (e *InitError) Unwrap() error {
	return e.Cause
}

// NewInitError creates a new sensor init error.
func NewInitError(sensor, reason string, cause error) *InitError {
	return &InitError{
		Sensor: sensor,
		Reason: reason,
		Cause:  cause,
	}
}

// CaptureError indicates no frame buffer became available.
type CaptureError struct {
	Cause  error
	Reason string
}

func (e *CaptureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("capture failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("capture failed: %s", e.Reason)
}

func (e *CaptureError) Unwrap() error {
	return e.Cause
}

// NewCaptureError creates a new capture error.
func NewCaptureError(reason string, cause error) *CaptureError {
	return &CaptureError{
		Reason: reason,
		Cause:  cause,
	}
}

// GeometryMismatchError indicates the captured frame does not match the negotiated geometry.
type GeometryMismatchError struct {
	Negotiated entities.Geometry
	Reported   entities.Geometry
	Length     int
}

func (e *GeometryMismatchError) Error() string {
	return fmt.Sprintf("frame geometry mismatch: negotiated %s (%d bytes), sensor reported %s with %d bytes",
		e.Negotiated, e.Negotiated.Bytes(), e.Reported, e.Length)
}

// NewGeometryMismatchError creates a new geometry mismatch error.
func NewGeometryMismatchError(negotiated, reported entities.Geometry, length int) *GeometryMismatchError {
	return &GeometryMismatchError{
		Negotiated: negotiated,
		Reported:   reported,
		Length:     length,
	}
}

// AllocError indicates the decode workspace could not be allocated.
type AllocError struct {
	Geometry  entities.Geometry
	Requested int
	Available int
}

func (e *AllocError) Error() string {
	if e.Available > 0 {
		return fmt.Sprintf("decode workspace %s: requested %d bytes, %d available", e.Geometry, e.Requested, e.Available)
	}
	return fmt.Sprintf("decode workspace %s: cannot allocate %d bytes", e.Geometry, e.Requested)
}

// NewAllocError creates a new workspace allocation error.
func NewAllocError(geometry entities.Geometry, requested, available int) *AllocError {
	return &AllocError{
		Geometry:  geometry,
		Requested: requested,
		Available: available,
	}
}

// SymbolDecodeError describes one symbol that was located but not decoded.
// It is never fatal to the cycle.
type SymbolDecodeError struct {
	Status values.DecodeStatus
	Detail string
	Index  int
}

func (e *SymbolDecodeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("symbol %d decode failed (%s): %s", e.Index, e.Status, e.Detail)
	}
	return fmt.Sprintf("symbol %d decode failed (%s)", e.Index, e.Status)
}

// NewSymbolDecodeError creates a new symbol decode error.
func NewSymbolDecodeError(symbol entities.DecodedSymbol) *SymbolDecodeError {
	return &SymbolDecodeError{
		Index:  symbol.Index,
		Status: symbol.Status,
		Detail: symbol.Detail,
	}
}

// ConfigurationError indicates node config or setup issue.
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Aspect, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Aspect, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Aspect:  aspect,
		Message: message,
		Cause:   cause,
	}
}

// KindOf classifies an error that abandoned a scan.
func KindOf(err error) values.ErrorKind {
	var (
		initErr     *InitError
		captureErr  *CaptureError
		geometryErr *GeometryMismatchError
		allocErr    *AllocError
	)

	switch {
	case err == nil:
		return values.ErrorKindNone
	case errors.As(err, &initErr):
		return values.ErrorKindInit
	case errors.As(err, &captureErr):
		return values.ErrorKindCapture
	case errors.As(err, &geometryErr):
		return values.ErrorKindGeometry
	case errors.As(err, &allocErr):
		return values.ErrorKindAlloc
	default:
		return values.ErrorKindInternal
	}
}
