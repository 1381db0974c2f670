package values

// ErrorKind classifies why a scan cycle was abandoned.
type ErrorKind string

const (
	ErrorKindNone     ErrorKind = ""
	ErrorKindInit     ErrorKind = "init"
	ErrorKindCapture  ErrorKind = "capture"
	ErrorKindGeometry ErrorKind = "geometry_mismatch"
	ErrorKindAlloc    ErrorKind = "alloc"
	ErrorKindInternal ErrorKind = "internal"
)

// IsFatalToCycle returns true if the kind ended the scan early.
// Per-symbol decode failures are never recorded as an ErrorKind.
func (k ErrorKind) IsFatalToCycle() bool {
	return k != ErrorKindNone
}

// String returns "none" for the zero kind so it reads well in tables.
func (k ErrorKind) String() string {
	if k == ErrorKindNone {
		return "none"
	}
	return string(k)
}
