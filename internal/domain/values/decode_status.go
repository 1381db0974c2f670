package values

import "fmt"

// DecodeStatus is the per-symbol outcome of extraction and decoding.
type DecodeStatus string

const (
	// DecodeOK means the payload was recovered
	DecodeOK DecodeStatus = "ok"
	// DecodeMalformed means the format information or data stream could not be parsed
	DecodeMalformed DecodeStatus = "malformed"
	// DecodeUnsupportedVersion means the symbol version is outside what the decoder handles
	DecodeUnsupportedVersion DecodeStatus = "unsupported_version"
	// DecodeChecksum means error correction could not repair the codewords
	DecodeChecksum DecodeStatus = "checksum"
	// DecodeUnknown covers any other decoder failure
	DecodeUnknown DecodeStatus = "unknown"
)

// IsSuccess returns true if the symbol decoded
func (s DecodeStatus) IsSuccess() bool {
	return s == DecodeOK
}

// Validate returns an error if the status value is invalid
func (s DecodeStatus) Validate() error {
	switch s {
	case DecodeOK, DecodeMalformed, DecodeUnsupportedVersion, DecodeChecksum, DecodeUnknown:
		return nil
	default:
		return fmt.Errorf("invalid decode status: %s", s)
	}
}
