package entities

import "github.com/reglet-dev/scannode/internal/domain/values"

// DecodedSymbol is one located QR symbol, in detection order.
type DecodedSymbol struct {
	Payload string              `json:"payload,omitempty" yaml:"payload,omitempty" msgpack:"p,omitempty"`
	Detail  string              `json:"detail,omitempty" yaml:"detail,omitempty" msgpack:"d,omitempty"`
	Status  values.DecodeStatus `json:"status" yaml:"status" msgpack:"s"`
	Index   int                 `json:"index" yaml:"index" msgpack:"i"`
}

// OK returns true if the symbol decoded and carries a payload to report.
func (s DecodedSymbol) OK() bool {
	return s.Status.IsSuccess()
}

// NewDecodedSymbol creates a successfully decoded symbol.
func NewDecodedSymbol(index int, payload string) DecodedSymbol {
	return DecodedSymbol{Index: index, Payload: payload, Status: values.DecodeOK}
}

// NewFailedSymbol creates a symbol that was located but could not be decoded.
func NewFailedSymbol(index int, status values.DecodeStatus, detail string) DecodedSymbol {
	return DecodedSymbol{Index: index, Status: status, Detail: detail}
}
