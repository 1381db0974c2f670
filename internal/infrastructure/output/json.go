package output

import (
	"encoding/json"
	"io"

	"github.com/reglet-dev/scannode/internal/domain/execution"
)

// JSONFormatter formats results as JSON.
type JSONFormatter struct {
	writer io.Writer
	indent bool
}

// NewJSONFormatter creates a new JSON formatter.
// If indent is true, the output will be pretty-printed with indentation.
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{
		writer: w,
		indent: indent,
	}
}

// FormatCycles writes the cycle results as a JSON array.
func (f *JSONFormatter) FormatCycles(results []*execution.CycleResult) error {
	if results == nil {
		results = []*execution.CycleResult{}
	}
	return f.write(results)
}

// FormatStatus writes the node status as a JSON object.
func (f *JSONFormatter) FormatStatus(status *NodeStatus) error {
	return f.write(status)
}

func (f *JSONFormatter) write(v interface{}) error {
	encoder := json.NewEncoder(f.writer)
	if f.indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}
