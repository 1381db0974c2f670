package output

import (
	"io"

	"github.com/goccy/go-yaml"
	"github.com/reglet-dev/scannode/internal/domain/execution"
)

// YAMLFormatter formats results as YAML.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// FormatCycles writes the cycle results as a YAML sequence.
func (f *YAMLFormatter) FormatCycles(results []*execution.CycleResult) error {
	if results == nil {
		results = []*execution.CycleResult{}
	}
	return f.encode(results)
}

// FormatStatus writes the node status as YAML.
func (f *YAMLFormatter) FormatStatus(status *NodeStatus) error {
	return f.encode(status)
}

func (f *YAMLFormatter) encode(v interface{}) error {
	encoder := yaml.NewEncoder(f.writer, yaml.Indent(2))

	if err := encoder.Encode(v); err != nil {
		return err
	}

	return encoder.Close()
}
