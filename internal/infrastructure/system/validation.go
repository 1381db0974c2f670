package system

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var configSchema []byte

// Validate checks the configuration against the embedded JSON Schema and
// then the cross-field rules the schema cannot express.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource("config.json", bytes.NewReader(configSchema)); err != nil {
		return fmt.Errorf("failed to add config schema: %w", err)
	}

	schema, err := compiler.Compile("config.json")
	if err != nil {
		return fmt.Errorf("failed to compile config schema: %w", err)
	}

	// The validator works on decoded JSON values, not Go structs.
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return formatValidationError(validationErr)
		}
		return fmt.Errorf("config validation failed: %w", err)
	}

	return validateSemantics(cfg)
}

func validateSemantics(cfg *Config) error {
	var problems []string

	spec, err := cfg.WakeArmSpec()
	if err != nil {
		problems = append(problems, fmt.Sprintf("wake: %v", err))
	} else if err := spec.Validate(); err != nil {
		problems = append(problems, fmt.Sprintf("wake: %v", err))
	}

	if need := cfg.Geometry().Bytes(); cfg.Decoder.MaxWorkspaceBytes > 0 && need > cfg.Decoder.MaxWorkspaceBytes {
		problems = append(problems, fmt.Sprintf(
			"decoder: workspace budget %d bytes is below one %s frame (%d bytes)",
			cfg.Decoder.MaxWorkspaceBytes, cfg.Geometry(), need))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed:\n    - %s", strings.Join(problems, "\n    - "))
	}
	return nil
}

func formatValidationError(err *jsonschema.ValidationError) error {
	var messages []string

	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if e.Message != "" {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			collect(cause)
		}
	}
	collect(err)

	if len(messages) == 0 {
		return fmt.Errorf("config validation failed")
	}
	return fmt.Errorf("config validation failed:\n    - %s", strings.Join(messages, "\n    - "))
}
