package dsl

import (
	"fmt"

	"github.com/codex-k8s/http-executor/internal/codec"
)

func normalizeConfig(cfg *Config) error {
	for i := range cfg.Tools {
		input, err := normalizeSchema(cfg.Tools[i].InputSchema)
		if err != nil {
			return fmt.Errorf("tools[%d].input_schema: %w", i, err)
		}
		cfg.Tools[i].InputSchema = input
		output, err := normalizeSchema(cfg.Tools[i].OutputSchema)
		if err != nil {
			return fmt.Errorf("tools[%d].output_schema: %w", i, err)
		}
		cfg.Tools[i].OutputSchema = output
	}
	return nil
}

func normalizeSchema(schema map[string]any) (map[string]any, error) {
	if schema == nil {
		return nil, nil
	}
	normalized, err := codec.Normalize(schema)
	if err != nil {
		return nil, err
	}
	result, ok := normalized.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema must be an object")
	}
	return result, nil
}
