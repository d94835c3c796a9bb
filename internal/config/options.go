package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DirTreeOptions configures a "dir" tree: a local directory exported as a
// document tree.
type DirTreeOptions struct {
	RootID string `mapstructure:"root_id"`
	Path   string `mapstructure:"path"`
}

// DecodeOptions decodes a tree's options map into out. Unknown keys are
// rejected so typos surface at startup.
func DecodeOptions(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return fmt.Errorf("config: options decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return fmt.Errorf("config: decode options: %w", err)
	}
	return nil
}
