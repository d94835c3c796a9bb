package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags, then rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	authorities := make(map[string]bool)
	for i, t := range cfg.Trees {
		if authorities[t.Authority] {
			return fmt.Errorf("trees[%d]: duplicate authority %q", i, t.Authority)
		}
		authorities[t.Authority] = true
	}
	return nil
}

// formatValidationError reports the first failure with its field path.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
