package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if strings.Count(cfg.Telegram.Greeting, "%s") != 1 {
		return fmt.Errorf("invalid configuration: telegram.greeting must contain exactly one %%s")
	}
	if strings.Count(cfg.Notify.Template, "%s") != 2 {
		return fmt.Errorf("invalid configuration: notify.template must contain exactly two %%s")
	}
	return nil
}
