package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override, e.g. PRAYER_TIMER_METHOD.
const EnvPrefix = "PRAYER_TIMER_"

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// LoadEnv loads .env files into the process environment without overriding
// variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides c with every PRAYER_TIMER_* variable that names a valid
// key. Invalid values are reported together.
func (c *Config) ApplyEnv() error {
	var errs []error
	for _, k := range keys {
		v, ok := os.LookupEnv(EnvName(k.name))
		if !ok {
			continue
		}
		if err := k.set(c, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvName(k.name), err))
		}
	}
	return errors.Join(errs...)
}
