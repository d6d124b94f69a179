package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
	"github.com/robfig/cron/v3"
)

// Validate reports every invalid field as criterio.FieldErrors.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("dir", c.Dir, isDirectory),
		criterio.Run("listen", c.Listen, notEmpty),
		criterio.Run("timezone", c.Timezone, validTimezone),
		criterio.Run("week_start", c.WeekStart, validWeekStart),
		criterio.Run("refresh", c.RefreshCron, validCron),
		c.validatePatterns(),
		c.validateTodoKeywords(),
		c.validateBasicAuth(),
	)
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func isDirectory(path string) error {
	if path == "" {
		return fmt.Errorf("cannot be empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func validTimezone(name string) error {
	if name == "" || name == "Local" {
		return nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("unknown timezone %q", name)
	}
	return nil
}

func validWeekStart(s string) error {
	switch s {
	case "monday", "sunday":
		return nil
	}
	return fmt.Errorf("must be monday or sunday, got %q", s)
}

func validCron(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}

func (c *Config) validatePatterns() error {
	var errs criterio.FieldErrorsBuilder
	for i, p := range c.Include {
		if !doublestar.ValidatePattern(p) {
			errs = errs.Append(fmt.Sprintf("include[%d]", i), fmt.Errorf("invalid pattern %q", p))
		}
	}
	for i, p := range c.Exclude {
		if !doublestar.ValidatePattern(p) {
			errs = errs.Append(fmt.Sprintf("exclude[%d]", i), fmt.Errorf("invalid pattern %q", p))
		}
	}
	return errs.ToError()
}

func (c *Config) validateTodoKeywords() error {
	var errs criterio.FieldErrorsBuilder
	for i, k := range c.TodoKeywords {
		if k == "" || strings.ContainsAny(k, " \t*") {
			errs = errs.Append(fmt.Sprintf("todo_keywords[%d]", i), fmt.Errorf("invalid keyword %q", k))
		}
	}
	return errs.ToError()
}

func (c *Config) validateBasicAuth() error {
	if c.BasicAuth == nil {
		return nil
	}
	var errs criterio.FieldErrorsBuilder
	if c.BasicAuth.Username == "" {
		errs = errs.Append("basic_auth.username", fmt.Errorf("cannot be empty"))
	}
	if c.BasicAuth.Password == "" {
		errs = errs.Append("basic_auth.password", fmt.Errorf("cannot be empty"))
	}
	return errs.ToError()
}
