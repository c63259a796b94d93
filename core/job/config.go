package job

import (
	"fmt"
	"strings"
	"time"

	"delta-apply/core/reconcile"

	"go.uber.org/zap"
)

// Config describes one sync job: where the desired rows come from, where
// they go, and how the two are matched.
type Config struct {
	// Source is the endpoint holding the desired rows, e.g. "users.csv" or "sql:users".
	Source string `mapstructure:"source" default:""`
	// Target is the endpoint brought in line with Source.
	Target string `mapstructure:"target" default:""`
	// Keys is a comma-separated list of key columns.
	Keys string `mapstructure:"keys" default:"id"`
	// Operations is a comma-separated subset of insert, update and delete.
	// Empty means all three.
	Operations string `mapstructure:"operations" default:""`
	// DuplicatePolicy is fail, keep-first or keep-last.
	DuplicatePolicy string `mapstructure:"duplicate_policy" default:"fail"`
	// FloatTolerance relaxes float comparison when positive.
	FloatTolerance float64 `mapstructure:"float_tolerance" default:"0"`
	// IgnoreColumns is a comma-separated list of columns left out of comparison.
	IgnoreColumns string `mapstructure:"ignore_columns" default:""`
	// CacheTTLSeconds keeps a computed change set for reuse; 0 disables it.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"30"`
	// Delimiter overrides the delimiter of file and object endpoints.
	Delimiter string `mapstructure:"delimiter" default:""`
}

// KeyColumns returns the parsed key list.
func (c Config) KeyColumns() []string {
	return SplitList(c.Keys)
}

// OperationList returns the parsed operation list.
func (c Config) OperationList() []string {
	return SplitList(c.Operations)
}

// Options builds reconcile options from the job settings.
func (c Config) Options(log *zap.Logger) (reconcile.Options, error) {
	policy, err := reconcile.ParseDuplicatePolicy(c.DuplicatePolicy)
	if err != nil {
		return reconcile.Options{}, err
	}
	if c.FloatTolerance < 0 {
		return reconcile.Options{}, fmt.Errorf("float tolerance must not be negative, got %v", c.FloatTolerance)
	}
	if c.CacheTTLSeconds < 0 {
		return reconcile.Options{}, fmt.Errorf("cache ttl must not be negative, got %d", c.CacheTTLSeconds)
	}
	return reconcile.Options{
		DuplicatePolicy: policy,
		FloatTolerance:  c.FloatTolerance,
		IgnoreColumns:   SplitList(c.IgnoreColumns),
		CacheTTL:        time.Duration(c.CacheTTLSeconds) * time.Second,
		Logger:          log,
	}, nil
}

// DelimiterRune returns the configured delimiter, or 0 when unset.
// "tab" and "\t" both mean a tab.
func (c Config) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r := []rune(c.Delimiter)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	return r[0], nil
}

// Validate checks the endpoints and keys are set.
func (c Config) Validate() error {
	if c.Source == "" || c.Target == "" {
		return fmt.Errorf("sync source and target are required")
	}
	if len(c.KeyColumns()) == 0 {
		return fmt.Errorf("at least one key column is required")
	}
	if _, err := reconcile.ParseOperations(c.OperationList()); err != nil {
		return err
	}
	_, err := c.DelimiterRune()
	return err
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
