package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc resolves an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load reads the import service configuration from the process
// environment, applies tag defaults and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load over an arbitrary lookup. A variable set to the empty
// string counts as unset.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	for _, f := range envFields(reflect.ValueOf(cfg).Elem(), "") {
		if err := f.apply(lookup); err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// envField is one tagged leaf of Config.
type envField struct {
	path     string // e.g. "Import.CommitWait"
	name     string
	alt      string
	fallback string
	required bool
	value    reflect.Value
}

var durationType = reflect.TypeOf(time.Duration(0))

// envFields flattens the tagged fields of v, depth first. Untagged and
// unexported fields are skipped.
func envFields(v reflect.Value, prefix string) []envField {
	var out []envField
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}
		path := prefix + sf.Name
		if sf.Type.Kind() == reflect.Struct {
			out = append(out, envFields(fv, path+".")...)
			continue
		}
		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		out = append(out, envField{
			path:     path,
			name:     name,
			alt:      sf.Tag.Get("envAlt"),
			fallback: sf.Tag.Get("default"),
			required: sf.Tag.Get("required") == "true",
			value:    fv,
		})
	}
	return out
}

func (f envField) apply(lookup LookupFunc) error {
	raw, _ := lookup(f.name)
	if raw == "" && f.alt != "" {
		raw, _ = lookup(f.alt)
	}
	if raw == "" {
		if f.required {
			return fmt.Errorf("required environment variable %s is not set", f.name)
		}
		raw = f.fallback
	}
	if raw == "" {
		return nil
	}
	if err := parseInto(f.value, raw); err != nil {
		return fmt.Errorf("invalid value for %s=%q (%s): %w", f.name, raw, f.path, err)
	}
	return nil
}

// parseInto stores raw in dst according to its kind. Durations use
// time.ParseDuration; string slices are comma separated with blanks dropped.
func parseInto(dst reflect.Value, raw string) error {
	switch {
	case dst.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		dst.SetInt(int64(d))

	case dst.Kind() == reflect.String:
		dst.SetString(raw)

	case dst.Kind() == reflect.Int || dst.Kind() == reflect.Int32 || dst.Kind() == reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		dst.SetInt(n)

	case dst.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		dst.SetBool(b)

	case dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.String:
		var items []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		dst.Set(reflect.ValueOf(items))

	default:
		return fmt.Errorf("unsupported field type: %s", dst.Type())
	}
	return nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.Database.problems()...)
	errs = append(errs, c.Server.problems()...)
	errs = append(errs, c.Import.problems()...)
	errs = append(errs, c.Rate.problems()...)
	errs = append(errs, c.Security.problems()...)
	errs = append(errs, c.Logging.problems()...)

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Sprintf("METRICS_PATH (%q) must start with /", c.Metrics.Path))
	}

	// The commit handler writes its response only after the commit ends.
	if c.Server.WriteTimeout > 0 && c.Import.CommitTimeout > c.Server.WriteTimeout {
		errs = append(errs, fmt.Sprintf("IMPORT_COMMIT_TIMEOUT (%s) must not exceed SERVER_WRITE_TIMEOUT (%s)",
			c.Import.CommitTimeout, c.Server.WriteTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (d DatabaseConfig) problems() []string {
	var errs []string
	if d.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if d.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if d.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if d.MaxConns < d.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", d.MaxConns, d.MinConns))
	}
	return errs
}

func (s ServerConfig) problems() []string {
	var errs []string
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", s.Port))
	}
	if s.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, "SERVER_WRITE_TIMEOUT must be non-negative")
	}
	if s.IdleTimeout < 0 {
		errs = append(errs, "SERVER_IDLE_TIMEOUT must be non-negative")
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	return errs
}

func (i ImportConfig) problems() []string {
	var errs []string
	positive := []struct {
		name string
		ok   bool
	}{
		{"IMPORT_MAX_FILE_SIZE", i.MaxFileSize > 0},
		{"IMPORT_HEADER_SCAN_ROWS", i.HeaderScanRows > 0},
		{"IMPORT_SEQUENCE_SEED", i.SequenceSeed > 0},
		{"IMPORT_MAX_CONCURRENT_COMMITS", i.MaxConcurrentCommits > 0},
		{"IMPORT_COMMIT_WAIT", i.CommitWait > 0},
		{"IMPORT_COMMIT_TIMEOUT", i.CommitTimeout > 0},
		{"IMPORT_SESSION_TTL", i.SessionTTL > 0},
		{"IMPORT_SWEEP_INTERVAL", i.SweepInterval > 0},
	}
	for _, p := range positive {
		if !p.ok {
			errs = append(errs, p.name+" must be positive")
		}
	}
	if i.SweepInterval > 0 && i.SessionTTL > 0 && i.SweepInterval > i.SessionTTL {
		errs = append(errs, fmt.Sprintf("IMPORT_SWEEP_INTERVAL (%s) must not exceed IMPORT_SESSION_TTL (%s)",
			i.SweepInterval, i.SessionTTL))
	}
	return errs
}

func (r RateLimitConfig) problems() []string {
	if !r.Enabled {
		return nil
	}
	var errs []string
	if r.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if r.UploadLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
	}
	return errs
}

func (s SecurityConfig) problems() []string {
	if s.RequireAPIKey && len(s.APIKeys) == 0 {
		return []string{"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth"}
	}
	return nil
}

func (l LoggingConfig) problems() []string {
	var errs []string
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", l.Level))
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", l.Format))
	}
	return errs
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Import: {MaxFileSize: %d, MaxConcurrentCommits: %d, SessionTTL: %s}, ",
		c.Import.MaxFileSize, c.Import.MaxConcurrentCommits, c.Import.SessionTTL))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d configured}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
