package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Server struct {
	ListenAddress string        `yaml:"listen_address"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
}

type LokiConfig struct {
	URL        string        `yaml:"url"`       // http://loki:3100, empty disables the sink
	TenantID   string        `yaml:"tenant_id"` // optional multi-tenancy
	Job        string        `yaml:"job"`       // label value, default: lifsheet
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"user_agent"`
	MaxRetries int           `yaml:"max_retries"`
	Backoff    time.Duration `yaml:"backoff"`     // initial backoff (e.g. 500ms)
	MaxBackoff time.Duration `yaml:"max_backoff"` // cap (e.g. 5s)
}

type VictoriaConfig struct {
	URL        string        `yaml:"url"` // empty disables the sink
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"user_agent"`
	MaxRetries int           `yaml:"max_retries"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// OutputTarget is one on-disk report output.
type OutputTarget struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Output struct {
	PDF OutputTarget `yaml:"pdf"`
	PNG OutputTarget `yaml:"png"`
}

type Report struct {
	DiscrepancyThreshold float64 `yaml:"discrepancy_threshold"` // seconds
	RenderScale          float64 `yaml:"render_scale"`
}

type MetricsConfig struct {
	Enable bool `yaml:"enable"`
}

type DedupConfig struct {
	Enable  bool          `yaml:"enable"`
	TTL     time.Duration `yaml:"ttl"`      // e.g. 168h (7d)
	MaxKeys int           `yaml:"max_keys"` // cap to bound memory
}

type Config struct {
	SearchPaths []string       `yaml:"search_paths"`
	Filter      string         `yaml:"filter"`
	Output      Output         `yaml:"output"`
	Report      Report         `yaml:"report"`
	Server      Server         `yaml:"server"`
	Loki        LokiConfig     `yaml:"loki"`
	Victoria    VictoriaConfig `yaml:"victoria"`
	Dedup       DedupConfig    `yaml:"dedup"`
	StatePath   string         `yaml:"state_path"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{
		Output:  Output{PDF: OutputTarget{Enabled: true}},
		Dedup:   DedupConfig{Enable: true},
		Metrics: MetricsConfig{Enable: true},
	}
	c.applyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over Default, so keys the file omits keep their default
// values, booleans included.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if len(c.SearchPaths) == 0 {
		c.SearchPaths = []string{"./lif"}
	}
	if c.Output.PDF.Path == "" {
		c.Output.PDF.Path = "./out"
	}
	if c.Output.PNG.Path == "" {
		c.Output.PNG.Path = "./out/png"
	}
	if c.Report.DiscrepancyThreshold == 0 {
		c.Report.DiscrepancyThreshold = 0.4
	}
	if c.Report.RenderScale == 0 {
		c.Report.RenderScale = 4.0
	}
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":9110"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Loki.Job == "" {
		c.Loki.Job = "lifsheet"
	}
	if c.Loki.Timeout == 0 {
		c.Loki.Timeout = 10 * time.Second
	}
	if c.Loki.MaxRetries == 0 {
		c.Loki.MaxRetries = 3
	}
	if c.Loki.Backoff == 0 {
		c.Loki.Backoff = 500 * time.Millisecond
	}
	if c.Loki.MaxBackoff == 0 {
		c.Loki.MaxBackoff = 5 * time.Second
	}
	if c.Victoria.Timeout == 0 {
		c.Victoria.Timeout = 10 * time.Second
	}
	if c.Victoria.MaxRetries == 0 {
		c.Victoria.MaxRetries = 3
	}
	if c.Victoria.Backoff == 0 {
		c.Victoria.Backoff = 500 * time.Millisecond
	}
	if c.Victoria.MaxBackoff == 0 {
		c.Victoria.MaxBackoff = 5 * time.Second
	}
	if c.Dedup.TTL == 0 {
		c.Dedup.TTL = 168 * time.Hour
	}
	if c.Dedup.MaxKeys == 0 {
		c.Dedup.MaxKeys = 10000
	}
	if c.StatePath == "" {
		c.StatePath = "./lifsheet-state.json"
	}
}

func (c *Config) Validate() error {
	if c.Report.DiscrepancyThreshold < 0 {
		return errors.New("report.discrepancy_threshold must not be negative")
	}
	if c.Report.RenderScale < 0 {
		return errors.New("report.render_scale must not be negative")
	}
	for _, p := range c.SearchPaths {
		if p == "" {
			return errors.New("search_paths must not contain empty entries")
		}
	}
	return nil
}
