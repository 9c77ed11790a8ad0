// Package config loads folio settings from YAML and FOLIO_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"finitefield.org/portfolio-web/internal/fragments"
	"finitefield.org/portfolio-web/internal/routes"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: FOLIO_SITE__BASE_URL sets site.base_url.
const EnvPrefix = "FOLIO_"

// Config is the top-level configuration, corresponding to folio.yml.
type Config struct {
	Site    SiteConfig    `yaml:"site" koanf:"site"`
	Server  ServerConfig  `yaml:"server" koanf:"server"`
	Sitemap SitemapConfig `yaml:"sitemap" koanf:"sitemap"`
	Build   BuildConfig   `yaml:"build" koanf:"build"`
	Log     LogConfig     `yaml:"log" koanf:"log"`
}

// SiteConfig describes the site the router loads fragments from.
type SiteConfig struct {
	BaseURL       string        `yaml:"base_url" koanf:"base_url"`
	Shell         string        `yaml:"shell" koanf:"shell"`
	ContentRegion string        `yaml:"content_region" koanf:"content_region"`
	Revision      string        `yaml:"revision" koanf:"revision"`
	RoutesFile    string        `yaml:"routes_file" koanf:"routes_file"`
	Sanitize      bool          `yaml:"sanitize" koanf:"sanitize"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" koanf:"fetch_timeout"`
}

// ServerConfig configures the static file server.
type ServerConfig struct {
	Addr         string        `yaml:"addr" koanf:"addr"`
	Dir          string        `yaml:"dir" koanf:"dir"`
	CORSOrigins  []string      `yaml:"cors_origins" koanf:"cors_origins"`
	ReadTimeout  time.Duration `yaml:"read_timeout" koanf:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" koanf:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" koanf:"idle_timeout"`
}

// SitemapConfig configures sitemap generation.
type SitemapConfig struct {
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	Output  string `yaml:"output" koanf:"output"`
}

// BuildConfig locates the sources of generated site content. Relative paths
// resolve against the working directory.
type BuildConfig struct {
	BlogSource   string `yaml:"blog_source" koanf:"blog_source"`
	PostTemplate string `yaml:"post_template" koanf:"post_template"`
	DataDir      string `yaml:"data_dir" koanf:"data_dir"`
}

// LogConfig selects log level and encoding.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:       "http://localhost:8080/",
			Shell:         "index.html",
			ContentRegion: "content-area",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			Dir:          ".",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Sitemap: SitemapConfig{
			Output: "sitemap.xml",
		},
		Build: BuildConfig{
			BlogSource: "data/blog",
			DataDir:    "data",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from the given YAML file, when it exists, then
// overlays environment variable overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		if key == "server.cors_origins" {
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ValidationError lists configuration fields that are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Validate checks the settings needed to load pages.
func (c *Config) Validate() error {
	var bad []string
	if _, err := fragments.New(c.Site.BaseURL); err != nil {
		bad = append(bad, "site.base_url")
	}
	if strings.TrimSpace(c.Site.Shell) == "" {
		bad = append(bad, "site.shell")
	}
	if strings.TrimSpace(c.Site.ContentRegion) == "" {
		bad = append(bad, "site.content_region")
	}
	if c.Site.FetchTimeout < 0 {
		bad = append(bad, "site.fetch_timeout")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		bad = append(bad, "server timeouts")
	}
	if len(bad) > 0 {
		return &ValidationError{fields: bad}
	}
	return nil
}

// RouteTable returns the configured route table, or the default one.
func (c *Config) RouteTable() (routes.Table, error) {
	if strings.TrimSpace(c.Site.RoutesFile) == "" {
		return routes.Default(), nil
	}
	return routes.LoadFile(c.Site.RoutesFile)
}
