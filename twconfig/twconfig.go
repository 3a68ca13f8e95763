// Package twconfig loads a Tailwind configuration file written as YAML or JSON.
//
// Only the parts of the configuration relevant to screens are interpreted:
// content globs, plugins and the screens tables. Other theme keys are kept
// as opaque values.
package twconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/gotailwindcss/screens"
)

// Config mirrors the shape of tailwind.config.js.
type Config struct {
	Content []string       `yaml:"content"`
	Theme   Theme          `yaml:"theme"`
	Plugins []string       `yaml:"plugins"`
	Screens *screens.Table `yaml:"screens,omitempty"` // top-level screens, outside of theme

	// Other holds the remaining top-level keys (darkMode, prefix, presets,
	// plugin options such as daisyui) without interpreting them.
	Other map[string]interface{} `yaml:",inline"`

	// Dir is the directory the configuration was loaded from, or empty.
	Dir string `yaml:"-"`
}

// Theme holds theme.screens and theme.extend, other keys are collected in Other.
type Theme struct {
	Screens *screens.Table         `yaml:"screens,omitempty"`
	Extend  Extend                 `yaml:"extend"`
	Other   map[string]interface{} `yaml:",inline"`
}

// Extend holds theme.extend.
type Extend struct {
	Screens *screens.Table         `yaml:"screens,omitempty"`
	Other   map[string]interface{} `yaml:",inline"`
}

// Load reads and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f, path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	cfg.Dir = filepath.Dir(abs)
	return cfg, nil
}

// Parse decodes a configuration from r. The name is used in error messages only.
func Parse(r io.Reader, name string) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read configuration: %w", name, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("%s: failed to decode configuration data: %w", name, err)
	}
	if err := checkKeys(cfg.Other); err != nil {
		return nil, fmt.Errorf("%s: failed to decode configuration data: %w", name, err)
	}
	return &cfg, nil
}

// knownKeys are the top-level keys interpreted here. A key in Other that is
// close to one of them is most likely a typo that would silently drop the
// setting.
var knownKeys = []string{"content", "theme", "plugins", "screens"}

func checkKeys(other map[string]interface{}) error {
	keys := make([]string, 0, len(other))
	for k := range other {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs error
	for _, k := range keys {
		for _, known := range knownKeys {
			if editDistance(strings.ToLower(k), known) <= 2 {
				errs = multierr.Append(errs, fmt.Errorf("unknown key %q, did you mean %q?", k, known))
				break
			}
		}
	}
	return errs
}

// editDistance returns the Levenshtein distance between a and b.
func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// ResolveScreens returns the effective screens table. theme.screens wins
// over the top-level screens key, and Tailwind's defaults apply when neither
// is set. theme.extend.screens is applied on top.
func (c *Config) ResolveScreens() *screens.Table {
	base := c.Theme.Screens
	if base == nil {
		base = c.Screens
	}
	if base == nil {
		base = screens.DefaultTable()
	}
	if c.Theme.Extend.Screens != nil {
		return base.Extend(c.Theme.Extend.Screens)
	}
	return base
}

// ContentPatterns returns the content globs, with any "./" prefix removed.
// Exclusions keep their "!" prefix.
func (c *Config) ContentPatterns() []string {
	ret := make([]string, 0, len(c.Content))
	for _, p := range c.Content {
		neg := strings.HasPrefix(p, "!")
		p = strings.TrimPrefix(p, "!")
		p = strings.TrimPrefix(filepath.ToSlash(p), "./")
		if neg {
			p = "!" + p
		}
		ret = append(ret, p)
	}
	return ret
}

// Validate reports every problem found in the configuration.
func (c *Config) Validate() error {
	var errs error
	for _, p := range c.ContentPatterns() {
		if p == "" || p == "!" {
			errs = multierr.Append(errs, errors.New("content: empty pattern"))
			continue
		}
		if !doublestar.ValidatePattern(strings.TrimPrefix(p, "!")) {
			errs = multierr.Append(errs, fmt.Errorf("content: invalid pattern %q", p))
		}
	}
	for i, p := range c.Plugins {
		if strings.TrimSpace(p) == "" {
			errs = multierr.Append(errs, fmt.Errorf("plugins: entry %d is empty", i))
		}
	}
	if c.ResolveScreens().Len() == 0 {
		errs = multierr.Append(errs, errors.New("screens: no screens defined"))
	}
	return errs
}
