// Package twextract builds the configuration consumed by the
// postcss-extract-media-query plugin: the query map derived from the
// screens table plus the directory the plugin writes split stylesheets to.
package twextract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash"

	"github.com/gotailwindcss/screens"
)

// PluginName is the key the plugin is registered under in a PostCSS config.
const PluginName = "postcss-extract-media-query"

// Output is the plugin's output option.
type Output struct {
	Path string `json:"path"`
}

// Options are the options passed to the plugin.
type Options struct {
	Output  Output            `json:"output"`
	Queries *screens.QueryMap `json:"queries"`
}

// Config is a PostCSS configuration holding only the extraction plugin.
type Config struct {
	Plugins map[string]*Options `json:"plugins"`
}

// New returns a Config for queries writing to outputPath. The queries
// must not be nil.
func New(queries *screens.QueryMap, outputPath string) *Config {
	if queries == nil {
		panic(fmt.Errorf("twextract.New: queries is nil, cannot continue"))
	}
	return &Config{
		Plugins: map[string]*Options{
			PluginName: {
				Output:  Output{Path: outputPath},
				Queries: queries,
			},
		},
	}
}

// Options returns the extraction plugin options.
func (c *Config) Options() *Options {
	return c.Plugins[PluginName]
}

// MarshalIndent returns the configuration as indented JSON with a
// trailing newline.
func (c *Config) MarshalIndent() ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// WriteJSON writes the configuration as a JSON document.
func (c *Config) WriteJSON(w io.Writer) error {
	b, err := c.MarshalIndent()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// WriteJS writes the configuration as a CommonJS module, suitable as a
// postcss.config.js.
func (c *Config) WriteJS(w io.Writer) error {
	b, err := c.render(".js")
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Fingerprint returns a hash of the JSON form, stable for equal configurations.
func (c *Config) Fingerprint() (uint64, error) {
	b, err := c.MarshalIndent()
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(b), nil
}

// WriteFile writes the configuration to path, as a CommonJS module for
// .js and .cjs files and as JSON otherwise. The file is left untouched
// if its content would not change, so tools watching it are not woken
// up needlessly. It reports whether the file was written.
func (c *Config) WriteFile(path string) (bool, error) {
	b, err := c.render(filepath.Ext(path))
	if err != nil {
		return false, err
	}

	if old, err := os.ReadFile(path); err == nil && xxhash.Sum64(old) == xxhash.Sum64(b) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

func (c *Config) render(ext string) ([]byte, error) {
	b, err := c.MarshalIndent()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(ext) {
	case ".js", ".cjs":
		ret := make([]byte, 0, len(b)+32)
		ret = append(ret, "module.exports = "...)
		ret = append(ret, bytes.TrimRight(b, "\n")...)
		ret = append(ret, ";\n"...)
		return ret, nil
	}
	return b, nil
}
