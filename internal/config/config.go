// Package config loads and interprets shout's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the configuration filename looked for when none is given.
const DefaultFile = "shout.toml"

// ErrNotFound is returned by [Load] when the configuration file does not
// exist. Callers treat this as "use the defaults", not as a failure.
var ErrNotFound = errors.New("config file not found")

// file is the raw decoded shape. The silenced values stay as primitives
// because their type is deliberately loose: validation wants to see exactly
// what the user wrote, including the wrong shapes.
type file struct {
	Routes          map[string]string `toml:"routes"`
	StringIfInvalid string            `toml:"string-if-invalid"`
	Silenced        toml.Primitive    `toml:"silenced"`
	SilencedURLs    toml.Primitive    `toml:"silenced-urls"`
	Debug           bool              `toml:"debug"`
	ShoutVariables  *bool             `toml:"shout-variables"`
	ShoutURLs       *bool             `toml:"shout-urls"`
}

// Config is the loaded and interpreted configuration.
type Config struct {
	// Routes maps route names to URL patterns for tag reversal.
	Routes map[string]string

	// StringIfInvalid is the engine's unhooked replacement text for a
	// failed lookup.
	StringIfInvalid string

	// Debug is the master switch. When off, both diagnostics are forced
	// off whatever the individual keys say, matching the rule that loud
	// failures belong in development, not production.
	Debug bool

	silenced       any
	silencedURLs   any
	shoutVariables *bool
	shoutURLs      *bool
}

// Load reads and decodes the configuration at path. A missing file returns
// an error satisfying errors.Is with [ErrNotFound].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return nil, fmt.Errorf("could not open config: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes configuration from r.
func Parse(r io.Reader) (*Config, error) {
	var raw file

	meta, err := toml.NewDecoder(r).Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}

	cfg := &Config{
		Routes:          raw.Routes,
		StringIfInvalid: raw.StringIfInvalid,
		Debug:           raw.Debug,
		shoutVariables:  raw.ShoutVariables,
		shoutURLs:       raw.ShoutURLs,
	}

	if meta.IsDefined("silenced") {
		if err := meta.PrimitiveDecode(raw.Silenced, &cfg.silenced); err != nil {
			return nil, fmt.Errorf("could not decode silenced: %w", err)
		}
	}

	if meta.IsDefined("silenced-urls") {
		if err := meta.PrimitiveDecode(raw.SilencedURLs, &cfg.silencedURLs); err != nil {
			return nil, fmt.Errorf("could not decode silenced-urls: %w", err)
		}
	}

	return cfg, nil
}

// Default returns the configuration used when no file exists: debug on so
// the tool is useful out of the box, everything else zero.
func Default() *Config {
	return &Config{Debug: true}
}

// ShoutVariables reports whether the variable and conditional diagnostics
// are enabled: explicitly set if the key is present, otherwise following
// Debug, and always off when Debug is off.
func (c *Config) ShoutVariables() bool {
	if !c.Debug {
		return false
	}

	if c.shoutVariables != nil {
		return *c.shoutVariables
	}

	return true
}

// ShoutURLs reports whether the url binding diagnostic is enabled, with the
// same defaulting as [Config.ShoutVariables].
func (c *Config) ShoutURLs() bool {
	if !c.Debug {
		return false
	}

	if c.shoutURLs != nil {
		return *c.shoutURLs
	}

	return true
}

// Silenced returns the raw silenced value exactly as written, for
// validation and rule building. It is nil when the key is absent.
func (c *Config) Silenced() any {
	return c.silenced
}

// SilencedURLs returns the raw silenced-urls value exactly as written. It
// is nil when the key is absent.
func (c *Config) SilencedURLs() any {
	return c.silencedURLs
}
