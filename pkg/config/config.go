// Package config loads stlprim settings from TOML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/chazu/stlprim/pkg/solid"
	"github.com/chazu/stlprim/pkg/stl"
	"github.com/chazu/stlprim/pkg/surface"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the file Load reads when given an empty path.
const DefaultPath = "stlprim.toml"

// Config holds every tunable setting.
type Config struct {
	Output   Output   `toml:"output"`
	Cylinder Cylinder `toml:"cylinder"`
	Verify   Verify   `toml:"verify"`
}

// Output controls STL writing.
type Output struct {
	ASCII     bool   `toml:"ascii"`
	ModelName string `toml:"model_name"`
}

// Cylinder holds defaults applied to cylinders that omit a parameter.
type Cylinder struct {
	Resolution int `toml:"resolution"`
}

// Verify controls surface verification.
type Verify struct {
	Tolerance float64 `toml:"tolerance"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Output:   Output{ModelName: stl.DefaultModelName},
		Cylinder: Cylinder{Resolution: solid.DefaultCylinderResolution},
		Verify:   Verify{Tolerance: surface.DefaultTolerance},
	}
}

// Load overlays the TOML file at path onto Default. An empty path means
// DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data, cfg)
}

// Parse decodes TOML data over base and validates the result.
func Parse(data []byte, base Config) (Config, error) {
	cfg := base
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Cylinder.Resolution < solid.MinCylinderResolution {
		return fmt.Errorf("config: cylinder.resolution must be at least %d, got %d",
			solid.MinCylinderResolution, c.Cylinder.Resolution)
	}
	if c.Verify.Tolerance <= 0 {
		return fmt.Errorf("config: verify.tolerance must be positive, got %g", c.Verify.Tolerance)
	}
	if c.Output.ModelName == "" {
		return fmt.Errorf("config: output.model_name must not be empty")
	}
	return nil
}
