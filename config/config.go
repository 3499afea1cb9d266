// Package config defines the settings of the collision tools and how they are read.
package config

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.kartsim.dev/collision/collision"
	"go.kartsim.dev/collision/kcl"
	"go.kartsim.dev/collision/logging"
	"go.kartsim.dev/collision/motion"
)

// Config describes how geometry is read and how queries resolve motion.
type Config struct {
	// Encoding of geometry files, see kcl.ParseEncoding.
	Encoding string `json:"encoding"`

	// ErrorMargin is the barycentric slack used by raycasts.
	ErrorMargin float64 `json:"error_margin"`

	// MaxResolveIterations bounds the sweeps of one move and slide.
	MaxResolveIterations int `json:"max_resolve_iterations"`

	Debug bool `json:"debug"`

	// LogFile, when set, receives a copy of every log line. The file is rotated by size.
	LogFile string `json:"log_file"`

	// Log sets the level of individual loggers by name pattern.
	Log []logging.LoggerPatternConfig `json:"log"`

	Octree OctreeConfig `json:"octree"`

	ConfigFilePath string `json:"-"`
}

// OctreeConfig controls how geometry converted from other formats is indexed.
type OctreeConfig struct {
	MaxPlanesPerLeaf int    `json:"max_planes_per_leaf"`
	MinCellShift     uint32 `json:"min_cell_shift"`
	BlockShift       uint32 `json:"block_shift"`
}

// Default returns a config with every field at its default.
func Default() *Config {
	conf := &Config{}
	if err := conf.Validate(""); err != nil {
		panic(err)
	}
	return conf
}

// Validate ensures all parts of the config are valid and fills in defaults.
func (conf *Config) Validate(path string) error {
	enc, err := kcl.ParseEncoding(conf.Encoding)
	if err != nil {
		return NewConfigValidationError(joinPath(path, "encoding"), err)
	}
	conf.Encoding = enc.String()

	if conf.ErrorMargin < 0 {
		return NewConfigValidationError(joinPath(path, "error_margin"), errors.New("must not be negative"))
	}
	if conf.ErrorMargin == 0 {
		conf.ErrorMargin = collision.DefaultErrorMargin
	}

	if conf.MaxResolveIterations < 0 {
		return NewConfigValidationError(joinPath(path, "max_resolve_iterations"), errors.New("must not be negative"))
	}
	if conf.MaxResolveIterations == 0 {
		conf.MaxResolveIterations = motion.DefaultMaxIterations
	}

	for i, lpc := range conf.Log {
		logPath := joinPath(path, fmt.Sprintf("log.%d", i))
		if !logging.ValidatePattern(lpc.Pattern) {
			return NewConfigValidationError(logPath, errors.Errorf("invalid logger pattern %q", lpc.Pattern))
		}
		if _, err := logging.LevelFromString(lpc.Level); err != nil {
			return NewConfigValidationError(logPath, err)
		}
	}

	return conf.Octree.Validate(joinPath(path, "octree"))
}

// Validate fills in defaults and checks shifts.
func (conf *OctreeConfig) Validate(path string) error {
	defaults := kcl.DefaultBuildOptions()
	if conf.MaxPlanesPerLeaf < 0 {
		return NewConfigValidationError(joinPath(path, "max_planes_per_leaf"), errors.New("must not be negative"))
	}
	if conf.MaxPlanesPerLeaf == 0 {
		conf.MaxPlanesPerLeaf = defaults.MaxPlanesPerLeaf
	}
	if conf.MinCellShift == 0 {
		conf.MinCellShift = defaults.MinCellShift
	}
	if conf.BlockShift > 31 {
		return NewConfigValidationError(joinPath(path, "block_shift"), errors.Errorf("%d exceeds 31", conf.BlockShift))
	}
	if conf.BlockShift != 0 && conf.BlockShift < conf.MinCellShift {
		return NewConfigValidationError(joinPath(path, "block_shift"),
			errors.Errorf("%d is smaller than min_cell_shift %d", conf.BlockShift, conf.MinCellShift))
	}
	return nil
}

// GeometryEncoding returns the parsed encoding. Call after Validate.
func (conf *Config) GeometryEncoding() kcl.Encoding {
	enc, err := kcl.ParseEncoding(conf.Encoding)
	if err != nil {
		return kcl.FixedPointLE
	}
	return enc
}

// BuildOptions returns the octree options for kcl.Build.
func (conf *Config) BuildOptions() kcl.BuildOptions {
	opts := kcl.DefaultBuildOptions()
	opts.MaxPlanesPerLeaf = conf.Octree.MaxPlanesPerLeaf
	opts.MinCellShift = conf.Octree.MinCellShift
	opts.BlockShift = conf.Octree.BlockShift
	return opts
}

// MotionOptions returns move and slide options for a body with the given radii.
func (conf *Config) MotionOptions(radii r3.Vector) motion.Options {
	return motion.Options{
		Radii:         radii,
		MaxIterations: conf.MaxResolveIterations,
	}
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
