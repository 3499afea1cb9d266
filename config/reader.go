package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.kartsim.dev/collision/logging"
)

// Read reads a config from the given file, applying overrides on top of it. An empty path reads
// nothing and starts from the defaults.
func Read(filePath string, overrides AttributeMap, logger logging.Logger) (*Config, error) {
	if filePath == "" {
		return FromAttributes("", overrides, logger)
	}
	//nolint:gosec
	buf, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), overrides, logger)
}

// FromReader reads a config from the given reader and specifies where, if applicable, the file
// the reader originated from.
func FromReader(originalPath string, r io.Reader, overrides AttributeMap, logger logging.Logger) (*Config, error) {
	var attrs AttributeMap
	if err := json.NewDecoder(r).Decode(&attrs); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	return FromAttributes(originalPath, attrs.Merge(overrides), logger)
}

// FromAttributes decodes and validates a config from an attribute map.
func FromAttributes(originalPath string, attrs AttributeMap, logger logging.Logger) (*Config, error) {
	conf := Config{ConfigFilePath: originalPath}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &conf,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]interface{}(attrs)); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config")
	}
	if err := conf.Validate(""); err != nil {
		return nil, errors.Wrapf(err, "failed to process Config")
	}

	logger.Debugw("read config",
		"path", originalPath,
		"encoding", conf.Encoding,
		"error_margin", conf.ErrorMargin,
		"max_resolve_iterations", conf.MaxResolveIterations)
	return &conf, nil
}
