package main

import (
	"fmt"
	"maps"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/engine"
)

// fileConfig is the on-disk layout:
//
//	[engine]
//	oversample_factor = 4
//	[engine.governor]
//	overload_threshold = 0.8
//	[params]
//	drive_db = 9
type fileConfig struct {
	Engine engine.Config      `toml:"engine"`
	Params map[string]float64 `toml:"params"`
}

// loadConfig reads path on top of the engine defaults. An empty path
// returns the defaults. Unknown keys are logged and ignored.
func loadConfig(path string, log logrus.FieldLogger) (engine.Config, map[string]float64, error) {
	fc := fileConfig{Engine: engine.DefaultConfig(), Params: map[string]float64{}}
	if path == "" {
		return fc.Engine, fc.Params, nil
	}

	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return engine.Config{}, nil, fmt.Errorf("config %s: %w", path, err)
	}

	for _, key := range md.Undecoded() {
		log.WithFields(logrus.Fields{
			"function": "loadConfig",
			"path":     path,
			"key":      key.String(),
		}).Warn("Ignoring unknown config key")
	}

	if fc.Params == nil {
		fc.Params = map[string]float64{}
	}

	return fc.Engine, fc.Params, nil
}

// resolveParams merges overrides into the file values and validates the
// result.
func resolveParams(file, overrides map[string]float64) (engine.Params, error) {
	values := maps.Clone(file)
	if values == nil {
		values = map[string]float64{}
	}

	maps.Copy(values, overrides)

	return engine.ParamsFromValues(values)
}
