package main

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/combatlab/playstyle/internal/classify"
)

// config holds the ambient defaults flags fall back to.
type config struct {
	Schema     string `koanf:"schema"`
	SchemaFile string `koanf:"schema_file"`
	Out        string `koanf:"out"`
	LogLevel   string `koanf:"log_level"`
}

// loadConfig layers, low to high: built-in defaults, the YAML file named by
// PLAYSTYLE_CONFIG, then PLAYSTYLE_* environment variables
// (PLAYSTYLE_SCHEMA, PLAYSTYLE_OUT, ...). Flags override the result.
func loadConfig() (*config, error) {
	cfg := &config{
		Schema:   classify.DefaultSchema,
		Out:      "analysis_results",
		LogLevel: "info",
	}

	k := koanf.New(".")
	if path := os.Getenv("PLAYSTYLE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}
	envProvider := env.Provider("PLAYSTYLE_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "playstyle_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}
	return cfg, nil
}
