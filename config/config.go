// config loads the application config from yaml. The file is an envelope of
// a kind and a definition, the same shape as other kinds of config files kept alongside it:
//
//	kind: pathgrid
//	def:
//	  server: {host: "", port: "8080"}
//	  layout: {name: debug}
//	  search: {diagonal: false, heuristic: manhattan}
package config

import (
	"errors"
	"fmt"

	"pathgrid/grid_world"
	"pathgrid/search"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Kind is the envelope kind of a pathgrid config.
const Kind = "pathgrid"

// EnvPrefix prefixes env vars overriding the server address, e.g. PATHGRID_PORT.
const EnvPrefix = "pathgrid"

type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Layout LayoutConfig `yaml:"layout"`
	Search SearchConfig `yaml:"search"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

// LayoutConfig selects a built-in layout by name ("debug" or "full"), or
// supplies one inline under layers, which takes precedence.
type LayoutConfig struct {
	Name   string     `yaml:"name"`
	Layers [][]string `yaml:"layers"`
}

type SearchConfig struct {
	Diagonal  bool    `yaml:"diagonal"`
	Heuristic string  `yaml:"heuristic"`
	Weight    float64 `yaml:"weight"`
}

var (
	ErrWrongKind     = errors.New("config kind is not " + Kind)
	ErrUnknownLayout = errors.New("unknown layout")
)

// Default is the config used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Layout: LayoutConfig{Name: "debug"},
	}
}

func FromYaml(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.SetEnvPrefix(EnvPrefix)
	var err error
	for _, key := range []string{"host", "port"} {
		if err = vp.BindEnv(key); err != nil {
			return nil, err
		}
	}
	if err = vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}
	if outerConfig.Kind != Kind {
		return nil, fmt.Errorf("%w: %q", ErrWrongKind, outerConfig.Kind)
	}

	var def []byte
	if def, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	cfg := Default()
	if err = yaml.Unmarshal(def, cfg); err != nil {
		return nil, err
	}

	if host := vp.GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port := vp.GetString("port"); port != "" {
		cfg.Server.Port = port
	}

	return cfg, nil
}

// Addr is the listen address, host:port.
func (cfg *Config) Addr() string {
	return cfg.Server.Host + ":" + cfg.Server.Port
}

// GridLayout returns the inline layout if one is given, else the named built-in.
func (cfg *Config) GridLayout() (grid_world.Layout, error) {
	if len(cfg.Layout.Layers) > 0 {
		return grid_world.Layout(cfg.Layout.Layers), nil
	}
	switch cfg.Layout.Name {
	case "", "debug":
		return grid_world.DebugLayout, nil
	case "full":
		return grid_world.FullLayout, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, cfg.Layout.Name)
}

func (cfg *Config) SearchOptions() (search.Options, error) {
	h, err := search.HeuristicByName(cfg.Search.Heuristic)
	if err != nil {
		return search.Options{}, err
	}
	return search.Options{
		Diagonal:  cfg.Search.Diagonal,
		Heuristic: h,
		Weight:    cfg.Search.Weight,
	}, nil
}
