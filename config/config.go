package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/virtos/core/library"
	"github.com/kilianp07/virtos/core/metrics"
	"github.com/kilianp07/virtos/core/model"
	"github.com/kilianp07/virtos/infra/mqtt"
)

// EnvPrefix marks environment overrides. K_RUN_LOG__PATH sets run_log.path.
const EnvPrefix = "K_"

type Config struct {
	Log     LogConfig      `json:"log"`
	Library LibraryConfig  `json:"library"`
	RunLog  RunLogConfig   `json:"run_log"`
	Metrics metrics.Config `json:"metrics"`
	MQTT    mqtt.Config    `json:"mqtt"`
	Cache   CacheConfig    `json:"cache"`
	Server  ServerConfig   `json:"server"`
	// Site is the default site simulated when a command is given no site file.
	Site *model.SiteSpec `json:"site"`
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return kjson.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
}

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are ignored; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration file at path, applies K_ environment
// overrides, fills defaults and validates every section. An empty path
// yields the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.applyMQTTDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Log.SetDefaults()
	c.Library.SetDefaults()
	c.RunLog.SetDefaults()
	c.Cache.SetDefaults()
	c.Server.SetDefaults()
}

// Validate checks every section and reports all problems.
func (c Config) Validate() error {
	return errors.Join(
		c.Log.Validate(),
		c.Library.Validate(),
		c.RunLog.Validate(),
		c.Cache.Validate(),
		c.Server.Validate(),
	)
}

// applyMQTTDefaults uses the mqtt section as the base settings of every
// mqtt metrics sink; keys in the sink's own conf win.
func (c *Config) applyMQTTDefaults() error {
	var base map[string]any
	for i, s := range c.Metrics.Sinks {
		if !strings.EqualFold(strings.TrimSpace(s.Type), "mqtt") {
			continue
		}
		if base == nil {
			raw, err := json.Marshal(c.MQTT)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(raw, &base); err != nil {
				return err
			}
		}
		merged := make(map[string]any, len(base)+len(s.Conf))
		for k, v := range base {
			merged[k] = v
		}
		for k, v := range s.Conf {
			merged[k] = v
		}
		c.Metrics.Sinks[i].Conf = merged
	}
	return nil
}

// LoadSite reads a SiteSpec from a YAML or JSON file.
func LoadSite(path string) (model.SiteSpec, error) {
	var site model.SiteSpec
	if err := decodeFile(path, "", &site); err != nil {
		return site, fmt.Errorf("site: %w", err)
	}
	return site, nil
}

// LoadRecords reads component records from the "records" list of a YAML or
// JSON file, the layout written by the library export command.
func LoadRecords(path string) ([]library.ComponentRecord, error) {
	var recs []library.ComponentRecord
	if err := decodeFile(path, "records", &recs); err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	return recs, nil
}

func decodeFile(path, key string, out any) error {
	parser, err := parserFor(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := k.UnmarshalWithConf(key, out, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
