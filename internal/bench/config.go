// Package bench implements the acuckoobench benchmark driver: the external
// collaborator spec.md §6 describes ("CLI (benchmark driver, external
// collaborator)"), loading R/S key sets, driving a FilterPair through
// insert/lookup/rehash rounds, and reporting convergence.
package bench

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mwong775/acuckoo"
)

const configName = ".acuckoobench"
const configType = "yaml"
const envPrefix = "ACUCKOOBENCH"
const envKeySeparator = "_"

// Config carries every tunable of a benchmark run, loadable from flags, an
// optional YAML file, and environment variables — generalized from
// internal/config/loader.go's LoadConfig layering (defaults, then file,
// then env, then flags).
type Config struct {
	N                  uint64  `mapstructure:"n"`
	BitsPerFingerprint int     `mapstructure:"bits_per_fp"`
	MaxLoadFactor      float64 `mapstructure:"max_load_factor"`
	MaxKicks           int     `mapstructure:"max_kicks"`
	HashFamily         string  `mapstructure:"hash_family"`
	Seed               uint64  `mapstructure:"seed"`
	MaxRounds          int     `mapstructure:"max_rounds"`
	OutputDir          string  `mapstructure:"output_dir"`
	Chart              bool    `mapstructure:"chart"`
	MetricsAddr        string  `mapstructure:"metrics_addr"`
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("n", 1000)
	v.SetDefault("bits_per_fp", 12)
	v.SetDefault("max_load_factor", acuckoo.DefaultMaxLoadFactor)
	v.SetDefault("max_kicks", acuckoo.DefaultMaxKicks)
	v.SetDefault("hash_family", "xxhash")
	v.SetDefault("seed", 1)
	v.SetDefault("max_rounds", 200)
	v.SetDefault("output_dir", ".")
	v.SetDefault("chart", false)
	v.SetDefault("metrics_addr", "")
}

// LoadConfig builds a Config from defaults, an optional config file at
// configPath (or ".acuckoobench.yaml" in cwd / $HOME), ACUCKOOBENCH_*
// environment variables, and flags, in ascending precedence.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	// Flag names use CLI-conventional hyphens while config keys use
	// mapstructure's underscores, so each is bound individually rather than
	// through BindPFlags (which would bind under the hyphenated name and
	// never be seen by Unmarshal).
	flagToKey := map[string]string{
		"n":               "n",
		"bits-per-fp":     "bits_per_fp",
		"max-load-factor": "max_load_factor",
		"max-kicks":       "max_kicks",
		"hash-family":     "hash_family",
		"seed":            "seed",
		"max-rounds":      "max_rounds",
		"output-dir":      "output_dir",
		"chart":           "chart",
		"metrics-addr":    "metrics_addr",
	}
	if flags != nil {
		for flagName, key := range flagToKey {
			f := flags.Lookup(flagName)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flagName, err)
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// FilterPairConfig translates the benchmark config into the acuckoo.Config
// the pair is constructed from, sizing capacity at ⌈N / max_load_factor⌉
// per spec.md §6's CLI contract.
func (c Config) FilterPairConfig() acuckoo.Config {
	return acuckoo.Config{
		Capacity:           uint64(math.Ceil(float64(c.N) / c.MaxLoadFactor)),
		BitsPerFingerprint: c.BitsPerFingerprint,
		MaxLoadFactor:      c.MaxLoadFactor,
		MaxKicks:           c.MaxKicks,
		HashFamilyName:     c.HashFamily,
		Seed:               c.Seed,
	}
}
