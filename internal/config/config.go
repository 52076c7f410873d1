// Package config is for app wide settings
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

var (
	home, _ = homedir.Dir()

	// codonoptDir is the root directory where settings and organism tables live
	codonoptDir = filepath.Join(home, ".codonopt")

	// configPath is the path to a local/default config file
	configPath = filepath.Join(codonoptDir, "config.yaml")

	// DatabaseDir is the path to the directory of organism statistics tables.
	DatabaseDir = filepath.Join(codonoptDir, "db")
)

// DefaultConfig is the initial client config that's embedded with codonopt
// and installed on the first run
//
//go:embed config.yaml
var DefaultConfig []byte

// Config is the Root-level settings struct and is a mix
// of settings available in config.yaml and those
// available from the command line
type Config struct {
	// the config file's version
	Version string `mapstructure:"version"`

	// Method is the optimization model, MaxCPBstCAI or MinRCPBstRCB
	Method string `mapstructure:"method"`

	// Threshold is the CAI floor of MaxCPBstCAI or the RCB ceiling of MinRCPBstRCB
	Threshold float64 `mapstructure:"threshold"`

	// FitnessPrecision is the number of decimals fitness values are rounded to
	FitnessPrecision int `mapstructure:"fitness-precision"`

	// TablePrecision is the number of decimals of the persisted pair tables
	TablePrecision int `mapstructure:"table-precision"`

	// PairFrequencyEpsilon replaces zero codon pair counts
	PairFrequencyEpsilon float64 `mapstructure:"pair-frequency-epsilon"`

	// NormalizeFrequencies rescales raw counts to NormalizationTotal before a build
	NormalizeFrequencies bool `mapstructure:"normalize-frequencies"`

	// NormalizationTotal is what normalized count tables sum to
	NormalizationTotal float64 `mapstructure:"normalization-total"`

	// TaxIDColumn is the 0-based column of the taxonomy id in the count databases
	TaxIDColumn int `mapstructure:"taxid-column"`

	// CodonFrequencyStartColumn is the first codon count column of the codon database
	CodonFrequencyStartColumn int `mapstructure:"codon-frequency-start-column"`

	// PairFrequencyStartColumn is the first codon pair count column of the pair database
	PairFrequencyStartColumn int `mapstructure:"pair-frequency-start-column"`

	// SolverTimeLimit is the seconds a single solve may take, 0 for no limit
	SolverTimeLimit float64 `mapstructure:"solver-time-limit"`

	// SolverMaxNodes is the number of branch and bound nodes a single solve may explore, 0 for no limit
	SolverMaxNodes int `mapstructure:"solver-max-nodes"`

	// SolverGap is the relative optimality gap at which a solve stops
	SolverGap float64 `mapstructure:"solver-gap"`

	// Workers is the number of sequences solved at once
	Workers int `mapstructure:"workers"`
}

// Setup checks that the codonopt data directory exists.
// It creates one and writes the default config file to it otherwise.
func Setup() {
	for _, dir := range []string{codonoptDir, DatabaseDir} {
		_, err := os.Stat(dir)
		if os.IsNotExist(err) {
			if err = os.MkdirAll(dir, 0755); err != nil {
				log.Fatal(err)
			}
		} else if err != nil {
			log.Fatal(err)
		}
	}

	// copy the default config file if it doesn't exist
	_, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		if err = os.WriteFile(configPath, DefaultConfig, 0644); err != nil {
			log.Fatal(err)
		}
	} else if err != nil {
		log.Fatal(err)
	}
}

// New returns a new Config struct populated by settings from
// config.yaml in the codonopt directory, merged with some other
// settings file the user points to with the "--config" flag
func New() *Config {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}

	if userConfig := viper.GetString("config"); userConfig != "" {
		if err := checkUserConfig(userConfig); err != nil {
			log.Fatal(err)
		}

		viper.SetConfigFile(userConfig)
		if err := viper.MergeInConfig(); err != nil {
			log.Fatal(err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("failed to decode settings file %s: %v", viper.ConfigFileUsed(), err)
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("invalid settings in %s: %v", viper.ConfigFileUsed(), err)
	}
	return config
}

// Default returns the embedded default settings without touching the
// filesystem.
func Default() *Config {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(DefaultConfig)); err != nil {
		log.Fatal(err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		log.Fatal(err)
	}
	return config
}

// checkUserConfig decodes a user's settings file strictly so that
// misspelled keys are reported instead of silently ignored
func checkUserConfig(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	userData := make(map[string]interface{})
	if err := yaml.NewDecoder(file).Decode(userData); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &Config{},
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(userData); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Copy returns a deep copy of the settings, for per-run overrides.
func (c *Config) Copy() *Config {
	dst := &Config{}
	if err := copier.Copy(dst, c); err != nil {
		log.Fatal(err)
	}
	return dst
}

// Validate checks for nonsense settings.
func (c *Config) Validate() (err error) {
	switch strings.ToLower(c.Method) {
	case "maxcpbstcai":
		if c.Threshold < 0 || c.Threshold > 1 {
			err = multierr.Append(err, fmt.Errorf("threshold %g is outside [0, 1]", c.Threshold))
		}
	case "minrcpbstrcb":
		if c.Threshold < 0 {
			err = multierr.Append(err, fmt.Errorf("threshold %g is negative", c.Threshold))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown method %q", c.Method))
	}

	if c.FitnessPrecision < 0 {
		err = multierr.Append(err, fmt.Errorf("fitness-precision %d is negative", c.FitnessPrecision))
	}
	if c.TablePrecision < 0 {
		err = multierr.Append(err, fmt.Errorf("table-precision %d is negative", c.TablePrecision))
	}
	if c.PairFrequencyEpsilon <= 0 {
		err = multierr.Append(err, fmt.Errorf("pair-frequency-epsilon %g must be positive", c.PairFrequencyEpsilon))
	}
	if c.NormalizeFrequencies && c.NormalizationTotal <= 0 {
		err = multierr.Append(err, fmt.Errorf("normalization-total %g must be positive", c.NormalizationTotal))
	}
	if c.TaxIDColumn < 0 || c.CodonFrequencyStartColumn < 0 || c.PairFrequencyStartColumn < 0 {
		err = multierr.Append(err, fmt.Errorf("database columns must not be negative"))
	}
	if c.SolverTimeLimit < 0 || c.SolverMaxNodes < 0 || c.SolverGap < 0 {
		err = multierr.Append(err, fmt.Errorf("solver limits must not be negative"))
	}
	if c.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("workers %d must be at least 1", c.Workers))
	}
	return err
}
