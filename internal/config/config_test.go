package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()

	if c.Method != "MaxCPBstCAI" {
		t.Errorf("Default().Method = %s, want MaxCPBstCAI", c.Method)
	}
	if c.FitnessPrecision != 2 || c.TablePrecision != 3 {
		t.Errorf("Default() precisions = %d, %d, want 2, 3", c.FitnessPrecision, c.TablePrecision)
	}
	if c.PairFrequencyEpsilon != 0.001 {
		t.Errorf("Default().PairFrequencyEpsilon = %v, want 0.001", c.PairFrequencyEpsilon)
	}
	if c.NormalizationTotal != 124 {
		t.Errorf("Default().NormalizationTotal = %v, want 124", c.NormalizationTotal)
	}
	if c.TaxIDColumn != 2 || c.CodonFrequencyStartColumn != 12 || c.PairFrequencyStartColumn != 8 {
		t.Errorf("Default() columns = %d, %d, %d, want 2, 12, 8", c.TaxIDColumn, c.CodonFrequencyStartColumn, c.PairFrequencyStartColumn)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}

func TestConfig_Copy(t *testing.T) {
	c := Default()
	dst := c.Copy()
	dst.Threshold = 0.1
	dst.Method = "MinRCPBstRCB"

	if c.Threshold == 0.1 || c.Method != "MaxCPBstCAI" {
		t.Errorf("Copy() shares state with the original: %+v", c)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		update  func(c *Config)
		wantErr string
	}{
		{
			"defaults",
			func(c *Config) {},
			"",
		},
		{
			"cai threshold above one",
			func(c *Config) { c.Threshold = 1.2 },
			"outside [0, 1]",
		},
		{
			"rcb threshold above one",
			func(c *Config) { c.Method = "minrcpbstrcb"; c.Threshold = 1.2 },
			"",
		},
		{
			"unknown method",
			func(c *Config) { c.Method = "fastest" },
			"unknown method",
		},
		{
			"no workers",
			func(c *Config) { c.Workers = 0 },
			"workers",
		},
		{
			"zero epsilon",
			func(c *Config) { c.PairFrequencyEpsilon = 0 },
			"pair-frequency-epsilon",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.update(c)

			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func Test_checkUserConfig(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("threshold: 0.5\nworkers: 4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := checkUserConfig(good); err != nil {
		t.Errorf("checkUserConfig(good) = %v, want nil", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("treshold: 0.5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := checkUserConfig(bad); err == nil {
		t.Errorf("checkUserConfig(bad) = nil, want an error for the unknown key")
	}
}
