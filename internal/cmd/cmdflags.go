package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Lattice-Automation/codonopt/internal/codonopt"
	"github.com/Lattice-Automation/codonopt/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

// extractString returns a string flag, failing the command on a lookup error
func extractString(cmd *cobra.Command, name string) (string, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s arg: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

// extractSettings applies the command line overrides of an optimization to a
// copy of the settings
func extractSettings(cmd *cobra.Command, conf *config.Config) (*config.Config, error) {
	conf = conf.Copy()

	flags := cmd.Flags()
	if flags.Changed("method") {
		method, err := flags.GetString("method")
		if err != nil {
			return nil, err
		}
		conf.Method = method
	}
	if flags.Changed("threshold") {
		threshold, err := flags.GetFloat64("threshold")
		if err != nil {
			return nil, err
		}
		conf.Threshold = threshold
	}
	if flags.Changed("workers") {
		workers, err := flags.GetInt("workers")
		if err != nil {
			return nil, err
		}
		conf.Workers = workers
	}
	if flags.Changed("time-limit") {
		limit, err := flags.GetFloat64("time-limit")
		if err != nil {
			return nil, err
		}
		conf.SolverTimeLimit = limit
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// extractInputs reads proteins from the --in files and from the arguments
func extractInputs(cmd *cobra.Command, args []string) ([]codonopt.Input, error) {
	in, err := extractString(cmd, "in")
	if err != nil {
		return nil, err
	}

	var inputs []codonopt.Input
	if locations := splitStringOn(in, []rune{' ', ','}); len(locations) > 0 {
		if inputs, err = codonopt.ReadInputs(locations); err != nil {
			return nil, err
		}
	}
	inputs = append(inputs, codonopt.InputsFromArgs(args)...)

	if len(inputs) == 0 {
		return nil, fmt.Errorf("no protein sequences, pass them as arguments or with --in")
	}
	return inputs, nil
}

// extractOutputFormat returns the output format from the --out-fmt flag, or
// from the output file's extension when no format is set
func extractOutputFormat(cmd *cobra.Command) (string, error) {
	format, err := extractString(cmd, "out-fmt")
	if err != nil {
		return "", err
	}
	if format == "" {
		out, _ := cmd.Flags().GetString("out")
		if guess, err := codonopt.ParseFormat(strings.TrimPrefix(filepath.Ext(out), ".")); err == nil {
			return guess, nil
		}
	}
	return codonopt.ParseFormat(format)
}

// adjustOutput adds the format's extension to an output file name without one.
func adjustOutput(name, format string) string {
	if name == "" || filepath.Ext(name) != "" {
		return name
	}
	return name + "." + strings.ToLower(format)
}

func splitStringOn(s string, separators []rune) []string {
	splitFunc := func(c rune) bool {
		return slices.Contains(separators, c)
	}

	return strings.FieldsFunc(s, splitFunc)
}
