package cmd

import (
	"log"

	"github.com/Lattice-Automation/codonopt/internal/codonopt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use: "codonopt",
	Short: `codonopt

Codon optimization with mixed integer linear programming. Redesign the DNA of
proteins for an organism's codon and codon pair usage`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			codonopt.SetVerboseLogging()
		}
	},
}

func init() {
	RootCmd.PersistentFlags().Bool("verbose", false, "log debug messages, including solver progress")

	// config is an optional parameter for a settings file (that overrides defaults)
	RootCmd.PersistentFlags().StringP("config", "c", "", "User defined config file that may override all or some default settings")
	if err := viper.BindPFlag("config", RootCmd.PersistentFlags().Lookup("config")); err != nil {
		log.Fatal(err)
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
