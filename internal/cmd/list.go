package cmd

import (
	"os"
	"text/tabwriter"

	"github.com/Lattice-Automation/codonopt/internal/codonopt"
	"github.com/Lattice-Automation/codonopt/internal/config"
	"github.com/spf13/cobra"
)

// listCmd is for listing built organisms.
var listCmd = &cobra.Command{
	Use:                        "list",
	Short:                      "List organisms",
	SuggestionsMinimumDistance: 2,
	Aliases:                    []string{"ls"},
}

// organismListCmd writes every built organism to stdout.
var organismListCmd = &cobra.Command{
	Use:                        "organism",
	Short:                      "List organisms with codon statistics",
	Run:                        runOrganismListCmd,
	SuggestionsMinimumDistance: 2,
	Example:                    "  codonopt list organisms",
	Long:                       "List the organisms built with 'codonopt build', their taxonomy ids, and build times",
	Aliases:                    []string{"organisms"},
	Args:                       cobra.NoArgs,
}

// set flags
func init() {
	listCmd.AddCommand(organismListCmd)

	RootCmd.AddCommand(listCmd)
}

func runOrganismListCmd(cmd *cobra.Command, args []string) {
	organisms, err := codonopt.ListOrganisms(config.DatabaseDir)
	must(err)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 3, ' ', 0)
	must(codonopt.WriteOrganisms(w, organisms))
	must(w.Flush())
}
