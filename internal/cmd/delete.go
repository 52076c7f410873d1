package cmd

import (
	"fmt"

	"github.com/Lattice-Automation/codonopt/internal/codonopt"
	"github.com/Lattice-Automation/codonopt/internal/config"
	"github.com/spf13/cobra"
)

// deleteCmd is for removing built organisms
var deleteCmd = &cobra.Command{
	Use:                        "delete",
	Short:                      "Delete an organism",
	SuggestionsMinimumDistance: 2,
	Long:                       `Delete an organism, by name, and its statistics tables.`,
	Aliases:                    []string{"rm", "remove"},
}

// organismDeleteCmd is for deleting an organism's tables
var organismDeleteCmd = &cobra.Command{
	Use:                        "organism [name]",
	Short:                      "Delete an organism's codon statistics",
	Run:                        runOrganismDeleteCmd,
	SuggestionsMinimumDistance: 2,
	Example:                    "  codonopt delete organism ecoli",
	Args:                       cobra.ExactArgs(1),
}

// set flags
func init() {
	deleteCmd.AddCommand(organismDeleteCmd)

	RootCmd.AddCommand(deleteCmd)
}

func runOrganismDeleteCmd(cmd *cobra.Command, args []string) {
	must(codonopt.DeleteOrganism(config.DatabaseDir, args[0]))
	fmt.Printf("deleted %s\n", args[0])
}
