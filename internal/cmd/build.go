package cmd

import (
	"fmt"
	"log"

	"github.com/Lattice-Automation/codonopt/internal/codonopt"
	"github.com/Lattice-Automation/codonopt/internal/config"
	"github.com/spf13/cobra"
)

// buildCmd is for building an organism's statistics tables from codon usage databases
var buildCmd = &cobra.Command{
	Use:                        "build [organism]",
	Short:                      "Build an organism's codon statistics from codon usage databases",
	Run:                        runBuildCmd,
	SuggestionsMinimumDistance: 2,
	Long: `Sum the codon and codon pair counts of every record of a taxonomy id in tab
separated codon usage databases (optionally gzipped), and build the fitness
values, codon pair scores, and observed frequencies 'codonopt optimize' needs.

The organism's tables are written to ~/.codonopt/db/[organism].`,
	Example: "  codonopt build ecoli --taxid 562 --codon-db o537-Refseq_species.tsv --pair-db o537-Refseq_Bicod.tsv",
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"make", "add"},
}

// set flags
func init() {
	buildCmd.Flags().StringP("taxid", "x", "", "taxonomy id of the organism's database records")
	buildCmd.Flags().StringP("codon-db", "d", "", "codon count database")
	buildCmd.Flags().StringP("pair-db", "p", "", "codon pair count database")
	buildCmd.Flags().BoolP("normalize", "n", false, "rescale counts to the settings' normalization-total before the build")
	must(buildCmd.MarkFlagRequired("taxid"))
	must(buildCmd.MarkFlagRequired("codon-db"))
	must(buildCmd.MarkFlagRequired("pair-db"))

	RootCmd.AddCommand(buildCmd)
}

func runBuildCmd(cmd *cobra.Command, args []string) {
	conf := config.New().Copy()
	if cmd.Flags().Changed("normalize") {
		normalize, err := cmd.Flags().GetBool("normalize")
		must(err)
		conf.NormalizeFrequencies = normalize
	}
	must(conf.Validate())

	taxid, err := extractString(cmd, "taxid")
	must(err)
	codonDB, err := extractString(cmd, "codon-db")
	must(err)
	pairDB, err := extractString(cmd, "pair-db")
	must(err)

	opts := codonopt.ExtractOptionsFrom(conf)
	codons, err := codonopt.ExtractCodonCounts(codonDB, taxid, opts)
	if err != nil {
		log.Fatal(err)
	}
	pairs, err := codonopt.ExtractPairCounts(pairDB, taxid, opts)
	if err != nil {
		log.Fatal(err)
	}

	stats, err := codonopt.Prepare(codons, pairs, codonopt.StatsOptionsFrom(conf))
	if err != nil {
		log.Fatal(err)
	}

	organism := codonopt.Organism{
		Name:       args[0],
		TaxID:      taxid,
		Normalized: conf.NormalizeFrequencies,
	}
	must(codonopt.AddOrganism(config.DatabaseDir, organism, stats, conf.TablePrecision))
	fmt.Printf("built %s from taxid %s\n", organism.Name, taxid)
}
