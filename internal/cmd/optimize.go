package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/Lattice-Automation/codonopt/internal/codonopt"
	"github.com/Lattice-Automation/codonopt/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var (
	methodHelp = `optimization model; valid values [MaxCPBstCAI, MinRCPBstRCB].
MaxCPBstCAI maximizes the mean codon pair score with a CAI floor.
MinRCPBstRCB minimizes the relative codon pair bias with an RCB ceiling.`

	thresholdHelp = `CAI floor of MaxCPBstCAI in [0, 1], or RCB ceiling of
MinRCPBstRCB. 0 drops the CAI floor`
)

// optimizeCmd is for redesigning the DNA of protein sequences
var optimizeCmd = &cobra.Command{
	Use:                        "optimize [protein]...",
	Short:                      "Design the DNA of proteins for an organism",
	Run:                        runOptimizeCmd,
	SuggestionsMinimumDistance: 2,
	Long: `Choose a codon for every residue of each protein so the DNA follows the
codon and codon pair usage of an organism built with 'codonopt build'.

Proteins are read from the arguments and from the --in files: FASTA, or one
sequence per line. Every protein is solved independently and a failed protein
does not stop the rest.`,
	Example: `  codonopt optimize --organism ecoli MSKGEELFTGVVPILVELDGDVNGHKF
  codonopt optimize --organism ecoli -i proteins.fa -o designs.csv --method MinRCPBstRCB --threshold 0.2`,
	Aliases: []string{"opt", "design"},
}

// set flags
func init() {
	optimizeCmd.Flags().StringP("organism", "g", "", "organism to optimize for, see 'codonopt list organisms'")
	optimizeCmd.Flags().StringP("in", "i", "", "comma separated list of input files, directories or globs")
	optimizeCmd.Flags().StringP("out", "o", "", "output file name, stdout if empty")
	optimizeCmd.Flags().StringP("out-fmt", "f", "", "output file format; valid values [TXT, JSON, CSV]")
	optimizeCmd.Flags().StringP("method", "m", "", methodHelp)
	optimizeCmd.Flags().Float64P("threshold", "t", 0, thresholdHelp)
	optimizeCmd.Flags().IntP("workers", "w", 1, "proteins solved at once")
	optimizeCmd.Flags().Float64("time-limit", 0, "seconds a single solve may take, 0 for no limit")
	optimizeCmd.Flags().String("checkpoint", "", "file of solved proteins to reuse between runs")
	must(optimizeCmd.MarkFlagRequired("organism"))

	RootCmd.AddCommand(optimizeCmd)
}

func runOptimizeCmd(cmd *cobra.Command, args []string) {
	start := time.Now()

	conf, err := extractSettings(cmd, config.New())
	if err != nil {
		log.Fatal(err)
	}
	organism, err := extractString(cmd, "organism")
	must(err)
	inputs, err := extractInputs(cmd, args)
	if err != nil {
		if helperr := cmd.Help(); helperr != nil {
			log.Fatal(helperr)
		}
		log.Fatal(err)
	}
	format, err := extractOutputFormat(cmd)
	must(err)
	out, err := extractString(cmd, "out")
	must(err)
	out = adjustOutput(out, format)

	stats, err := codonopt.LoadOrganism(config.DatabaseDir, organism)
	must(err)
	optimizer, err := codonopt.NewOptimizer(conf, organism, stats)
	must(err)

	checkpoint, err := extractString(cmd, "checkpoint")
	must(err)
	if checkpoint != "" {
		if optimizer.Checkpoint, err = codonopt.OpenCheckpoint(checkpoint); err != nil {
			log.Fatal(err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	results, err := optimizer.OptimizeAll(ctx, inputs)
	cancel()

	output := codonopt.NewOutput(organism, optimizer.Method, optimizer.Threshold, results, start)
	err = multierr.Append(err, codonopt.WriteOutputFile(out, format, output))
	err = multierr.Append(err, optimizer.Checkpoint.Close())
	if err != nil {
		for _, e := range multierr.Errors(err) {
			log.Println(e)
		}
		os.Exit(1)
	}
}
