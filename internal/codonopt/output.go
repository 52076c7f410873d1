package codonopt

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Result is the optimized DNA of one input sequence.
type Result struct {
	// Index is the 0-based position of the sequence in the input
	Index int `json:"index"`

	// Name of the input sequence
	Name string `json:"name"`

	// Protein is the parsed amino acid sequence
	Protein string `json:"protein"`

	// DNA is the optimized coding sequence
	DNA string `json:"dna"`

	// Objective is the method's objective value
	Objective float64 `json:"objective"`

	// Status is optimal, or feasible when a solver limit stopped the search
	Status string `json:"status"`

	// CAI is the codon adaptation index of DNA
	CAI float64 `json:"cai"`

	// GC is the GC content of DNA
	GC float64 `json:"gc"`

	// Hash identifies the protein
	Hash string `json:"hash"`
}

// Output is a run's results as written to a file.
type Output struct {
	// Time, ex: "Mon Jan  2 15:04:05 2006"
	Time string `json:"time"`

	// Organism whose statistics were used
	Organism string `json:"organism"`

	// Method that was optimized
	Method string `json:"method"`

	Threshold float64 `json:"threshold"`

	// Execution is the number of seconds it took to execute the command
	Execution float64 `json:"execution"`

	Results []*Result `json:"results"`
}

// NewOutput stamps a run's results with the time.
func NewOutput(organism string, m Method, threshold float64, results []*Result, start time.Time) *Output {
	return &Output{
		Time:      time.Now().Format(time.ANSIC),
		Organism:  organism,
		Method:    m.String(),
		Threshold: threshold,
		Execution: time.Since(start).Seconds(),
		Results:   results,
	}
}

// ParseFormat returns the normalized output format, TXT, JSON or CSV.
func ParseFormat(s string) (string, error) {
	f := strings.ToUpper(strings.TrimSpace(s))
	switch f {
	case "TXT", "JSON", "CSV":
		return f, nil
	case "":
		return "TXT", nil
	}
	return "", fmt.Errorf("unknown output format %q, expected TXT, JSON or CSV", s)
}

// WriteOutputFile writes the output to filename, or to stdout if filename
// is empty.
func WriteOutputFile(filename, format string, out *Output) (err error) {
	if filename == "" {
		return WriteOutput(os.Stdout, format, out)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create the output: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return WriteOutput(f, format, out)
}

// WriteOutput writes the results in the given format.
func WriteOutput(w io.Writer, format string, out *Output) error {
	switch format {
	case "JSON":
		return writeJSON(w, out)
	case "CSV":
		return writeCSV(w, out)
	default:
		return writeTXT(w, out)
	}
}

// writeTXT writes a time header and then each result's objective value
// followed by its DNA
func writeTXT(w io.Writer, out *Output) error {
	if _, err := fmt.Fprintf(w, "last update: %s\n\n", out.Time); err != nil {
		return err
	}
	for _, r := range out.Results {
		if _, err := fmt.Fprintf(w, "Objective function value: %s\n%s\n\n", formatFloat(r.Objective), r.DNA); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, out *Output) error {
	output, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize output: %v", err)
	}
	if _, err = w.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write the output: %v", err)
	}
	return nil
}

func writeCSV(w io.Writer, out *Output) error {
	if _, err := fmt.Fprintf(w, "# %s\n", out.Time); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	headers := []string{"Index", "Name", "Objective", "Status", "CAI", "GC", "Protein", "DNA"}
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, r := range out.Results {
		row := []string{
			strconv.Itoa(r.Index),
			r.Name,
			formatFloat(r.Objective),
			r.Status,
			fmt.Sprintf("%.3f", r.CAI),
			fmt.Sprintf("%.3f", r.GC),
			r.Protein,
			r.DNA,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
