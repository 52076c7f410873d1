package codonopt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// file names of the statistics tables in an organism's directory
const (
	fitnessFile        = "fv.txt"
	observedCodonsFile = "ocf.txt"
	cpsFile            = "cps.txt"
	observedPairsFile  = "opf.txt"
)

// tableSeparator separates values in the text tables
const tableSeparator = ", "

// WriteCodonTable writes the table as one line of comma separated values in
// codon order.
func WriteCodonTable(w io.Writer, t CodonTable) error {
	_, err := io.WriteString(w, formatRow(t[:], -1))
	return err
}

// ReadCodonTable reads a table written by WriteCodonTable.
func ReadCodonTable(r io.Reader) (CodonTable, error) {
	var t CodonTable
	contents, err := io.ReadAll(r)
	if err != nil {
		return t, err
	}

	values, err := parseRow(strings.TrimSpace(string(contents)))
	if err != nil {
		return t, err
	}
	copy(t[:], values)
	return t, nil
}

// WritePairTable writes one line per first codon, comma separated over the
// second codon. Values are rounded to precision decimals.
func WritePairTable(w io.Writer, t PairTable, precision int) error {
	bw := bufio.NewWriter(w)
	for i := range t {
		if _, err := bw.WriteString(formatRow(t[i][:], precision) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadPairTable reads a table written by WritePairTable.
func ReadPairTable(r io.Reader) (PairTable, error) {
	var t PairTable
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	i := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if i == NumCodons {
			return t, &DataError{Table: "codon pair table", Reason: fmt.Sprintf("more than %d rows", NumCodons)}
		}

		values, err := parseRow(line)
		if err != nil {
			return t, fmt.Errorf("row %d: %w", i+1, err)
		}
		copy(t[i][:], values)
		i++
	}
	if err := scanner.Err(); err != nil {
		return t, err
	}
	if i != NumCodons {
		return t, &DataError{Table: "codon pair table", Reason: fmt.Sprintf("%d rows, want %d", i, NumCodons)}
	}
	return t, nil
}

// SaveStatistics writes the four statistics tables into dir.
func SaveStatistics(dir string, s *Statistics, precision int) (err error) {
	if err = os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	err = multierr.Append(err, writeFile(filepath.Join(dir, fitnessFile), func(w io.Writer) error {
		return WriteCodonTable(w, s.Fitness)
	}))
	err = multierr.Append(err, writeFile(filepath.Join(dir, observedCodonsFile), func(w io.Writer) error {
		return WriteCodonTable(w, s.ObservedCodons)
	}))
	err = multierr.Append(err, writeFile(filepath.Join(dir, cpsFile), func(w io.Writer) error {
		return WritePairTable(w, s.CPS, precision)
	}))
	err = multierr.Append(err, writeFile(filepath.Join(dir, observedPairsFile), func(w io.Writer) error {
		return WritePairTable(w, s.ObservedPairs, precision)
	}))
	return err
}

// LoadStatistics reads the four statistics tables from dir.
func LoadStatistics(dir string) (*Statistics, error) {
	s := &Statistics{}
	var err error

	if s.Fitness, err = readFile(filepath.Join(dir, fitnessFile), ReadCodonTable); err != nil {
		return nil, err
	}
	for c, f := range s.Fitness {
		if f <= 0 || f > 1 {
			return nil, &DataError{Table: "fitness values", Key: Codon(c).String(), Reason: fmt.Sprintf("%v is outside (0, 1]", f)}
		}
	}
	if s.ObservedCodons, err = readFile(filepath.Join(dir, observedCodonsFile), ReadCodonTable); err != nil {
		return nil, err
	}
	if s.CPS, err = readFile(filepath.Join(dir, cpsFile), ReadPairTable); err != nil {
		return nil, err
	}
	if s.ObservedPairs, err = readFile(filepath.Join(dir, observedPairsFile), ReadPairTable); err != nil {
		return nil, err
	}
	return s, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return write(f)
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()

	t, err := read(f)
	if err != nil {
		return t, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// formatRow joins values with the table separator. A negative precision
// keeps the shortest representation that reads back exactly.
func formatRow(values []float64, precision int) string {
	fields := make([]string, len(values))
	for i, v := range values {
		if precision >= 0 {
			v = round(v, precision)
		}
		fields[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(fields, tableSeparator)
}

func parseRow(line string) ([]float64, error) {
	fields := strings.Split(line, ",")
	if len(fields) != NumCodons {
		return nil, &DataError{Table: "codon table", Reason: fmt.Sprintf("%d values, want %d", len(fields), NumCodons)}
	}

	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, &DataError{Table: "codon table", Key: Codon(i).String(), Reason: err.Error()}
		}
		values[i] = v
	}
	return values, nil
}
