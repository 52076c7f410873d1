package codonopt

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Lattice-Automation/codonopt/internal/config"
	"github.com/shenwei356/xopen"
)

// ExtractOptions locates the columns of a codon usage database: tab
// separated, one row per organism record, with a header naming the codon or
// codon pair of every count column.
type ExtractOptions struct {
	// TaxIDColumn is the 0-based column of the taxonomy id
	TaxIDColumn int

	// CodonStart is the first codon count column of a codon database
	CodonStart int

	// PairStart is the first codon pair count column of a codon pair database
	PairStart int
}

// ExtractOptionsFrom reads database columns from settings.
func ExtractOptionsFrom(c *config.Config) ExtractOptions {
	return ExtractOptions{
		TaxIDColumn: c.TaxIDColumn,
		CodonStart:  c.CodonFrequencyStartColumn,
		PairStart:   c.PairFrequencyStartColumn,
	}
}

// ExtractCodonCounts sums the codon counts of every record of taxid in the
// database at path. Gzipped databases are read transparently.
func ExtractCodonCounts(path, taxid string, opts ExtractOptions) (CodonTable, error) {
	var counts CodonTable
	err := extractCounts(path, taxid, opts.TaxIDColumn, opts.CodonStart, parseCodonKey, func(key []Codon, count float64) {
		counts[key[0]] += count
	})
	return counts, err
}

// ExtractPairCounts sums the codon pair counts of every record of taxid in
// the database at path. Header keys are six letters, the two codons of a pair.
func ExtractPairCounts(path, taxid string, opts ExtractOptions) (PairTable, error) {
	var counts PairTable
	err := extractCounts(path, taxid, opts.TaxIDColumn, opts.PairStart, parsePairKey, func(key []Codon, count float64) {
		counts[key[0]][key[1]] += count
	})
	return counts, err
}

func parseCodonKey(s string) ([]Codon, bool) {
	c, ok := ParseCodon(s)
	return []Codon{c}, ok
}

func parsePairKey(s string) ([]Codon, bool) {
	if len(s) != 6 {
		return nil, false
	}
	c1, ok1 := ParseCodon(s[:3])
	c2, ok2 := ParseCodon(s[3:])
	return []Codon{c1, c2}, ok1 && ok2
}

// extractCounts reads the header's keys from column start on and calls add
// for every count of a record matching taxid
func extractCounts(path, taxid string, taxidCol, start int, parseKey func(string) ([]Codon, bool), add func([]Codon, float64)) error {
	f, err := xopen.Ropen(path)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	if start >= len(header) || taxidCol >= len(header) {
		return &DataError{Table: path, Reason: fmt.Sprintf("header has %d columns", len(header))}
	}

	keys := make([][]Codon, 0, len(header)-start)
	for _, h := range header[start:] {
		key, ok := parseKey(strings.ToUpper(strings.TrimSpace(h)))
		if !ok {
			return &DataError{Table: path, Key: h, Reason: "header is not a codon"}
		}
		keys = append(keys, key)
	}

	records := 0
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if len(row) <= taxidCol || strings.TrimSpace(row[taxidCol]) != taxid {
			continue
		}
		if len(row) != len(header) {
			return &DataError{Table: path, Key: fmt.Sprintf("line %d", line), Reason: fmt.Sprintf("%d columns, want %d", len(row), len(header))}
		}

		for i, field := range row[start:] {
			count, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil || count < 0 {
				return &DataError{Table: path, Key: fmt.Sprintf("line %d, %s", line, header[start+i]), Reason: fmt.Sprintf("%q is not a count", field)}
			}
			add(keys[i], count)
		}
		records++
	}

	if records == 0 {
		return fmt.Errorf("no records with taxid %s in %s", taxid, path)
	}
	rlog.Debugw("extracted counts", "path", path, "taxid", taxid, "records", records)
	return nil
}
