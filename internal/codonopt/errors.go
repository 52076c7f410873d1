package codonopt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSequenceTooShort is returned for proteins with fewer than two amino
// acids: neither objective is defined without an adjacent pair.
var ErrSequenceTooShort = errors.New("protein needs at least two amino acids")

// DataError is a malformed or zero-valued statistic that would make a
// downstream computation undefined.
type DataError struct {
	// Table is the statistics table with the problem, eg "codon frequencies"
	Table string

	// Key is the codon, codon pair or amino acid at fault
	Key string

	Reason string
}

func (e *DataError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("invalid %s: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("invalid %s at %s: %s", e.Table, e.Key, e.Reason)
}

// UnsupportedSymbolError is an input symbol without a codon set.
type UnsupportedSymbolError struct {
	Position int
	Symbol   rune
}

func (e *UnsupportedSymbolError) Error() string {
	return fmt.Sprintf("unsupported amino acid symbol %q at position %d", e.Symbol, e.Position)
}

// SolverInfeasibleError is returned when an assembled model has no feasible
// solution. With a codon for every position this is only possible through
// the threshold constraint.
type SolverInfeasibleError struct {
	Method    Method
	Threshold float64
}

func (e *SolverInfeasibleError) Error() string {
	return fmt.Sprintf("%s model is infeasible with threshold %g", e.Method, e.Threshold)
}

// InfeasibleSolutionError is a solved assignment with other than exactly one
// codon selected at a position.
type InfeasibleSolutionError struct {
	Position int
	Selected []Codon
}

func (e *InfeasibleSolutionError) Error() string {
	names := make([]string, len(e.Selected))
	for i, c := range e.Selected {
		names[i] = c.String()
	}
	return fmt.Sprintf("solution selects %d codons at position %d [%s], want exactly 1", len(e.Selected), e.Position, strings.Join(names, ","))
}

// SequenceError ties an optimization failure to its input sequence.
type SequenceError struct {
	Index int
	Name  string
	Err   error
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("sequence %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *SequenceError) Unwrap() error {
	return e.Err
}
