package codonopt

import "github.com/Lattice-Automation/codonopt/internal/milp"

// decode reads the selected codon of every position out of a solution.
// A position with zero or several codons set is a broken solver contract.
func decode(a *assignment, sol *milp.Solution) ([]Codon, error) {
	codons := make([]Codon, len(a.x))
	for i, candidates := range a.x {
		var selected []Codon
		for _, x := range candidates {
			if sol.Value(x.v) > 0.5 {
				selected = append(selected, x.codon)
			}
		}
		if len(selected) != 1 {
			return nil, &InfeasibleSolutionError{Position: i, Selected: selected}
		}
		codons[i] = selected[0]
	}
	return codons, nil
}
