package codonopt

import (
	"fmt"

	"github.com/Lattice-Automation/codonopt/internal/milp"
)

// codonVar is the assignment variable of one candidate codon at a position
type codonVar struct {
	codon Codon
	v     milp.Var
}

// pairVar is the selection variable of one codon combination at an adjacent
// position pair
type pairVar struct {
	first  Codon
	second Codon
	v      milp.Var
}

// assignment is the scaffolding shared by both methods: one binary per
// position and synonymous codon, and one linearized binary per adjacent
// position pair and synonymous codon combination.
type assignment struct {
	protein Protein
	model   *milp.Model

	// x[i] holds the candidate codons of position i
	x [][]codonVar

	// z[i] holds the codon combinations of positions i and i+1
	z [][]pairVar
}

// newAssignment builds the assignment and pair variables of a protein into
// a fresh model.
func newAssignment(name string, p Protein) (*assignment, error) {
	if len(p) < 2 {
		return nil, ErrSequenceTooShort
	}

	a := &assignment{
		protein: p,
		model:   milp.NewModel(name),
	}
	if err := a.buildAssignmentVariables(); err != nil {
		return nil, err
	}
	a.buildPairVariables()
	return a, nil
}

// buildAssignmentVariables creates X[i,c] for every position i and codon c
// synonymous with the amino acid at i, and requires exactly one of them per
// position.
func (a *assignment) buildAssignmentVariables() error {
	a.x = make([][]codonVar, len(a.protein))
	for i, aa := range a.protein {
		codons := Synonyms(aa)
		if len(codons) == 0 {
			return &UnsupportedSymbolError{Position: i, Symbol: rune(aa)}
		}

		var sum milp.Expr
		a.x[i] = make([]codonVar, len(codons))
		for k, c := range codons {
			v := a.model.AddBinary(fmt.Sprintf("X[%d,%s]", i, c))
			a.x[i][k] = codonVar{codon: c, v: v}
			sum.Add(v, 1)
		}
		a.model.AddConstraint(fmt.Sprintf("one_codon[%d]", i), sum, milp.Equal, 1)
	}
	return nil
}

// buildPairVariables creates Z[i,c1,c2] for every adjacent position pair
// and candidate codon combination. Z is tied to the logical AND of its two
// assignment variables:
//
//	X[i,c1] + X[i+1,c2] - 2Z >= 0   (Z = 1 needs both codons)
//	X[i,c1] + X[i+1,c2] -  Z <= 1   (both codons force Z = 1)
//
// and exactly one combination is selected per pair.
func (a *assignment) buildPairVariables() {
	a.z = make([][]pairVar, len(a.protein)-1)
	for i := range a.z {
		var sum milp.Expr
		a.z[i] = make([]pairVar, 0, len(a.x[i])*len(a.x[i+1]))
		for _, x1 := range a.x[i] {
			for _, x2 := range a.x[i+1] {
				v := a.model.AddBinary(fmt.Sprintf("Z[%d,%s,%s]", i, x1.codon, x2.codon))
				a.z[i] = append(a.z[i], pairVar{first: x1.codon, second: x2.codon, v: v})
				sum.Add(v, 1)

				var both, forced milp.Expr
				both.Add(x1.v, 1).Add(x2.v, 1).Add(v, -2)
				a.model.AddConstraint(fmt.Sprintf("pair_needs_codons[%d,%s,%s]", i, x1.codon, x2.codon), both, milp.GreaterEqual, 0)
				forced.Add(x1.v, 1).Add(x2.v, 1).Add(v, -1)
				a.model.AddConstraint(fmt.Sprintf("codons_force_pair[%d,%s,%s]", i, x1.codon, x2.codon), forced, milp.LessEqual, 1)
			}
		}
		a.model.AddConstraint(fmt.Sprintf("one_pair[%d]", i), sum, milp.Equal, 1)
	}
}

// byCodon groups the assignment variables by codon
func (a *assignment) byCodon() map[Codon][]milp.Var {
	index := make(map[Codon][]milp.Var)
	for _, candidates := range a.x {
		for _, x := range candidates {
			index[x.codon] = append(index[x.codon], x.v)
		}
	}
	return index
}

// byPair groups the pair selection variables by codon pair
func (a *assignment) byPair() map[[2]Codon][]milp.Var {
	index := make(map[[2]Codon][]milp.Var)
	for _, candidates := range a.z {
		for _, z := range candidates {
			key := [2]Codon{z.first, z.second}
			index[key] = append(index[key], z.v)
		}
	}
	return index
}
