package codonopt

import (
	"context"
	"errors"
	"testing"

	"github.com/Lattice-Automation/codonopt/internal/milp"
)

func mustProtein(t *testing.T, s string) Protein {
	t.Helper()
	p, err := ParseProtein(s)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// solve finds a proven optimum of the assignment's model
func solve(t *testing.T, a *assignment) *milp.Solution {
	t.Helper()
	sol, err := milp.NewBranchAndBound(0, 0, 0).Solve(context.Background(), a.model)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.Status != milp.Optimal {
		t.Fatalf("Solve() status = %s, want optimal", sol.Status)
	}
	return sol
}

func Test_newAssignment(t *testing.T) {
	tests := []struct {
		name            string
		protein         string
		wantX           int
		wantZ           int
		wantConstraints int
	}{
		{
			"single codon amino acids",
			"MW",
			2,
			1,
			2 + 2*1 + 1,
		},
		{
			"mixed synonym group sizes",
			"MLK",
			1 + 6 + 2,
			1*6 + 6*2,
			3 + 2*18 + 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := newAssignment(tt.name, mustProtein(t, tt.protein))
			if err != nil {
				t.Fatal(err)
			}

			x := 0
			for i, candidates := range a.x {
				for _, cv := range candidates {
					if cv.codon.AminoAcid() != a.protein[i] {
						t.Errorf("X[%d,%s] pairs a codon of %s with %s", i, cv.codon, cv.codon.AminoAcid(), a.protein[i])
					}
					x++
				}
			}
			z := 0
			for _, pairs := range a.z {
				z += len(pairs)
			}

			if x != tt.wantX {
				t.Errorf("newAssignment() created %d assignment variables, want %d", x, tt.wantX)
			}
			if z != tt.wantZ {
				t.Errorf("newAssignment() created %d pair variables, want %d", z, tt.wantZ)
			}
			if got := a.model.NumVars(); got != x+z {
				t.Errorf("model has %d variables, want %d", got, x+z)
			}
			if got := a.model.NumConstraints(); got != tt.wantConstraints {
				t.Errorf("model has %d constraints, want %d", got, tt.wantConstraints)
			}
		})
	}
}

func Test_newAssignment_errors(t *testing.T) {
	if _, err := newAssignment("short", mustProtein(t, "M")); !errors.Is(err, ErrSequenceTooShort) {
		t.Errorf("newAssignment(M) error = %v, want %v", err, ErrSequenceTooShort)
	}

	_, err := newAssignment("unknown", Protein{'M', 'B'})
	var symErr *UnsupportedSymbolError
	if !errors.As(err, &symErr) || symErr.Position != 1 {
		t.Errorf("newAssignment(MB) error = %v, want an UnsupportedSymbolError at 1", err)
	}
}

// TestPairLinearization checks every integer assignment of the X variables:
// the constraints must hold when each Z is the AND of its two codons and be
// violated when any Z disagrees.
func TestPairLinearization(t *testing.T) {
	a, err := newAssignment("law", mustProtein(t, "KLC"))
	if err != nil {
		t.Fatal(err)
	}

	var choose func(i int, chosen []Codon)
	choose = func(i int, chosen []Codon) {
		if i < len(a.x) {
			for _, cv := range a.x[i] {
				choose(i+1, append(chosen, cv.codon))
			}
			return
		}

		values := make([]float64, a.model.NumVars())
		for i, candidates := range a.x {
			for _, cv := range candidates {
				if cv.codon == chosen[i] {
					values[cv.v] = 1
				}
			}
		}
		for i, pairs := range a.z {
			for _, pv := range pairs {
				if pv.first == chosen[i] && pv.second == chosen[i+1] {
					values[pv.v] = 1
				}
			}
		}
		if c, ok := violated(a.model, values); ok {
			t.Fatalf("AND assignment for %v violates %s", chosen, c)
		}

		// flipping any single Z breaks the model
		for _, pairs := range a.z {
			for _, pv := range pairs {
				values[pv.v] = 1 - values[pv.v]
				if _, ok := violated(a.model, values); !ok {
					t.Fatalf("flipping %s for %v satisfies every constraint", a.model.VarName(pv.v), chosen)
				}
				values[pv.v] = 1 - values[pv.v]
			}
		}
	}
	choose(0, nil)
}

func violated(m *milp.Model, values []float64) (string, bool) {
	for _, c := range m.Constraints() {
		if !c.Satisfied(values, 1e-9) {
			return c.Name, true
		}
	}
	return "", false
}

func TestAssignment_solvedLaws(t *testing.T) {
	s := testStatistics(t)
	a, err := newAssignment("laws", mustProtein(t, "KLC"))
	if err != nil {
		t.Fatal(err)
	}
	o := &caiFloor{fitness: s.Fitness, cps: s.CPS, threshold: 0.5}
	if err = o.build(a); err != nil {
		t.Fatal(err)
	}
	sol := solve(t, a)

	for i, candidates := range a.x {
		ones := 0
		for _, cv := range candidates {
			if sol.Value(cv.v) > 0.5 {
				ones++
			}
		}
		if ones != 1 {
			t.Errorf("position %d has %d codons selected, want 1", i, ones)
		}
	}

	x := make(map[[2]int]float64)
	for i, candidates := range a.x {
		for _, cv := range candidates {
			x[[2]int{i, int(cv.codon)}] = sol.Value(cv.v)
		}
	}
	for i, pairs := range a.z {
		sum := 0.0
		for _, pv := range pairs {
			z := sol.Value(pv.v)
			sum += z
			and := x[[2]int{i, int(pv.first)}] * x[[2]int{i + 1, int(pv.second)}]
			if z != and {
				t.Errorf("Z[%d,%s,%s] = %v, want %v", i, pv.first, pv.second, z, and)
			}
		}
		if sum != 1 {
			t.Errorf("pair %d selects %v codon pairs, want 1", i, sum)
		}
	}
}
