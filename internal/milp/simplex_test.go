package milp

import (
	"context"
	"errors"
	"math"
	"testing"
)

// chain is a path of positions that each pick one of k options, scored by
// the option pairs of neighbours. Pair variables are linearized as the AND
// of the two option variables, with one pair per neighbour.
func chain(positions, k int, score func(i, a, b int) float64) (*Model, [][]Var) {
	m := NewModel("chain")
	x := make([][]Var, positions)
	for i := range x {
		one := Expr{}
		for a := 0; a < k; a++ {
			x[i] = append(x[i], m.AddBinary("x"))
			one.Add(x[i][a], 1)
		}
		m.AddConstraint("one", one, Equal, 1)
	}

	obj := Expr{}
	for i := 0; i+1 < positions; i++ {
		pair := Expr{}
		for a := 0; a < k; a++ {
			for b := 0; b < k; b++ {
				z := m.AddBinary("z")
				pair.Add(z, 1)

				needs := Expr{}
				needs.Add(x[i][a], 1).Add(x[i+1][b], 1).Add(z, -2)
				m.AddConstraint("needs", needs, GreaterEqual, 0)
				forces := Expr{}
				forces.Add(x[i][a], 1).Add(x[i+1][b], 1).Add(z, -1)
				m.AddConstraint("forces", forces, LessEqual, 1)

				obj.Add(z, score(i, a, b))
			}
		}
		m.AddConstraint("one_pair", pair, Equal, 1)
	}
	m.SetObjective(obj, Maximize)
	return m, x
}

// bestChain enumerates every choice of options
func bestChain(positions, k int, score func(i, a, b int) float64) float64 {
	best := math.Inf(-1)
	choice := make([]int, positions)
	var walk func(i int)
	walk = func(i int) {
		if i == positions {
			sum := 0.0
			for j := 0; j+1 < positions; j++ {
				sum += score(j, choice[j], choice[j+1])
			}
			best = math.Max(best, sum)
			return
		}
		for a := 0; a < k; a++ {
			choice[i] = a
			walk(i + 1)
		}
	}
	walk(0)
	return best
}

func TestBranchAndBound_SolveChain(t *testing.T) {
	tests := []struct {
		name      string
		positions int
		k         int
		score     func(i, a, b int) float64
	}{
		{"uniform pairs", 4, 2, func(i, a, b int) float64 { return 1 }},
		{"mixed signs", 5, 3, func(i, a, b int) float64 { return math.Sin(float64(7*i + 3*a + b)) }},
		{"six options", 3, 6, func(i, a, b int) float64 { return math.Cos(float64(i*36+a*6+b)) / 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, x := chain(tt.positions, tt.k, tt.score)
			sol, err := NewBranchAndBound(0, 0, 0).Solve(context.Background(), m)
			if err != nil {
				t.Fatalf("Solve() error = %v", err)
			}

			want := bestChain(tt.positions, tt.k, tt.score)
			if math.Abs(sol.Objective-want) > 1e-6 {
				t.Errorf("Solve() objective = %v, want %v", sol.Objective, want)
			}
			for _, c := range m.Constraints() {
				if !c.Satisfied(sol.Values(), 1e-6) {
					t.Errorf("Solve() violates %s", c.Name)
				}
			}
			for i, options := range x {
				sum := 0.0
				for _, v := range options {
					sum += sol.Value(v)
				}
				if sum != 1 {
					t.Errorf("position %d picks %v options, want 1", i, sum)
				}
			}
		})
	}
}

func TestBranchAndBound_SolveKnapsack(t *testing.T) {
	weights := []float64{12, 7, 11, 8, 9, 6, 14, 5, 10, 13, 4, 3}
	values := []float64{24, 13, 23, 15, 16, 11, 28, 8, 19, 25, 6, 5}
	capacity := 40.0

	m := NewModel("knapsack")
	weight, value := Expr{}, Expr{}
	for i := range weights {
		v := m.AddBinary("item")
		weight.Add(v, weights[i])
		value.Add(v, values[i])
	}
	m.AddConstraint("capacity", weight, LessEqual, capacity)
	m.SetObjective(value, Maximize)

	want := 0.0
	for set := 0; set < 1<<len(weights); set++ {
		w, v := 0.0, 0.0
		for i := range weights {
			if set&(1<<i) != 0 {
				w += weights[i]
				v += values[i]
			}
		}
		if w <= capacity {
			want = math.Max(want, v)
		}
	}

	sol, err := NewBranchAndBound(0, 0, 0).Solve(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(sol.Objective-want) > 1e-6 {
		t.Errorf("Solve() objective = %v, want %v", sol.Objective, want)
	}
}

func Test_dualSimplex_redundantRows(t *testing.T) {
	// the same equality twice, plus one implied by both
	m := NewModel("redundant")
	x, y := m.AddContinuous("x"), m.AddContinuous("y")
	for _, name := range []string{"sum", "sum again"} {
		e := Expr{}
		e.Add(x, 1).Add(y, 1)
		m.AddConstraint(name, e, Equal, 1)
	}
	double := Expr{}
	double.Add(x, 2).Add(y, 2)
	m.AddConstraint("double", double, Equal, 2)
	obj := Expr{}
	obj.Add(y, 1)
	m.SetObjective(obj, Minimize)

	p := newProblem(m)
	lp := newDualSimplex(p)
	r, err := p.relax(context.Background(), lp, []int8{free, free})
	if err != nil {
		t.Fatalf("relax() error = %v", err)
	}
	if math.Abs(r.x[x]-1) > 1e-9 || math.Abs(r.x[y]) > 1e-9 {
		t.Errorf("relax() = %v, want [1 0]", r.x)
	}
}

func Test_dualSimplex_warmStart(t *testing.T) {
	fixings := [][]int8{
		{free, free, free},
		{free, free, 0},
		{1, free, 0},
		{free, 0, free},
		{free, free, free},
	}

	m, _ := knapsack()
	p := newProblem(m)
	warm := newDualSimplex(p)
	for _, fixed := range fixings {
		got, err := p.relax(context.Background(), warm, fixed)
		if err != nil {
			t.Fatalf("relax(%v) warm error = %v", fixed, err)
		}
		want, err := p.relax(context.Background(), newDualSimplex(p), fixed)
		if err != nil {
			t.Fatalf("relax(%v) cold error = %v", fixed, err)
		}
		if math.Abs(got.obj-want.obj) > 1e-9 {
			t.Errorf("relax(%v) warm objective = %v, want %v", fixed, got.obj, want.obj)
		}
	}

	// all three items cannot fit
	if _, err := p.relax(context.Background(), warm, []int8{1, 1, 1}); !errors.Is(err, ErrInfeasible) {
		t.Errorf("relax() of an overfull knapsack error = %v, want %v", err, ErrInfeasible)
	}
	if _, err := p.relax(context.Background(), warm, []int8{1, free, free}); err != nil {
		t.Errorf("relax() after an infeasible node error = %v", err)
	}
}
