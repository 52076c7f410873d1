package milp

import (
	"context"
	"errors"
	"math"
	"testing"
)

func knapsack() (*Model, []Var) {
	m := NewModel("knapsack")
	vars := []Var{m.AddBinary("a"), m.AddBinary("b"), m.AddBinary("c")}

	weight := Expr{}
	weight.Add(vars[0], 2).Add(vars[1], 3).Add(vars[2], 4)
	m.AddConstraint("capacity", weight, LessEqual, 6)

	value := Expr{}
	value.Add(vars[0], 3).Add(vars[1], 4).Add(vars[2], 5)
	m.SetObjective(value, Maximize)
	return m, vars
}

func TestBranchAndBound_Solve(t *testing.T) {
	assignment := func() (*Model, []Var) {
		m := NewModel("assignment")
		vars := []Var{m.AddBinary("x1"), m.AddBinary("x2"), m.AddBinary("x3")}
		one := Expr{}
		one.Add(vars[0], 1).Add(vars[1], 1).Add(vars[2], 1)
		m.AddConstraint("one", one, Equal, 1)

		cost := Expr{}
		cost.Add(vars[0], 3).Add(vars[1], 1).Add(vars[2], 2).AddConstant(10)
		m.SetObjective(cost, Minimize)
		return m, vars
	}

	mixed := func() (*Model, []Var) {
		// minimize a deviation d >= |x - 0.3| over a binary x
		m := NewModel("mixed")
		x := m.AddBinary("x")
		d := m.AddContinuous("d")

		upper := Expr{}
		upper.Add(x, 1).Add(d, -1)
		m.AddConstraint("upper", upper, LessEqual, 0.3)
		lower := Expr{}
		lower.Add(x, 1).Add(d, 1)
		m.AddConstraint("lower", lower, GreaterEqual, 0.3)

		obj := Expr{}
		obj.Add(d, 1)
		m.SetObjective(obj, Minimize)
		return m, []Var{x, d}
	}

	tests := []struct {
		name          string
		model         func() (*Model, []Var)
		wantObjective float64
		wantValues    []float64
	}{
		{
			"knapsack needs branching",
			knapsack,
			8,
			[]float64{1, 0, 1},
		},
		{
			"exactly one assignment with a constant",
			assignment,
			11,
			[]float64{0, 1, 0},
		},
		{
			"binary with a continuous deviation",
			mixed,
			0.3,
			[]float64{0, 0.3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, vars := tt.model()
			sol, err := NewBranchAndBound(0, 0, 0).Solve(context.Background(), m)
			if err != nil {
				t.Fatalf("Solve() error = %v", err)
			}
			if sol.Status != Optimal {
				t.Errorf("Solve() status = %v, want %v", sol.Status, Optimal)
			}
			if math.Abs(sol.Objective-tt.wantObjective) > 1e-6 {
				t.Errorf("Solve() objective = %v, want %v", sol.Objective, tt.wantObjective)
			}
			for i, v := range vars {
				if math.Abs(sol.Value(v)-tt.wantValues[i]) > 1e-6 {
					t.Errorf("Solve() %s = %v, want %v", m.VarName(v), sol.Value(v), tt.wantValues[i])
				}
			}
			for _, c := range m.Constraints() {
				if !c.Satisfied(sol.Values(), 1e-6) {
					t.Errorf("Solve() violates %s", c.Name)
				}
			}
		})
	}
}

func TestBranchAndBound_SolveErrors(t *testing.T) {
	infeasible := NewModel("infeasible")
	x := infeasible.AddBinary("x")
	atLeastTwo := Expr{}
	atLeastTwo.Add(x, 1)
	infeasible.AddConstraint("two", atLeastTwo, GreaterEqual, 2)

	unbounded := NewModel("unbounded")
	y := unbounded.AddContinuous("y")
	atLeastOne := Expr{}
	atLeastOne.Add(y, 1)
	unbounded.AddConstraint("one", atLeastOne, GreaterEqual, 1)
	obj := Expr{}
	obj.Add(y, 1)
	unbounded.SetObjective(obj, Maximize)

	limited, _ := knapsack()

	tests := []struct {
		name   string
		solver *BranchAndBound
		model  *Model
		want   error
	}{
		{"infeasible", NewBranchAndBound(0, 0, 0), infeasible, ErrInfeasible},
		{"unbounded", NewBranchAndBound(0, 0, 0), unbounded, ErrUnbounded},
		{"node limit before any incumbent", NewBranchAndBound(0, 1, 0), limited, ErrNoIncumbent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.solver.Solve(context.Background(), tt.model); !errors.Is(err, tt.want) {
				t.Errorf("Solve() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBranchAndBound_SolveCanceled(t *testing.T) {
	m, _ := knapsack()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewBranchAndBound(0, 0, 0).Solve(ctx, m); !errors.Is(err, context.Canceled) {
		t.Errorf("Solve() error = %v, want %v", err, context.Canceled)
	}
}

func TestExpr_Eval(t *testing.T) {
	e := Expr{}
	e.Add(0, 2).Add(1, -1).AddConstant(0.5).Scale(2)

	if got := e.Eval([]float64{1, 3}); got != -1 {
		t.Errorf("Eval() = %v, want %v", got, -1)
	}
}
