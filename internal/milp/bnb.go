package milp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

const (
	// free marks a binary variable that is not fixed in a search node
	free int8 = -1

	// integrality tolerance for binary variables in a relaxation
	intTol = 1e-6

	// pruneTol is the smallest improvement on the incumbent worth exploring
	pruneTol = 1e-7
)

// BranchAndBound is a depth-first branch and bound over binary variables.
// Every node's LP relaxation is solved with a dual simplex that keeps its
// basis from one node to the next.
type BranchAndBound struct {
	// TimeLimit stops the search after this long. Zero means no limit.
	TimeLimit time.Duration

	// MaxNodes stops the search after this many relaxations. Zero means no limit.
	MaxNodes int

	// Gap is the relative optimality gap below which nodes are pruned.
	Gap float64

	// Log receives debug messages about the search. Optional.
	Log *zap.SugaredLogger
}

// NewBranchAndBound returns a solver with the given search limits.
func NewBranchAndBound(timeLimit time.Duration, maxNodes int, gap float64) *BranchAndBound {
	return &BranchAndBound{
		TimeLimit: timeLimit,
		MaxNodes:  maxNodes,
		Gap:       gap,
	}
}

// node is a subproblem: the binaries fixed so far and its parent's bound
type node struct {
	fixed []int8
	bound float64
}

// relaxation is a solved LP relaxation in minimization form
type relaxation struct {
	obj float64
	x   []float64
}

// problem is a Model with its objective flipped into minimization form
type problem struct {
	m        *Model
	cost     []float64
	constant float64
}

func newProblem(m *Model) *problem {
	obj, dir := m.Objective()
	sign := 1.0
	if dir == Maximize {
		sign = -1.0
	}

	cost := make([]float64, m.NumVars())
	for _, t := range obj.Terms {
		cost[t.Var] += sign * t.Coef
	}

	return &problem{
		m:        m,
		cost:     cost,
		constant: sign * obj.Constant,
	}
}

// Solve searches for an optimal assignment of m's variables. If a time or
// node limit ends the search early, the best solution found so far is
// returned with the Feasible status.
func (b *BranchAndBound) Solve(ctx context.Context, m *Model) (*Solution, error) {
	l := b.Log
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	l = l.With("model", m.Name)

	p := newProblem(m)
	lp := newDualSimplex(p)
	start := time.Now()

	root := make([]int8, m.NumVars())
	for i := range root {
		root[i] = free
	}
	stack := []node{{fixed: root, bound: math.Inf(-1)}}

	var incumbent []float64
	best := math.Inf(1)
	nodes := 0
	var stopped error

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if b.TimeLimit > 0 && time.Since(start) > b.TimeLimit {
			stopped = fmt.Errorf("time limit of %s reached", b.TimeLimit)
			break
		}
		if b.MaxNodes > 0 && nodes >= b.MaxNodes {
			stopped = fmt.Errorf("node limit of %d reached", b.MaxNodes)
			break
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if b.prune(n.bound, best) {
			continue
		}

		nodes++
		r, err := p.relax(ctx, lp, n.fixed)
		if errors.Is(err, ErrInfeasible) {
			continue
		} else if err != nil {
			return nil, err
		}
		if b.prune(r.obj, best) {
			continue
		}

		j := p.branchVar(r.x, n.fixed)
		if j < 0 {
			for v := range r.x {
				if m.Kind(Var(v)) == Binary {
					r.x[v] = math.Round(r.x[v])
				}
			}
			best = r.obj
			incumbent = r.x
			l.Debugw("new incumbent", "objective", best, "nodes", nodes)
			continue
		}

		down := append([]int8(nil), n.fixed...)
		down[j] = 0
		up := append([]int8(nil), n.fixed...)
		up[j] = 1

		// the side the relaxation leans to is explored first
		if r.x[j] >= 0.5 {
			stack = append(stack, node{fixed: down, bound: r.obj}, node{fixed: up, bound: r.obj})
		} else {
			stack = append(stack, node{fixed: up, bound: r.obj}, node{fixed: down, bound: r.obj})
		}
	}

	if incumbent == nil {
		if stopped != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoIncumbent, stopped)
		}
		return nil, ErrInfeasible
	}

	status := Optimal
	if stopped != nil {
		status = Feasible
		l.Warnw("search stopped early, keeping best solution", "reason", stopped, "nodes", nodes)
	}

	obj, _ := m.Objective()
	sol := NewSolution(status, obj.Eval(incumbent), incumbent)
	sol.Nodes = nodes
	l.Debugw("branch and bound finished", "status", status, "objective", sol.Objective, "nodes", nodes, "pivots", lp.Iterations, "seconds", time.Since(start).Seconds())
	return sol, nil
}

// prune reports whether a bound cannot improve on the incumbent
func (b *BranchAndBound) prune(bound, best float64) bool {
	if math.IsInf(best, 1) {
		return false
	}
	tol := math.Max(pruneTol, b.Gap*math.Max(1, math.Abs(best)))
	return bound >= best-tol
}

// branchVar returns the most fractional free binary, or -1 if the
// relaxation is integral.
func (p *problem) branchVar(x []float64, fixed []int8) int {
	branch := -1
	worst := intTol
	for j, f := range fixed {
		if f != free || p.m.Kind(Var(j)) != Binary {
			continue
		}
		if frac := math.Abs(x[j] - math.Round(x[j])); frac > worst {
			worst = frac
			branch = j
		}
	}
	return branch
}

// relax solves the LP relaxation of a node, warm started from the basis
// the previous node left behind.
func (p *problem) relax(ctx context.Context, lp *dualSimplex, fixed []int8) (*relaxation, error) {
	lp.fix(fixed)
	if err := lp.solve(ctx); err != nil {
		return nil, err
	}
	if lp.unbounded() {
		return nil, ErrUnbounded
	}

	x := lp.values()
	for j, f := range fixed {
		if f != free {
			x[j] = float64(f)
		}
	}
	return &relaxation{obj: p.value(x), x: x}, nil
}

// value is the minimization-form objective at x
func (p *problem) value(x []float64) float64 {
	sum := p.constant
	for j, c := range p.cost {
		sum += c * x[j]
	}
	return sum
}
