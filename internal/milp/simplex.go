package milp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// primalTol is how far a basic variable may sit outside its bounds
	primalTol = 1e-7

	// dualTol is how far a reduced cost may have the wrong sign
	dualTol = 1e-9

	// pivotTol is the smallest pivot element accepted
	pivotTol = 1e-9

	// artificialBound boxes variables that would otherwise leave the basis
	// dual infeasible. A solution resting on it means the LP is unbounded.
	artificialBound = 1e7

	// blandAfter switches to smallest index pivoting after this many
	// iterations per row and column, which cannot cycle
	blandAfter = 10

	// giveUpAfter is the iteration budget per row and column
	giveUpAfter = 50
)

// column is a sparse column of the constraint matrix.
type column struct {
	rows []int
	vals []float64
}

func (c column) dot(y []float64) float64 {
	sum := 0.0
	for k, i := range c.rows {
		sum += c.vals[k] * y[i]
	}
	return sum
}

// dualSimplex solves the LP relaxations of one model with the bounded dual
// simplex method. Row i of the model reads A_i·x + s_i = b_i with a slack
// column s_i whose bounds carry the row's sense, so the slacks form the
// first basis.
//
// The matrix is built once per model. Search nodes only move the bounds of
// binaries, and reduced costs do not depend on bounds: a basis left behind
// by any node stays dual feasible for the next one once its nonbasic
// binaries sit at the bound their reduced cost points to. So every
// relaxation is warm started from the last one.
type dualSimplex struct {
	nRows   int
	nStruct int

	cols   []column
	cost   []float64
	lb, ub []float64
	binary []bool
	boxed  []bool
	b      []float64

	// basis is the basic column of each row, pos the row of a basic column
	// or -1
	basis []int
	pos   []int

	// x holds the value of every column, d the reduced costs
	x []float64
	d []float64

	// binv is the inverse of the basis matrix, updated with every pivot and
	// refactored from scratch every refactorEvery pivots
	binv          *mat.Dense
	pivots        int
	refactorEvery int

	// scratch
	alpha []float64
	w     []float64

	// Iterations counts the pivots of all solves
	Iterations int
}

func newDualSimplex(p *problem) *dualSimplex {
	m := p.m
	n := m.NumVars()
	constraints := m.Constraints()
	nRows := len(constraints)
	if nRows == 0 {
		// a single empty row keeps the basis non-empty
		nRows = 1
	}

	total := n + nRows
	s := &dualSimplex{
		nRows:         nRows,
		nStruct:       n,
		cols:          make([]column, total),
		cost:          make([]float64, total),
		lb:            make([]float64, total),
		ub:            make([]float64, total),
		binary:        make([]bool, total),
		boxed:         make([]bool, total),
		b:             make([]float64, nRows),
		basis:         make([]int, nRows),
		pos:           make([]int, total),
		x:             make([]float64, total),
		d:             make([]float64, total),
		binv:          mat.NewDense(nRows, nRows, nil),
		refactorEvery: nRows,
		alpha:         make([]float64, total),
		w:             make([]float64, nRows),
	}
	if s.refactorEvery < 100 {
		s.refactorEvery = 100
	}
	copy(s.cost, p.cost)

	for j := 0; j < n; j++ {
		s.ub[j] = math.Inf(1)
		if m.Kind(Var(j)) == Binary {
			s.ub[j] = 1
			s.binary[j] = true
		}
	}

	coefs := make(map[Var]float64)
	for i, c := range constraints {
		clear(coefs)
		for _, t := range c.Expr.Terms {
			coefs[t.Var] += t.Coef
		}
		for v, coef := range coefs {
			if coef == 0 {
				continue
			}
			s.cols[v].rows = append(s.cols[v].rows, i)
			s.cols[v].vals = append(s.cols[v].vals, coef)
		}
		s.b[i] = c.RHS - c.Expr.Constant

		slack := n + i
		switch c.Sense {
		case LessEqual:
			s.ub[slack] = math.Inf(1)
		case GreaterEqual:
			s.lb[slack] = math.Inf(-1)
		}
	}

	for i := 0; i < nRows; i++ {
		slack := n + i
		s.cols[slack] = column{rows: []int{i}, vals: []float64{1}}
		s.basis[i] = slack
		s.binv.Set(i, i, 1)
	}
	for j := range s.pos {
		s.pos[j] = -1
	}
	for i, j := range s.basis {
		s.pos[j] = i
	}

	// the slack basis has no basic costs, so the reduced costs are the costs
	copy(s.d, s.cost)
	return s
}

// fix applies a search node's fixed binaries to the bounds.
func (s *dualSimplex) fix(fixed []int8) {
	for j, f := range fixed {
		if !s.binary[j] {
			continue
		}
		if f == free {
			s.lb[j], s.ub[j] = 0, 1
		} else {
			s.lb[j], s.ub[j] = float64(f), float64(f)
		}
	}
}

// solve runs the dual simplex from the current basis until the basic
// solution is within its bounds.
func (s *dualSimplex) solve(ctx context.Context) error {
	s.box()
	s.place()
	s.computeBasics()

	size := s.nRows + len(s.cols)
	for iter := 0; ; iter++ {
		if iter%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if iter > giveUpAfter*size {
			return fmt.Errorf("milp: simplex made no progress in %d iterations", iter)
		}
		bland := iter > blandAfter*size

		r, increase := s.leaving(bland)
		if r < 0 {
			if s.box() {
				s.place()
				s.computeBasics()
				continue
			}
			return nil
		}

		q := s.entering(r, increase, bland)
		if q < 0 {
			return ErrInfeasible
		}
		if err := s.pivot(r, q); err != nil {
			return err
		}
	}
}

// unbounded reports whether the solution rests on an artificial bound
func (s *dualSimplex) unbounded() bool {
	for j, boxed := range s.boxed {
		if boxed && math.Abs(s.x[j]) >= artificialBound*(1-1e-9) {
			return true
		}
	}
	return false
}

// box gives an artificial bound to every nonbasic column whose reduced cost
// points to a side without a bound. It reports whether any bound was added.
func (s *dualSimplex) box() bool {
	changed := false
	for j := range s.cols {
		if s.pos[j] >= 0 {
			continue
		}
		switch {
		case s.d[j] < -dualTol && math.IsInf(s.ub[j], 1):
			s.ub[j] = artificialBound
		case s.d[j] > dualTol && math.IsInf(s.lb[j], -1):
			s.lb[j] = -artificialBound
		default:
			continue
		}
		s.boxed[j] = true
		changed = true
	}
	return changed
}

// place moves every nonbasic column to the bound its reduced cost points to
func (s *dualSimplex) place() {
	for j := range s.cols {
		if s.pos[j] >= 0 {
			continue
		}
		lo, hi := s.lb[j], s.ub[j]
		switch {
		case lo == hi:
			s.x[j] = lo
		case math.IsInf(lo, -1):
			s.x[j] = hi
		case math.IsInf(hi, 1):
			s.x[j] = lo
		case s.d[j] < 0:
			s.x[j] = hi
		case s.d[j] > 0:
			s.x[j] = lo
		case s.x[j] != hi:
			s.x[j] = lo
		}
	}
}

// computeBasics solves B·x_B = b - N·x_N
func (s *dualSimplex) computeBasics() {
	rhs := make([]float64, s.nRows)
	copy(rhs, s.b)
	for j, c := range s.cols {
		if s.pos[j] >= 0 || s.x[j] == 0 {
			continue
		}
		for k, i := range c.rows {
			rhs[i] -= c.vals[k] * s.x[j]
		}
	}

	var xb mat.VecDense
	xb.MulVec(s.binv, mat.NewVecDense(s.nRows, rhs))
	for i, j := range s.basis {
		s.x[j] = xb.AtVec(i)
	}
}

// computeDuals sets d = c - Aᵀ·B⁻ᵀ·c_B
func (s *dualSimplex) computeDuals() {
	cb := make([]float64, s.nRows)
	for i, j := range s.basis {
		cb[i] = s.cost[j]
	}

	var y mat.VecDense
	y.MulVec(s.binv.T(), mat.NewVecDense(s.nRows, cb))
	yv := y.RawVector().Data
	for j, c := range s.cols {
		if s.pos[j] >= 0 {
			s.d[j] = 0
			continue
		}
		s.d[j] = s.cost[j] - c.dot(yv)
	}
}

// refactor inverts the basis matrix from scratch
func (s *dualSimplex) refactor() error {
	B := mat.NewDense(s.nRows, s.nRows, nil)
	for i, j := range s.basis {
		c := s.cols[j]
		for k, r := range c.rows {
			B.Set(r, i, c.vals[k])
		}
	}

	var cond mat.Condition
	if err := s.binv.Inverse(B); err != nil && !errors.As(err, &cond) {
		return fmt.Errorf("milp: refactoring basis: %w", err)
	}
	s.pivots = 0
	s.computeBasics()
	s.computeDuals()
	return nil
}

// leaving picks the row of the basic variable furthest outside its bounds,
// or -1 when the basis is primal feasible. increase is whether it is below
// its lower bound.
func (s *dualSimplex) leaving(bland bool) (r int, increase bool) {
	r = -1
	worst := primalTol
	for i, j := range s.basis {
		v := s.x[j]
		below, above := s.lb[j]-v, v-s.ub[j]
		if below <= primalTol && above <= primalTol {
			continue
		}
		if bland {
			if r < 0 || j < s.basis[r] {
				r, increase = i, below > primalTol
			}
			continue
		}
		if below > worst {
			r, worst, increase = i, below, true
		}
		if above > worst {
			r, worst, increase = i, above, false
		}
	}
	return r, increase
}

// entering runs the ratio test over row r of B⁻¹A and returns the entering
// column, or -1 if no column can fix the row (the LP is infeasible). Row r
// is left in s.alpha for the pivot.
func (s *dualSimplex) entering(r int, increase, bland bool) int {
	rho := s.binv.RawRowView(r)

	// eligible columns move x_r toward its violated bound when they leave
	// their own bound
	eligible := func(j int) bool {
		if s.pos[j] >= 0 || s.lb[j] == s.ub[j] {
			return false
		}
		g := s.alpha[j]
		if s.x[j] != s.lb[j] {
			g = -g
		}
		if increase {
			g = -g
		}
		return g > pivotTol
	}

	// Harris' two pass test: the largest step the relaxed reduced costs
	// allow, then the largest pivot within it
	bound := math.Inf(1)
	for j, c := range s.cols {
		if s.pos[j] >= 0 {
			continue
		}
		s.alpha[j] = c.dot(rho)
		if !eligible(j) {
			continue
		}
		tol := dualTol
		if bland {
			tol = 0
		}
		if t := (math.Abs(s.d[j]) + tol) / math.Abs(s.alpha[j]); t < bound {
			bound = t
		}
	}

	q, best := -1, 0.0
	for j := range s.cols {
		if !eligible(j) {
			continue
		}
		a := math.Abs(s.alpha[j])
		if math.Abs(s.d[j])/a > bound {
			continue
		}
		if bland {
			return j
		}
		if a > best {
			q, best = j, a
		}
	}
	return q
}

// pivot swaps column q into the basis at row r, with s.alpha holding row r
// of B⁻¹A.
func (s *dualSimplex) pivot(r, q int) error {
	c := s.cols[q]
	for i := range s.w {
		s.w[i] = c.dot(s.binv.RawRowView(i))
	}
	pr := s.w[r]

	// the row and the column disagree on the pivot once updates drift
	if math.Abs(pr-s.alpha[q]) > 1e-7*(1+math.Abs(pr)) && s.pivots > 0 {
		return s.refactor()
	}
	if math.Abs(pr) < pivotTol {
		return fmt.Errorf("milp: pivot %g is too small", pr)
	}

	leave := s.basis[r]
	target := s.ub[leave]
	if s.x[leave] < s.lb[leave] {
		target = s.lb[leave]
	}

	delta := (s.x[leave] - target) / pr
	for i, j := range s.basis {
		s.x[j] -= delta * s.w[i]
	}
	s.x[q] += delta
	s.x[leave] = target

	theta := s.d[q] / s.alpha[q]
	for j := range s.cols {
		if s.pos[j] < 0 {
			s.d[j] -= theta * s.alpha[j]
		}
	}
	s.d[q] = 0
	s.d[leave] = -theta

	pivotRow := s.binv.RawRowView(r)
	floats.Scale(1/pr, pivotRow)
	for i, wi := range s.w {
		if i == r || wi == 0 {
			continue
		}
		floats.AddScaled(s.binv.RawRowView(i), -wi, pivotRow)
	}

	s.basis[r] = q
	s.pos[q] = r
	s.pos[leave] = -1
	s.Iterations++

	s.pivots++
	if s.pivots >= s.refactorEvery {
		return s.refactor()
	}
	return nil
}

// values returns the values of the model's variables
func (s *dualSimplex) values() []float64 {
	x := make([]float64, s.nStruct)
	copy(x, s.x[:s.nStruct])
	return x
}
