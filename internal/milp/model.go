// Package milp is for describing and solving mixed binary/continuous linear programs.
//
// A Model is solver-agnostic: it only records variables, linear constraints
// and a linear objective. Anything implementing Solver can consume it.
package milp

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInfeasible is returned when a model admits no feasible solution.
	ErrInfeasible = errors.New("milp: model is infeasible")

	// ErrUnbounded is returned when the objective can improve without limit.
	ErrUnbounded = errors.New("milp: model is unbounded")

	// ErrNoIncumbent is returned when a search limit is hit before any
	// feasible solution was found.
	ErrNoIncumbent = errors.New("milp: search stopped before a feasible solution was found")
)

// Solver solves a Model.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}

// Kind is the domain of a variable.
type Kind int

const (
	// Continuous variables are real valued and non-negative.
	Continuous Kind = iota

	// Binary variables take the values 0 or 1.
	Binary
)

func (k Kind) String() string {
	if k == Binary {
		return "binary"
	}
	return "continuous"
}

// Sense is the relation of a constraint's expression to its right hand side.
type Sense int

const (
	LessEqual Sense = iota
	Equal
	GreaterEqual
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	default:
		return "="
	}
}

// Direction is whether the objective is minimized or maximized.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

// Status is the outcome of a solve.
type Status int

const (
	// Optimal means the search completed and the solution is proven optimal.
	Optimal Status = iota

	// Feasible means a limit stopped the search; the best solution found is returned.
	Feasible

	Infeasible
	Unbounded
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	default:
		return "unbounded"
	}
}

// Var is a handle to a variable of one Model.
type Var int

// Term is a coefficient times a variable.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression: a sum of terms plus a constant.
type Expr struct {
	Terms    []Term
	Constant float64
}

// Add appends coef*v to the expression.
func (e *Expr) Add(v Var, coef float64) *Expr {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	return e
}

// AddConstant adds c to the expression's constant.
func (e *Expr) AddConstant(c float64) *Expr {
	e.Constant += c
	return e
}

// Scale multiplies every coefficient and the constant by k.
func (e *Expr) Scale(k float64) *Expr {
	for i := range e.Terms {
		e.Terms[i].Coef *= k
	}
	e.Constant *= k
	return e
}

// Eval returns the expression's value under an assignment of variables.
func (e Expr) Eval(values []float64) float64 {
	sum := e.Constant
	for _, t := range e.Terms {
		sum += t.Coef * values[t.Var]
	}
	return sum
}

// Constraint is a linear (in)equality.
type Constraint struct {
	Name  string
	Expr  Expr
	Sense Sense
	RHS   float64
}

// Satisfied reports whether the constraint holds within tol.
func (c Constraint) Satisfied(values []float64, tol float64) bool {
	lhs := c.Expr.Eval(values)
	switch c.Sense {
	case LessEqual:
		return lhs <= c.RHS+tol
	case GreaterEqual:
		return lhs >= c.RHS-tol
	default:
		return lhs >= c.RHS-tol && lhs <= c.RHS+tol
	}
}

type variable struct {
	name string
	kind Kind
}

// Model is a linear program whose variables may be binary.
type Model struct {
	Name string

	vars        []variable
	constraints []Constraint
	objective   Expr
	direction   Direction
}

// NewModel returns an empty model.
func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddBinary creates a 0/1 variable.
func (m *Model) AddBinary(name string) Var {
	m.vars = append(m.vars, variable{name: name, kind: Binary})
	return Var(len(m.vars) - 1)
}

// AddContinuous creates a non-negative real variable.
func (m *Model) AddContinuous(name string) Var {
	m.vars = append(m.vars, variable{name: name, kind: Continuous})
	return Var(len(m.vars) - 1)
}

// AddConstraint adds "e sense rhs" to the model.
func (m *Model) AddConstraint(name string, e Expr, sense Sense, rhs float64) {
	m.constraints = append(m.constraints, Constraint{Name: name, Expr: e, Sense: sense, RHS: rhs})
}

// SetObjective replaces the model's objective.
func (m *Model) SetObjective(e Expr, d Direction) {
	m.objective = e
	m.direction = d
}

// Objective returns the objective expression and its direction.
func (m *Model) Objective() (Expr, Direction) {
	return m.objective, m.direction
}

// Constraints returns the model's constraints in insertion order.
func (m *Model) Constraints() []Constraint {
	return m.constraints
}

// NumVars is the number of variables in the model.
func (m *Model) NumVars() int {
	return len(m.vars)
}

// NumConstraints is the number of constraints in the model.
func (m *Model) NumConstraints() int {
	return len(m.constraints)
}

// Kind returns the domain of v.
func (m *Model) Kind(v Var) Kind {
	return m.vars[v].kind
}

// VarName returns the name v was created with.
func (m *Model) VarName(v Var) string {
	return m.vars[v].name
}

func (m *Model) String() string {
	return fmt.Sprintf("%s: %d variables, %d constraints", m.Name, len(m.vars), len(m.constraints))
}

// Solution is a solved assignment of a Model's variables.
type Solution struct {
	Status Status

	// Objective is the objective expression evaluated at the solution.
	Objective float64

	// Nodes is the number of search nodes explored.
	Nodes int

	values []float64
}

// NewSolution wraps solved values for a model. Solver implementations use it.
func NewSolution(status Status, objective float64, values []float64) *Solution {
	return &Solution{Status: status, Objective: objective, values: values}
}

// Value returns the solved value of v.
func (s *Solution) Value(v Var) float64 {
	return s.values[v]
}

// Values returns the solved values indexed by Var.
func (s *Solution) Values() []float64 {
	return s.values
}
