package codonopt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lattice-Automation/codonopt/internal/config"
	"github.com/Lattice-Automation/codonopt/internal/milp"
	"github.com/TimothyStiles/poly/checks"
	"github.com/TimothyStiles/poly/seqhash"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Optimizer redesigns the DNA of protein sequences with one organism's
// statistics.
type Optimizer struct {
	Method    Method
	Threshold float64
	Organism  string
	Stats     *Statistics

	// NewSolver returns a solver used by a single solve at a time
	NewSolver func() milp.Solver

	// Workers is the number of sequences solved at once
	Workers int

	// Checkpoint stores solved results. Optional.
	Checkpoint *Checkpoint
}

// NewOptimizer creates an optimizer from settings. Every solve gets its own
// branch and bound solver with the configured limits.
func NewOptimizer(conf *config.Config, organism string, stats *Statistics) (*Optimizer, error) {
	method, err := ParseMethod(conf.Method)
	if err != nil {
		return nil, err
	}

	timeLimit := time.Duration(conf.SolverTimeLimit * float64(time.Second))
	return &Optimizer{
		Method:    method,
		Threshold: conf.Threshold,
		Organism:  organism,
		Stats:     stats,
		NewSolver: func() milp.Solver {
			s := milp.NewBranchAndBound(timeLimit, conf.SolverMaxNodes, conf.SolverGap)
			s.Log = rlog
			return s
		},
		Workers: conf.Workers,
	}, nil
}

// OptimizeAll optimizes every input. Sequences are independent: a failing
// sequence does not stop the others, and every failure is returned as a
// SequenceError. Results of the successful sequences are in input order.
func (o *Optimizer) OptimizeAll(ctx context.Context, inputs []Input) ([]*Result, error) {
	results := make([]*Result, len(inputs))
	errs := make([]error, len(inputs))

	workers := o.Workers
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			results[i], errs[i] = o.Optimize(ctx, i, in)
			return nil
		})
	}
	_ = g.Wait()

	var solved []*Result
	for _, r := range results {
		if r != nil {
			solved = append(solved, r)
		}
	}
	return solved, multierr.Combine(errs...)
}

// Optimize builds, solves and decodes the model of one sequence.
func (o *Optimizer) Optimize(ctx context.Context, index int, in Input) (*Result, error) {
	r, err := o.optimize(ctx, index, in)
	if err != nil {
		return nil, &SequenceError{Index: index, Name: in.Name, Err: err}
	}
	return r, nil
}

func (o *Optimizer) optimize(ctx context.Context, index int, in Input) (*Result, error) {
	protein, err := ParseProtein(in.Seq)
	if err != nil {
		return nil, err
	}
	l := rlog.With("sequence", in.Name, "index", index)

	hash := proteinHash(protein)
	key := checkpointKey(o.Organism, o.Stats.Fingerprint(), o.Method, o.Threshold, hash)
	if cached, err := o.Checkpoint.Load(key); err != nil {
		return nil, err
	} else if cached != nil {
		l.Debug("found result in checkpoint")
		cached.Index, cached.Name = index, in.Name
		return cached, nil
	}

	obj, err := newObjective(o.Method, o.Stats, o.Threshold)
	if err != nil {
		return nil, err
	}
	a, err := newAssignment(fmt.Sprintf("%s[%s]", o.Method, in.Name), protein)
	if err != nil {
		return nil, err
	}
	if err = obj.build(a); err != nil {
		return nil, err
	}
	l.Debugw("built model", "model", a.model.String())

	start := time.Now()
	sol, err := o.NewSolver().Solve(ctx, a.model)
	if errors.Is(err, milp.ErrInfeasible) {
		return nil, &SolverInfeasibleError{Method: o.Method, Threshold: o.Threshold}
	} else if err != nil {
		return nil, err
	}

	codons, err := decode(a, sol)
	if err != nil {
		return nil, err
	}
	coding := dna(codons)
	if translated, ok := translate(coding); !ok || translated.String() != protein.String() {
		return nil, fmt.Errorf("decoded DNA %s does not encode %s", coding, protein)
	}

	r := &Result{
		Index:     index,
		Name:      in.Name,
		Protein:   protein.String(),
		DNA:       coding,
		Objective: obj.value(sol),
		Status:    sol.Status.String(),
		CAI:       CAI(codons, o.Stats.Fitness),
		GC:        checks.GcContent(coding),
		Hash:      hash,
	}
	l.Infow("optimized", "objective", r.Objective, "status", r.Status, "cai", r.CAI, "nodes", sol.Nodes, "seconds", time.Since(start).Seconds())

	if err = o.Checkpoint.Save(key, r); err != nil {
		l.Warnw("failed to save checkpoint", "err", err)
	}
	return r, nil
}

// proteinHash is a stable identifier of a protein, its seqhash when the
// sequence is hashable
func proteinHash(p Protein) string {
	seq := strings.ReplaceAll(p.String(), Stop.String(), "*")
	hash, err := seqhash.Hash(seq, seqhash.PROTEIN, false, false)
	if err != nil {
		rlog.Debugw("falling back to the sequence as its hash", "err", err)
		return p.String()
	}
	return hash
}
