package codonopt

import (
	"fmt"
	"math"
	"strings"

	"github.com/Lattice-Automation/codonopt/internal/milp"
)

// Method is the optimization model put on top of the shared codon
// assignment.
type Method int

const (
	// MaxCPBstCAI maximizes the mean codon pair score while keeping the
	// codon adaptation index above the threshold.
	MaxCPBstCAI Method = iota

	// MinRCPBstRCB minimizes the relative codon pair bias while keeping the
	// relative codon bias below the threshold.
	MinRCPBstRCB
)

var methodNames = map[Method]string{
	MaxCPBstCAI:  "MaxCPBstCAI",
	MinRCPBstRCB: "MinRCPBstRCB",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod returns the method with the given case insensitive name.
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown method %q, expected %s or %s", s, MaxCPBstCAI, MinRCPBstRCB)
}

// objective adds a method's variables, constraints and objective to an
// assignment, and reports the solved objective in the method's units.
type objective interface {
	build(a *assignment) error
	value(sol *milp.Solution) float64
}

// newObjective returns a fresh objective for one sequence.
func newObjective(m Method, s *Statistics, threshold float64) (objective, error) {
	if math.IsNaN(threshold) {
		return nil, fmt.Errorf("threshold is not a number")
	}

	switch m {
	case MaxCPBstCAI:
		if threshold < 0 || threshold > 1 {
			return nil, fmt.Errorf("%s threshold %g is outside [0, 1]", m, threshold)
		}
		return &caiFloor{fitness: s.Fitness, cps: s.CPS, threshold: threshold}, nil
	case MinRCPBstRCB:
		if threshold < 0 {
			return nil, fmt.Errorf("%s threshold %g is negative", m, threshold)
		}
		return &rcbCeiling{codonFreq: s.ObservedCodons, pairFreq: s.ObservedPairs, threshold: threshold}, nil
	default:
		return nil, fmt.Errorf("unknown method %s", m)
	}
}

// caiFloor maximizes the mean codon pair score over adjacent positions:
//
//	max Σ Z[i,c1,c2]·CPS[c1,c2] / (N-1)
//	s.t. Σ X[i,c]·ln(w[c]) >= N·ln(τ)
//
// The constraint bounds the codon adaptation index, the geometric mean of
// the chosen codons' fitness w, from below by τ.
type caiFloor struct {
	fitness   CodonTable
	cps       PairTable
	threshold float64
}

func (o *caiFloor) build(a *assignment) error {
	n := float64(len(a.protein))

	var obj milp.Expr
	for _, pairs := range a.z {
		for _, z := range pairs {
			score := o.cps[z.first][z.second]
			if math.IsNaN(score) || math.IsInf(score, 0) {
				return &DataError{Table: "codon pair scores", Key: z.first.String() + z.second.String(), Reason: "score is not finite"}
			}
			obj.Add(z.v, score/(n-1))
		}
	}
	a.model.SetObjective(obj, milp.Maximize)

	// ln(0) is -Inf, a floor of zero cannot bind
	if o.threshold == 0 {
		return nil
	}

	var cai milp.Expr
	for _, codons := range a.x {
		for _, x := range codons {
			w := o.fitness[x.codon]
			if w <= 0 || w > 1 || math.IsNaN(w) {
				return &DataError{Table: "fitness values", Key: x.codon.String(), Reason: fmt.Sprintf("%v is outside (0, 1]", w)}
			}
			cai.Add(x.v, math.Log(w))
		}
	}
	a.model.AddConstraint("cai_floor", cai, milp.GreaterEqual, n*math.Log(o.threshold))
	return nil
}

func (o *caiFloor) value(sol *milp.Solution) float64 {
	return sol.Objective
}

// rowScale multiplies every row of the relative bias model
const rowScale = 100.0

// rcbCeiling minimizes the deviation of the sequence's codon pair usage from
// the organism's, aggregated per amino acid pair, while the codon usage
// deviation aggregated per amino acid stays below τ·N.
//
// Deviations are tracked at four levels: codonDev[c] and pairDev[c1,c2]
// bound the realized frequency from both sides; aaDev[a] and
// aaPairDev[a1,a2] are their means over the synonymous codons or codon
// pairs. Only amino acids and amino acid pairs in the sequence get
// deviation variables: the others have zero weight in both the objective
// and the ceiling.
type rcbCeiling struct {
	codonFreq CodonTable
	pairFreq  PairTable
	threshold float64

	// deviation variables of the last build
	codonDev  map[Codon]milp.Var
	pairDev   map[[2]Codon]milp.Var
	aaDev     map[AminoAcid]milp.Var
	aaPairDev map[[2]AminoAcid]milp.Var
	n         int
}

func (o *rcbCeiling) build(a *assignment) error {
	m := a.model
	p := a.protein
	o.n = len(p)
	o.codonDev = make(map[Codon]milp.Var)
	o.pairDev = make(map[[2]Codon]milp.Var)
	o.aaDev = make(map[AminoAcid]milp.Var)
	o.aaPairDev = make(map[[2]AminoAcid]milp.Var)

	counts := p.counts()
	pairCounts := p.pairCounts()
	xs := a.byCodon()
	zs := a.byPair()

	var rcb milp.Expr
	for _, aa := range aminoAcids {
		eta := counts[aa]
		if eta == 0 {
			continue
		}

		codons := Synonyms(aa)
		aaDev := m.AddContinuous(fmt.Sprintf("aaDev[%s]", aa))
		o.aaDev[aa] = aaDev
		var mean milp.Expr
		for _, c := range codons {
			dev := m.AddContinuous(fmt.Sprintf("codonDev[%s]", c))
			o.codonDev[c] = dev
			if err := o.bound(m, c.String(), xs[c], eta, o.codonFreq[c], dev); err != nil {
				return err
			}
			mean.Add(dev, rowScale/float64(len(codons)))
		}
		mean.Add(aaDev, -rowScale)
		m.AddConstraint(fmt.Sprintf("aa_dev[%s]", aa), mean, milp.Equal, 0)

		rcb.Add(aaDev, rowScale*float64(eta))
	}
	m.AddConstraint("rcb_ceiling", rcb, milp.LessEqual, rowScale*o.threshold*float64(len(p)))

	var obj milp.Expr
	for _, a1 := range aminoAcids {
		for _, a2 := range aminoAcids {
			eta := pairCounts[[2]AminoAcid{a1, a2}]
			if eta == 0 {
				continue
			}

			codons1, codons2 := Synonyms(a1), Synonyms(a2)
			aaPairDev := m.AddContinuous(fmt.Sprintf("aaPairDev[%s,%s]", a1, a2))
			o.aaPairDev[[2]AminoAcid{a1, a2}] = aaPairDev
			var mean milp.Expr
			for _, c1 := range codons1 {
				for _, c2 := range codons2 {
					key := [2]Codon{c1, c2}
					dev := m.AddContinuous(fmt.Sprintf("pairDev[%s,%s]", c1, c2))
					o.pairDev[key] = dev
					if err := o.bound(m, c1.String()+c2.String(), zs[key], eta, o.pairFreq[c1][c2], dev); err != nil {
						return err
					}
					mean.Add(dev, rowScale/float64(len(codons1)*len(codons2)))
				}
			}
			mean.Add(aaPairDev, -rowScale)
			m.AddConstraint(fmt.Sprintf("aa_pair_dev[%s,%s]", a1, a2), mean, milp.Equal, 0)

			obj.Add(aaPairDev, rowScale*float64(eta))
		}
	}
	m.SetObjective(obj, milp.Minimize)
	return nil
}

// bound keeps the realized frequency of a codon or codon pair, the share of
// its eta eligible positions it is selected at, within dev of its target:
//
//	100·Σvars/eta <= 100·(target + dev)
//	100·Σvars/eta >= 100·(target - dev)
func (o *rcbCeiling) bound(m *milp.Model, key string, vars []milp.Var, eta int, target float64, dev milp.Var) error {
	if math.IsNaN(target) || math.IsInf(target, 0) || target < 0 {
		return &DataError{Table: "observed frequencies", Key: key, Reason: fmt.Sprintf("%v is not a frequency", target)}
	}

	var upper, lower milp.Expr
	for _, v := range vars {
		upper.Add(v, rowScale/float64(eta))
		lower.Add(v, rowScale/float64(eta))
	}
	upper.Add(dev, -rowScale)
	lower.Add(dev, rowScale)
	m.AddConstraint(fmt.Sprintf("dev_upper[%s]", key), upper, milp.LessEqual, rowScale*target)
	m.AddConstraint(fmt.Sprintf("dev_lower[%s]", key), lower, milp.GreaterEqual, rowScale*target)
	return nil
}

// value is the relative codon pair bias per adjacent position pair
func (o *rcbCeiling) value(sol *milp.Solution) float64 {
	return sol.Objective / (rowScale * float64(o.n-1))
}
