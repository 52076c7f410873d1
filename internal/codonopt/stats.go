package codonopt

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/Lattice-Automation/codonopt/internal/config"
	"lukechampine.com/blake3"
)

// CodonTable holds one value per codon, indexed by Codon.
type CodonTable [NumCodons]float64

// PairTable holds one value per ordered codon pair, indexed by the first
// and then the second Codon.
type PairTable [NumCodons][NumCodons]float64

const (
	// DefaultPairEpsilon replaces zero codon pair counts before a logarithm is taken.
	DefaultPairEpsilon = 0.001

	// DefaultNormalizationTotal is what frequency tables sum to after normalization.
	DefaultNormalizationTotal = 124.0

	// DefaultFitnessPrecision is the number of decimal digits fitness values keep.
	DefaultFitnessPrecision = 2
)

// StatsOptions tunes how raw counts become statistics.
type StatsOptions struct {
	// Normalize rescales both the codon and the pair table to NormalizationTotal
	Normalize bool

	NormalizationTotal float64

	// PairEpsilon is substituted for zero codon pair counts
	PairEpsilon float64

	// FitnessPrecision is the number of decimals fitness values are rounded to
	FitnessPrecision int
}

// DefaultStatsOptions returns the options used without a settings file.
func DefaultStatsOptions() StatsOptions {
	return StatsOptions{
		NormalizationTotal: DefaultNormalizationTotal,
		PairEpsilon:        DefaultPairEpsilon,
		FitnessPrecision:   DefaultFitnessPrecision,
	}
}

// StatsOptionsFrom reads statistics options from settings.
func StatsOptionsFrom(c *config.Config) StatsOptions {
	return StatsOptions{
		Normalize:          c.NormalizeFrequencies,
		NormalizationTotal: c.NormalizationTotal,
		PairEpsilon:        c.PairFrequencyEpsilon,
		FitnessPrecision:   c.FitnessPrecision,
	}
}

// Statistics are the codon usage tables of one organism.
type Statistics struct {
	// Fitness is each codon's frequency relative to its most frequent synonym
	Fitness CodonTable

	// CPS is the codon pair score of each ordered codon pair
	CPS PairTable

	// ObservedCodons is each codon's share of its synonym group
	ObservedCodons CodonTable

	// ObservedPairs is each codon pair's share of its amino acid pair
	ObservedPairs PairTable
}

// Fingerprint is a hex digest of every table. Rebuilding an organism from
// other counts changes it.
func (s *Statistics) Fingerprint() string {
	buf := make([]byte, 0, 16*(NumCodons+NumCodons*NumCodons))
	for _, table := range []CodonTable{s.Fitness, s.ObservedCodons} {
		for _, v := range table {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	for _, table := range []PairTable{s.CPS, s.ObservedPairs} {
		for _, row := range table {
			for _, v := range row {
				buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
			}
		}
	}
	sum := blake3.Sum256(buf)
	return hex.EncodeToString(sum[:16])
}

// Prepare derives all statistics tables from raw codon and codon pair
// counts. The inputs are not modified.
func Prepare(codonFreq CodonTable, pairFreq PairTable, opts StatsOptions) (*Statistics, error) {
	var err error
	if opts.Normalize {
		if codonFreq, err = NormalizeCodonFrequencies(codonFreq, opts.NormalizationTotal); err != nil {
			return nil, err
		}
		if pairFreq, err = NormalizePairFrequencies(pairFreq, opts.NormalizationTotal); err != nil {
			return nil, err
		}
	}

	corrected := CorrectZeroPairs(pairFreq, opts.PairEpsilon)

	s := &Statistics{}
	if s.Fitness, err = ComputeFitnessValues(codonFreq, opts.FitnessPrecision); err != nil {
		return nil, err
	}
	if s.CPS, err = codonPairScore(codonFreq, corrected); err != nil {
		return nil, err
	}
	if s.ObservedCodons, err = ObservedCodonFrequencies(codonFreq); err != nil {
		return nil, err
	}
	if s.ObservedPairs, err = observedPairFrequencies(corrected); err != nil {
		return nil, err
	}
	return s, nil
}

// ComputeFitnessValues divides each codon's frequency by the largest
// frequency among its synonyms and rounds to precision decimals. Values that
// round to zero are raised to the smallest positive value at that precision
// so every fitness value has a finite logarithm.
func ComputeFitnessValues(freq CodonTable, precision int) (CodonTable, error) {
	var fitness CodonTable
	if err := validateCodonTable("codon frequencies", freq); err != nil {
		return fitness, err
	}

	floor := math.Pow(10, -float64(precision))
	floored := 0
	for _, a := range aminoAcids {
		max := 0.0
		for _, c := range Synonyms(a) {
			max = math.Max(max, freq[c])
		}
		if max == 0 {
			return fitness, &DataError{Table: "codon frequencies", Key: a.String(), Reason: "every synonymous codon has zero frequency"}
		}

		for _, c := range Synonyms(a) {
			f := round(freq[c]/max, precision)
			if f == 0 {
				f = floor
				floored++
			}
			fitness[c] = f
		}
	}

	if floored > 0 {
		rlog.Warnw("raised fitness values that rounded to zero", "codons", floored, "value", floor)
	}
	return fitness, nil
}

// ComputeCodonPairScore returns the log ratio of each codon pair's observed
// frequency to the frequency expected if codons were paired independently
// within their amino acid pair. Zero pair counts are replaced with epsilon.
func ComputeCodonPairScore(freq CodonTable, pairFreq PairTable, epsilon float64) (PairTable, error) {
	return codonPairScore(freq, CorrectZeroPairs(pairFreq, epsilon))
}

func codonPairScore(freq CodonTable, pairFreq PairTable) (PairTable, error) {
	var cps PairTable
	if err := validateCodonTable("codon frequencies", freq); err != nil {
		return cps, err
	}
	if err := validatePairTable("codon pair frequencies", pairFreq); err != nil {
		return cps, err
	}
	for c, f := range freq {
		if f == 0 {
			return cps, &DataError{Table: "codon frequencies", Key: Codon(c).String(), Reason: "zero frequency leaves the codon pair score undefined"}
		}
	}

	aaFreq := aminoAcidFrequencies(freq)
	aaPairFreq := aminoAcidPairFrequencies(pairFreq)
	for i := range cps {
		c1 := Codon(i)
		for j := range cps[i] {
			c2 := Codon(j)
			a1, a2 := c1.AminoAcid(), c2.AminoAcid()

			expected := freq[c1] * freq[c2] * aaPairFreq[[2]AminoAcid{a1, a2}]
			observed := pairFreq[c1][c2] * aaFreq[a1] * aaFreq[a2]
			score := math.Log(observed / expected)
			if math.IsNaN(score) || math.IsInf(score, 0) {
				return cps, &DataError{Table: "codon pair frequencies", Key: c1.String() + c2.String(), Reason: "codon pair score is not finite"}
			}
			cps[i][j] = score
		}
	}
	return cps, nil
}

// CorrectZeroPairs returns a copy of the pair table with zero entries
// replaced by epsilon.
func CorrectZeroPairs(pairFreq PairTable, epsilon float64) PairTable {
	corrected := pairFreq
	zeros := 0
	for i := range corrected {
		for j := range corrected[i] {
			if corrected[i][j] == 0 {
				corrected[i][j] = epsilon
				zeros++
			}
		}
	}

	if zeros > 0 {
		rlog.Warnw("replaced zero codon pair frequencies", "pairs", zeros, "epsilon", epsilon)
	}
	return corrected
}

// NormalizeCodonFrequencies rescales the table so it sums to total.
func NormalizeCodonFrequencies(freq CodonTable, total float64) (CodonTable, error) {
	sum := 0.0
	for _, f := range freq {
		sum += f
	}
	if sum <= 0 {
		return freq, &DataError{Table: "codon frequencies", Reason: "frequencies sum to zero"}
	}

	var normalized CodonTable
	for c, f := range freq {
		normalized[c] = f / sum * total
	}
	return normalized, nil
}

// NormalizePairFrequencies rescales the table so it sums to total.
func NormalizePairFrequencies(pairFreq PairTable, total float64) (PairTable, error) {
	sum := 0.0
	for i := range pairFreq {
		for _, f := range pairFreq[i] {
			sum += f
		}
	}
	if sum <= 0 {
		return pairFreq, &DataError{Table: "codon pair frequencies", Reason: "frequencies sum to zero"}
	}

	var normalized PairTable
	for i := range pairFreq {
		for j, f := range pairFreq[i] {
			normalized[i][j] = f / sum * total
		}
	}
	return normalized, nil
}

// ObservedCodonFrequencies returns each codon's frequency as a share of its
// synonym group.
func ObservedCodonFrequencies(freq CodonTable) (CodonTable, error) {
	var observed CodonTable
	if err := validateCodonTable("codon frequencies", freq); err != nil {
		return observed, err
	}

	aaFreq := aminoAcidFrequencies(freq)
	for c, f := range freq {
		a := Codon(c).AminoAcid()
		if aaFreq[a] == 0 {
			return observed, &DataError{Table: "codon frequencies", Key: a.String(), Reason: "amino acid was never observed"}
		}
		observed[c] = f / aaFreq[a]
	}
	return observed, nil
}

// ObservedPairFrequencies returns each codon pair's frequency as a share of
// its amino acid pair. Zero pair counts are replaced with epsilon first.
func ObservedPairFrequencies(pairFreq PairTable, epsilon float64) (PairTable, error) {
	return observedPairFrequencies(CorrectZeroPairs(pairFreq, epsilon))
}

func observedPairFrequencies(pairFreq PairTable) (PairTable, error) {
	var observed PairTable
	if err := validatePairTable("codon pair frequencies", pairFreq); err != nil {
		return observed, err
	}

	aaPairFreq := aminoAcidPairFrequencies(pairFreq)
	for i := range pairFreq {
		for j, f := range pairFreq[i] {
			key := [2]AminoAcid{Codon(i).AminoAcid(), Codon(j).AminoAcid()}
			if aaPairFreq[key] == 0 {
				return observed, &DataError{Table: "codon pair frequencies", Key: string(key[0]) + string(key[1]), Reason: "amino acid pair was never observed"}
			}
			observed[i][j] = f / aaPairFreq[key]
		}
	}
	return observed, nil
}

// CAI is the codon adaptation index: the geometric mean fitness of the codons.
func CAI(codons []Codon, fitness CodonTable) float64 {
	if len(codons) == 0 {
		return 0
	}

	sum := 0.0
	for _, c := range codons {
		sum += math.Log(fitness[c])
	}
	return math.Exp(sum / float64(len(codons)))
}

// aminoAcidFrequencies sums codon frequencies per amino acid
func aminoAcidFrequencies(freq CodonTable) map[AminoAcid]float64 {
	aaFreq := make(map[AminoAcid]float64, len(aminoAcids))
	for c, f := range freq {
		aaFreq[Codon(c).AminoAcid()] += f
	}
	return aaFreq
}

// aminoAcidPairFrequencies sums codon pair frequencies per amino acid pair
func aminoAcidPairFrequencies(pairFreq PairTable) map[[2]AminoAcid]float64 {
	aaPairFreq := make(map[[2]AminoAcid]float64, len(aminoAcids)*len(aminoAcids))
	for i := range pairFreq {
		for j, f := range pairFreq[i] {
			aaPairFreq[[2]AminoAcid{Codon(i).AminoAcid(), Codon(j).AminoAcid()}] += f
		}
	}
	return aaPairFreq
}

func validateCodonTable(table string, t CodonTable) error {
	for c, f := range t {
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return &DataError{Table: table, Key: Codon(c).String(), Reason: fmt.Sprintf("%v is not a frequency", f)}
		}
	}
	return nil
}

func validatePairTable(table string, t PairTable) error {
	for i := range t {
		for j, f := range t[i] {
			if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
				return &DataError{Table: table, Key: Codon(i).String() + Codon(j).String(), Reason: fmt.Sprintf("%v is not a frequency", f)}
			}
		}
	}
	return nil
}

// round rounds x to precision decimals
func round(x float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Round(x*scale) / scale
}
