package codonopt

import (
	"strings"
)

// Codon is one of the 64 nucleotide triplets, identified by its position in
// the fixed codon order used by every statistics table.
type Codon int

// NumCodons is the number of codons in the genetic code.
const NumCodons = 64

// codonNames is the fixed codon order. Synonymous codons are contiguous.
var codonNames = [NumCodons]string{
	"ATT", "ATA", "ATC", "CTA", "CTC", "CTG", "CTT", "TTA", "TTG", "GTT", "GTA", "GTC", "GTG", "TTT", "TTC",
	"ATG", "TGT", "TGC", "GCA", "GCC", "GCG", "GCT", "GGT", "GGC", "GGA", "GGG", "CCT", "CCC", "CCA", "CCG",
	"ACT", "ACC", "ACA", "ACG", "TCT", "TCC", "TCA", "TCG", "AGT", "AGC", "TAT", "TAC", "TGG", "CAA", "CAG",
	"AAT", "AAC", "CAT", "CAC", "GAA", "GAG", "GAT", "GAC", "AAA", "AAG", "CGT", "CGC", "CGA", "CGG", "AGA",
	"AGG", "TAA", "TAG", "TGA",
}

// AminoAcid is a single letter amino acid symbol. Stop is 'X'.
type AminoAcid byte

// Stop is the symbol of the three stop codons.
const Stop AminoAcid = 'X'

// aminoAcids is the fixed amino acid order, 20 amino acids and stop
var aminoAcids = []AminoAcid{'I', 'L', 'V', 'F', 'M', 'C', 'A', 'G', 'P', 'T', 'S', 'Y', 'W', 'Q', 'N', 'H', 'E', 'D', 'K', 'R', 'X'}

// translation is the standard genetic code
var translation = map[string]AminoAcid{
	"ATA": 'I', "ATC": 'I', "ATT": 'I', "ATG": 'M',
	"ACA": 'T', "ACC": 'T', "ACG": 'T', "ACT": 'T',
	"AAC": 'N', "AAT": 'N', "AAA": 'K', "AAG": 'K',
	"AGC": 'S', "AGT": 'S', "AGA": 'R', "AGG": 'R',
	"CTA": 'L', "CTC": 'L', "CTG": 'L', "CTT": 'L',
	"CCA": 'P', "CCC": 'P', "CCG": 'P', "CCT": 'P',
	"CAC": 'H', "CAT": 'H', "CAA": 'Q', "CAG": 'Q',
	"CGA": 'R', "CGC": 'R', "CGG": 'R', "CGT": 'R',
	"GTA": 'V', "GTC": 'V', "GTG": 'V', "GTT": 'V',
	"GCA": 'A', "GCC": 'A', "GCG": 'A', "GCT": 'A',
	"GAC": 'D', "GAT": 'D', "GAA": 'E', "GAG": 'E',
	"GGA": 'G', "GGC": 'G', "GGG": 'G', "GGT": 'G',
	"TCA": 'S', "TCC": 'S', "TCG": 'S', "TCT": 'S',
	"TTC": 'F', "TTT": 'F', "TTA": 'L', "TTG": 'L',
	"TAC": 'Y', "TAT": 'Y', "TAA": 'X', "TAG": 'X',
	"TGC": 'C', "TGT": 'C', "TGA": 'X', "TGG": 'W',
}

var (
	// codonIndex maps a codon's name to its position in codonNames
	codonIndex = make(map[string]Codon, NumCodons)

	// codonAminoAcid is the amino acid of each codon, by codon index
	codonAminoAcid [NumCodons]AminoAcid

	// synonyms groups codons by the amino acid they encode, in codon order
	synonyms = make(map[AminoAcid][]Codon, len(aminoAcids))
)

func init() {
	for i, name := range codonNames {
		c := Codon(i)
		a := translation[name]
		codonIndex[name] = c
		codonAminoAcid[c] = a
		synonyms[a] = append(synonyms[a], c)
	}
}

func (c Codon) String() string {
	return codonNames[c]
}

// AminoAcid returns the amino acid encoded by the codon.
func (c Codon) AminoAcid() AminoAcid {
	return codonAminoAcid[c]
}

// ParseCodon returns the codon with the given (case insensitive) name.
func ParseCodon(s string) (Codon, bool) {
	c, ok := codonIndex[strings.ToUpper(s)]
	return c, ok
}

// Codons returns all codons in table order.
func Codons() []Codon {
	cs := make([]Codon, NumCodons)
	for i := range cs {
		cs[i] = Codon(i)
	}
	return cs
}

func (a AminoAcid) String() string {
	return string(rune(a))
}

// AminoAcids returns the 21 amino acid symbols in table order.
func AminoAcids() []AminoAcid {
	return append([]AminoAcid(nil), aminoAcids...)
}

// Synonyms returns the codons that encode a. The slice is shared and must
// not be modified. It is empty for unknown symbols.
func Synonyms(a AminoAcid) []Codon {
	return synonyms[a]
}

// Protein is an amino acid sequence.
type Protein []AminoAcid

// ParseProtein upper-cases and validates a protein sequence. Whitespace is
// dropped and '*' is read as the stop symbol.
func ParseProtein(s string) (Protein, error) {
	p := make(Protein, 0, len(s))
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			continue
		case r == '*':
			r = rune(Stop)
		case r >= 'a' && r <= 'z':
			r -= 'a' - 'A'
		}

		a := AminoAcid(r)
		if r > 'Z' || len(Synonyms(a)) == 0 {
			return nil, &UnsupportedSymbolError{Position: len(p), Symbol: r}
		}
		p = append(p, a)
	}
	return p, nil
}

func (p Protein) String() string {
	var b strings.Builder
	for _, a := range p {
		b.WriteByte(byte(a))
	}
	return b.String()
}

// counts returns how often each amino acid occurs in the protein
func (p Protein) counts() map[AminoAcid]int {
	counts := make(map[AminoAcid]int)
	for _, a := range p {
		counts[a]++
	}
	return counts
}

// pairCounts returns how often each ordered pair of amino acids occurs at
// adjacent positions
func (p Protein) pairCounts() map[[2]AminoAcid]int {
	counts := make(map[[2]AminoAcid]int)
	for i := 0; i+1 < len(p); i++ {
		counts[[2]AminoAcid{p[i], p[i+1]}]++
	}
	return counts
}

// dna concatenates codons into a DNA string
func dna(codons []Codon) string {
	var b strings.Builder
	b.Grow(3 * len(codons))
	for _, c := range codons {
		b.WriteString(c.String())
	}
	return b.String()
}

// translate returns the protein a DNA string encodes, or false if it is not
// a whole number of known codons
func translate(seq string) (Protein, bool) {
	if len(seq)%3 != 0 {
		return nil, false
	}
	p := make(Protein, 0, len(seq)/3)
	for i := 0; i < len(seq); i += 3 {
		c, ok := ParseCodon(seq[i : i+3])
		if !ok {
			return nil, false
		}
		p = append(p, c.AminoAcid())
	}
	return p, true
}
