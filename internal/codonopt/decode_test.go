package codonopt

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Lattice-Automation/codonopt/internal/milp"
)

func Test_decode(t *testing.T) {
	a, err := newAssignment("decode", mustProtein(t, "MK"))
	if err != nil {
		t.Fatal(err)
	}
	atg, _ := ParseCodon("ATG")
	aaa, _ := ParseCodon("AAA")
	aag, _ := ParseCodon("AAG")

	// set selects the named codons of position 1
	set := func(codons ...Codon) []float64 {
		values := make([]float64, a.model.NumVars())
		values[a.x[0][0].v] = 1
		for _, cv := range a.x[1] {
			for _, c := range codons {
				if cv.codon == c {
					values[cv.v] = 1
				}
			}
		}
		return values
	}

	tests := []struct {
		name    string
		values  []float64
		want    []Codon
		wantErr *InfeasibleSolutionError
	}{
		{
			"one codon per position",
			set(aag),
			[]Codon{atg, aag},
			nil,
		},
		{
			"no codon",
			set(),
			nil,
			&InfeasibleSolutionError{Position: 1},
		},
		{
			"two codons",
			set(aaa, aag),
			nil,
			&InfeasibleSolutionError{Position: 1, Selected: []Codon{aaa, aag}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decode(a, milp.NewSolution(milp.Optimal, 0, tt.values))
			if tt.wantErr != nil {
				var solErr *InfeasibleSolutionError
				if !errors.As(err, &solErr) {
					t.Fatalf("decode() error = %v, want %v", err, tt.wantErr)
				}
				if !reflect.DeepEqual(solErr, tt.wantErr) {
					t.Errorf("decode() error = %+v, want %+v", solErr, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("decode() = %v, want %v", got, tt.want)
			}
		})
	}
}
