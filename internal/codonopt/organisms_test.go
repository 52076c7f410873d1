package codonopt

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestOrganisms(t *testing.T) {
	dbDir := t.TempDir()
	s := testStatistics(t)
	built := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)

	for _, o := range []Organism{
		{Name: "yeast", TaxID: "4932", Built: built},
		{Name: "ecoli", TaxID: "562", Normalized: true, Built: built},
	} {
		if err := AddOrganism(dbDir, o, s, 3); err != nil {
			t.Fatal(err)
		}
	}

	organisms, err := ListOrganisms(dbDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, o := range organisms {
		names = append(names, o.Name)
	}
	if want := []string{"ecoli", "yeast"}; !reflect.DeepEqual(names, want) {
		t.Errorf("ListOrganisms() = %v, want %v", names, want)
	}

	var buf bytes.Buffer
	if err = WriteOrganisms(&buf, organisms); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "ecoli\t562\ttrue\t2023-04-01 12:00:00") {
		t.Errorf("WriteOrganisms() = %q, missing ecoli", buf.String())
	}

	loaded, err := LoadOrganism(dbDir, "ecoli")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Fitness != s.Fitness {
		t.Errorf("LoadOrganism().Fitness = %v, want %v", loaded.Fitness, s.Fitness)
	}

	if err = DeleteOrganism(dbDir, "ecoli"); err != nil {
		t.Fatal(err)
	}
	if _, err = LoadOrganism(dbDir, "ecoli"); err == nil {
		t.Errorf("LoadOrganism() after delete error = nil, want an error")
	}
	if err = DeleteOrganism(dbDir, "ecoli"); err == nil {
		t.Errorf("DeleteOrganism() twice error = nil, want an error")
	}
}

func TestAddOrganism_name(t *testing.T) {
	s := testStatistics(t)
	for _, name := range []string{"", "../escape", "a/b"} {
		if err := AddOrganism(t.TempDir(), Organism{Name: name}, s, 3); err == nil {
			t.Errorf("AddOrganism(%q) error = nil, want an error", name)
		}
	}
}
