package codonopt

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// manifestFile lists the organisms built into a database directory
const manifestFile = "manifest.json"

// manifest is a serializable list of organisms with statistics tables.
type manifest struct {
	// Organisms is a map from organism name to its build info
	Organisms map[string]Organism `json:"organisms"`

	dir string
}

// Organism is one organism's statistics build.
type Organism struct {
	// Name of the organism, also its directory name
	Name string `json:"name"`

	// TaxID the codon counts were extracted for
	TaxID string `json:"taxid"`

	// Normalized is whether counts were rescaled before building
	Normalized bool `json:"normalized"`

	// Built is when the tables were written
	Built time.Time `json:"built"`
}

// newManifest reads the manifest of a database directory.
func newManifest(dir string) (*manifest, error) {
	contents, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &manifest{
				Organisms: map[string]Organism{},
				dir:       dir,
			}, nil
		}
		return nil, err
	}

	m := &manifest{dir: dir}
	if err = json.Unmarshal(contents, m); err != nil {
		return nil, err
	}
	if m.Organisms == nil {
		m.Organisms = map[string]Organism{}
	}
	return m, nil
}

// names returns the organism names in sorted order
func (m *manifest) names() []string {
	names := maps.Keys(m.Organisms)
	slices.Sort(names)
	return names
}

func (m *manifest) save() error {
	contents, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.dir, manifestFile), contents, 0644)
}

// OrganismDir is the directory of an organism's statistics tables.
func OrganismDir(dbDir, name string) string {
	return filepath.Join(dbDir, name)
}

// AddOrganism saves an organism's statistics and registers it in the manifest.
func AddOrganism(dbDir string, o Organism, s *Statistics, precision int) error {
	if o.Name == "" || filepath.Base(o.Name) != o.Name {
		return fmt.Errorf("invalid organism name %q", o.Name)
	}

	m, err := newManifest(dbDir)
	if err != nil {
		return err
	}

	l := rlog.With("organism", o.Name, "taxid", o.TaxID)
	if err = SaveStatistics(OrganismDir(dbDir, o.Name), s, precision); err != nil {
		l.Errorw("failed to save statistics", "err", err)
		return err
	}
	l.Debug("saved statistics")

	if o.Built.IsZero() {
		o.Built = time.Now()
	}
	m.Organisms[o.Name] = o
	return m.save()
}

// LoadOrganism reads an organism's statistics tables.
func LoadOrganism(dbDir, name string) (*Statistics, error) {
	m, err := newManifest(dbDir)
	if err != nil {
		return nil, err
	}
	if _, ok := m.Organisms[name]; !ok {
		return nil, fmt.Errorf("no organism named %q, known organisms: %v", name, m.names())
	}
	return LoadStatistics(OrganismDir(dbDir, name))
}

// ListOrganisms returns the built organisms sorted by name.
func ListOrganisms(dbDir string) ([]Organism, error) {
	m, err := newManifest(dbDir)
	if err != nil {
		return nil, err
	}

	organisms := make([]Organism, 0, len(m.Organisms))
	for _, name := range m.names() {
		organisms = append(organisms, m.Organisms[name])
	}
	return organisms, nil
}

// WriteOrganisms writes a tab separated listing of organisms.
func WriteOrganisms(w io.Writer, organisms []Organism) error {
	if _, err := fmt.Fprintf(w, "organism\ttaxid\tnormalized\tbuilt\n"); err != nil {
		return err
	}
	for _, o := range organisms {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", o.Name, o.TaxID, o.Normalized, o.Built.Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
	}
	return nil
}

// DeleteOrganism removes an organism's tables and its manifest entry.
func DeleteOrganism(dbDir, name string) error {
	m, err := newManifest(dbDir)
	if err != nil {
		return err
	}
	if _, ok := m.Organisms[name]; !ok {
		return fmt.Errorf("no organism named %q", name)
	}

	if err = os.RemoveAll(OrganismDir(dbDir, name)); err != nil {
		return err
	}
	delete(m.Organisms, name)
	return m.save()
}
