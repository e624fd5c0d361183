// Package policy loads the hierarchy allow-set and building class weight
// tables that drive filtering and scoring. The tables ship embedded and can
// be overridden with a YAML file so the Basel-Stadt specifics stay swappable.
package policy

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/basellab/superblock-cli/internal/model"
)

//go:embed policy.yaml
var defaultPolicy []byte

// BuildingTable maps one building dataset schema to score weights.
type BuildingTable struct {
	ClassField   string          `yaml:"class_field"`
	StatusField  string          `yaml:"status_field"`
	ActiveStatus int             `yaml:"active_status"`
	Weights      map[int]float64 `yaml:"weights"`
}

// Weight returns the score weight for a class code and whether the class
// qualifies at all.
func (t BuildingTable) Weight(class int) (float64, bool) {
	w, ok := t.Weights[class]
	return w, ok
}

// Policy is the full filtering and scoring policy for one run.
type Policy struct {
	Hierarchy struct {
		Allowed []string `yaml:"allowed"`
	} `yaml:"hierarchy"`
	GWR      BuildingTable `yaml:"gwr"`
	Cantonal BuildingTable `yaml:"cantonal"`

	allowed map[string]bool
}

// Load reads a policy file, or the embedded default when path is empty.
func Load(path string) (*Policy, error) {
	data := defaultPolicy
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "policy: read %s", path)
		}
		data = b
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "policy: unmarshal")
	}

	if len(p.Hierarchy.Allowed) == 0 {
		return nil, eris.New("policy: empty hierarchy allow-set")
	}
	if len(p.GWR.Weights) == 0 || len(p.Cantonal.Weights) == 0 {
		return nil, eris.New("policy: missing building weight table")
	}

	p.allowed = make(map[string]bool, len(p.Hierarchy.Allowed))
	for _, class := range p.Hierarchy.Allowed {
		p.allowed[class] = true
	}
	return &p, nil
}

// Allowed reports whether a hierarchy class stays in the calmed network.
func (p *Policy) Allowed(class string) bool {
	return p.allowed[class]
}

// Table returns the weight table for a building source.
func (p *Policy) Table(src model.BuildingSource) BuildingTable {
	if src == model.SourceCantonal {
		return p.Cantonal
	}
	return p.GWR
}
