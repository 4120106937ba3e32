// Package program reads the on-disk description of an MLN run: the
// predicate schema, the weighted clause templates, and the evidence
// database, all in one YAML file, the same way config.Load reads a run's
// tunables from YAML.
package program

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tuffy/model"
)

// EvidenceTuple is one row of a predicate's evidence or query table as it
// appears in a program file.
type EvidenceTuple struct {
	Args     []string `yaml:"args"`
	Truth    string   `yaml:"truth"` // "true", "false", or "unknown" (default)
	Query    bool     `yaml:"query"`
	SoftProb *float64 `yaml:"soft_prob"`
}

type yamlPredicate struct {
	Name           string `yaml:"name"`
	Arity          int    `yaml:"arity"`
	ArgTypes       []string `yaml:"arg_types"`
	ClosedWorld    bool   `yaml:"closed_world"`
	IsQuery        bool   `yaml:"is_query"`
	HasSoftEvid    bool   `yaml:"has_soft_evidence"`
	KeyArgs        []int  `yaml:"key_args"`
}

type yamlAtom struct {
	Predicate string   `yaml:"predicate"`
	Negated   bool     `yaml:"negated"`
	Args      []string `yaml:"args"`
}

type yamlVariable struct {
	Name        string `yaml:"name"`
	Existential bool   `yaml:"existential"`
}

type yamlTemplate struct {
	ID     int            `yaml:"id"`
	Weight float64        `yaml:"weight"`
	Hard   bool           `yaml:"hard"`
	Atoms  []yamlAtom     `yaml:"atoms"`
	Vars   []yamlVariable `yaml:"vars"`
}

type yamlFile struct {
	Predicates []yamlPredicate              `yaml:"predicates"`
	Templates  []yamlTemplate               `yaml:"templates"`
	Evidence   map[string][]EvidenceTuple   `yaml:"evidence"`
}

// Program is a fully parsed MLN: a predicate schema, a set of weighted
// clause templates, and the evidence/query tuples to seed a GroundStore
// with before running a Driver.
type Program struct {
	Predicates []model.Predicate
	Templates  []model.ClauseTemplate
	Evidence   map[string][]model.Tuple
}

// Load reads and validates a Program from a YAML file at path.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("program: read %s: %w", path, err)
	}
	var y yamlFile
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("program: parse %s: %w", path, err)
	}
	return fromYAML(&y)
}

func fromYAML(y *yamlFile) (*Program, error) {
	p := &Program{
		Evidence: make(map[string][]model.Tuple, len(y.Evidence)),
	}

	known := make(map[string]bool, len(y.Predicates))
	for _, yp := range y.Predicates {
		if yp.Name == "" {
			return nil, fmt.Errorf("program: predicate with empty name")
		}
		if known[yp.Name] {
			return nil, fmt.Errorf("program: duplicate predicate %q", yp.Name)
		}
		known[yp.Name] = true
		p.Predicates = append(p.Predicates, model.Predicate{
			Name:             yp.Name,
			Arity:            yp.Arity,
			ArgTypes:         yp.ArgTypes,
			ClosedWorld:      yp.ClosedWorld,
			IsQuery:          yp.IsQuery,
			HasSoftEvid:      yp.HasSoftEvid,
			IsKeyConstrained: len(yp.KeyArgs) > 0,
			KeyArgs:          yp.KeyArgs,
		})
	}

	for i, yt := range y.Templates {
		tmpl := model.ClauseTemplate{ID: yt.ID, Weight: yt.Weight, IsHardClause: yt.Hard}
		if yt.Hard {
			tmpl.Weight = model.HardWeight
		}
		for _, ya := range yt.Atoms {
			if !known[ya.Predicate] {
				return nil, fmt.Errorf("program: template %d references unknown predicate %q", i, ya.Predicate)
			}
			tmpl.Atoms = append(tmpl.Atoms, model.Atom{Predicate: ya.Predicate, Negated: ya.Negated, Args: ya.Args})
		}
		for _, yv := range yt.Vars {
			tmpl.Vars = append(tmpl.Vars, model.Variable{Name: yv.Name, Existential: yv.Existential})
		}
		p.Templates = append(p.Templates, tmpl)
	}

	for predicate, rows := range y.Evidence {
		if !known[predicate] {
			return nil, fmt.Errorf("program: evidence for unknown predicate %q", predicate)
		}
		for _, row := range rows {
			truth, err := parseTruth(row.Truth)
			if err != nil {
				return nil, fmt.Errorf("program: predicate %q: %w", predicate, err)
			}
			club := model.ClubActive
			switch {
			case row.Query && truth == model.TruthTrue:
				club = model.ClubQueryEvidTrue
			case row.Query:
				club = model.ClubQuery
			}
			t := model.NewTuple(row.Args, truth, club)
			if row.SoftProb != nil {
				t.SoftProb = *row.SoftProb
			}
			p.Evidence[predicate] = append(p.Evidence[predicate], t)
		}
	}

	return p, nil
}

func parseTruth(s string) (model.TruthState, error) {
	switch s {
	case "", "unknown":
		return model.TruthUnknown, nil
	case "true":
		return model.TruthTrue, nil
	case "false":
		return model.TruthFalse, nil
	default:
		return model.TruthUnknown, fmt.Errorf("invalid truth value %q", s)
	}
}

// Seed loads every predicate's evidence/query tuples into a store via the
// given seed function, which adapts to whichever GroundStore backend the
// caller has opened (their Seed signatures differ slightly: store/sqlite
// takes a context, store/memstore and store/mangle do not).
//
// Every tuple is loaded inactive: plain evidence and query atoms earn their
// way into the closure's active set the way worthActivating discovers any
// other atom, and soft-evidence atoms are activated separately by the
// grounder once it knows the run's activation threshold. Seeding everything
// active here would defeat the closure entirely, activating the full
// evidence domain regardless of whether any clause could ever reference it.
func (p *Program) Seed(seed func(predicate string, tuples []model.Tuple, active bool) error) error {
	for _, pred := range p.Predicates {
		tuples := p.Evidence[pred.Name]
		if tuples == nil {
			continue
		}
		if err := seed(pred.Name, tuples, false); err != nil {
			return fmt.Errorf("program: seeding %s: %w", pred.Name, err)
		}
	}
	return nil
}
