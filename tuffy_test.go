package tuffy

import (
	"context"
	"math"
	"testing"

	"tuffy/config"
	"tuffy/metrics"
	"tuffy/model"
	"tuffy/store/memstore"
)

func smokingCancerSchema() []model.Predicate {
	return []model.Predicate{
		{Name: "Smokes", Arity: 1, ArgTypes: []string{"p"}},
		{Name: "Cancer", Arity: 1, ArgTypes: []string{"p"}, IsQuery: true},
	}
}

func TestDriverRunReportsHighMarginalForEvidencedSmoker(t *testing.T) {
	preds := smokingCancerSchema()
	s := memstore.New(preds)
	if err := s.Seed("Smokes", []model.Tuple{
		model.NewTuple([]string{"Anna"}, model.TruthTrue, model.ClubActive),
	}, true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.Seed("Cancer", []model.Tuple{
		model.NewTuple([]string{"Anna"}, model.TruthUnknown, model.ClubQuery),
	}, true); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tmpl := model.ClauseTemplate{
		ID:     1,
		Weight: 5.0,
		Atoms: []model.Atom{
			{Predicate: "Smokes", Negated: true, Args: []string{"x"}},
			{Predicate: "Cancer", Args: []string{"x"}},
		},
		Vars: []model.Variable{{Name: "x"}},
	}

	cfg := config.Default()
	cfg.MarkAllAtomsActive = true
	cfg.IterativeUnitPropagate = false
	cfg.Samples = 4000

	d := New(s, nil, cfg, metrics.New(nil), []model.ClauseTemplate{tmpl}, preds)
	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var cancerProb float64
	found := false
	for _, am := range res.Marginals {
		if am.Predicate == "Cancer" {
			cancerProb = am.Prob
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a labeled marginal for Cancer, got %+v", res.Marginals)
	}
	if cancerProb < 0.9 {
		t.Errorf("expected Cancer(Anna) to be highly likely given the smoking clause, got %v", cancerProb)
	}
	if res.Summary.Samples != cfg.Samples {
		t.Errorf("expected the summary to echo the configured sample count, got %d", res.Summary.Samples)
	}
}

func TestDriverRunReportsPinnedAtomsAtZeroOrOneAfterPropagation(t *testing.T) {
	preds := []model.Predicate{
		{Name: "Smokes", Arity: 1, ArgTypes: []string{"p"}},
	}
	s := memstore.New(preds)
	if err := s.Seed("Smokes", []model.Tuple{
		model.NewTuple([]string{"Anna"}, model.TruthUnknown, model.ClubActive),
	}, true); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tmpl := model.ClauseTemplate{
		ID:           1,
		Weight:       model.HardWeight,
		IsHardClause: true,
		Atoms: []model.Atom{
			{Predicate: "Smokes", Args: []string{"Anna"}},
		},
		Vars: nil,
	}

	cfg := config.Default()
	cfg.MarkAllAtomsActive = true
	cfg.IterativeUnitPropagate = true
	cfg.Samples = 10

	d := New(s, nil, cfg, metrics.New(nil), []model.ClauseTemplate{tmpl}, preds)
	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Marginals) != 1 {
		t.Fatalf("expected exactly one reported atom, got %d", len(res.Marginals))
	}
	if math.Abs(res.Marginals[0].Prob-1) > 1e-9 {
		t.Errorf("expected the hard unit clause to pin Smokes(Anna) true, got prob %v", res.Marginals[0].Prob)
	}
	if res.Summary.NumberUnits != 1 {
		t.Errorf("expected the summary to count exactly 1 forced unit, got %d", res.Summary.NumberUnits)
	}
}
