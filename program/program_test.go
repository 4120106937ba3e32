package program

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tuffy/model"
)

const smokingProgram = `
predicates:
  - name: Smokes
    arity: 1
    arg_types: [person]
  - name: Cancer
    arity: 1
    arg_types: [person]
    is_query: true

templates:
  - id: 1
    weight: 1.5
    atoms:
      - predicate: Smokes
        negated: true
        args: [x]
      - predicate: Cancer
        args: [x]
    vars:
      - name: x

evidence:
  Smokes:
    - args: [Anna]
      truth: true
  Cancer:
    - args: [Anna]
      query: true
`

func TestLoadParsesPredicatesTemplatesAndEvidence(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "smoking.yaml")
	require.NoError(t, os.WriteFile(p, []byte(smokingProgram), 0o644))

	prog, err := Load(p)
	require.NoError(t, err)
	require.Len(t, prog.Predicates, 2)
	require.Len(t, prog.Templates, 1)
	require.Len(t, prog.Templates[0].Atoms, 2)
	require.Len(t, prog.Templates[0].Vars, 1)

	smokes := prog.Evidence["Smokes"]
	require.Len(t, smokes, 1)
	require.Equal(t, model.TruthTrue, smokes[0].Truth)
	require.Equal(t, []string{"Anna"}, smokes[0].Args)

	cancer := prog.Evidence["Cancer"]
	require.Len(t, cancer, 1)
	require.Equal(t, model.TruthUnknown, cancer[0].Truth)
	require.Equal(t, model.ClubQuery, cancer[0].Club)
}

func TestLoadRejectsTemplateOverUnknownPredicate(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "bad.yaml")
	bad := `
predicates:
  - name: Smokes
    arity: 1
templates:
  - id: 1
    weight: 1.0
    atoms:
      - predicate: Ghost
        args: [x]
`
	require.NoError(t, os.WriteFile(p, []byte(bad), 0o644))
	_, err := Load(p)
	require.Error(t, err)
}

func TestSeedCallsSeedFuncPerPredicateWithEvidence(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "smoking.yaml")
	require.NoError(t, os.WriteFile(p, []byte(smokingProgram), 0o644))
	prog, err := Load(p)
	require.NoError(t, err)

	var seeded []string
	err = prog.Seed(func(predicate string, tuples []model.Tuple, active bool) error {
		seeded = append(seeded, predicate)
		require.False(t, active)
		require.NotEmpty(t, tuples)
		return nil
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Smokes", "Cancer"}, seeded)
}

func TestHardTemplateGetsHardWeight(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "hard.yaml")
	hard := `
predicates:
  - name: P
    arity: 1
templates:
  - id: 1
    hard: true
    atoms:
      - predicate: P
        args: [x]
    vars:
      - name: x
`
	require.NoError(t, os.WriteFile(p, []byte(hard), 0o644))
	prog, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, model.HardWeight, prog.Templates[0].Weight)
	require.True(t, prog.Templates[0].IsHardClause)
}
