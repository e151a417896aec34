package lexicon_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billtools/internal/lexicon"
	"billtools/pkg/models"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsFreshCopy(t *testing.T) {
	a := lexicon.Default()
	b := lexicon.Default()
	a.Electricity.Primary[0] = "changed"
	assert.NotEqual(t, "changed", b.Electricity.Primary[0])
	assert.Equal(t, lexicon.DefaultVersion, b.Version)
}

func TestFor(t *testing.T) {
	lex := lexicon.Default()
	assert.Contains(t, lex.For(models.Electricity).Primary, "tnb")
	assert.Equal(t, lexicon.TypeKeywords{}, lex.For(models.Unknown))
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeFile(t, `
version: test-1
station_boost: [buraqoil]
fuel_types:
  - label: euro 5 diesel
    grade: diesel
`)
	lex, err := lexicon.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-1", lex.Version)
	assert.Equal(t, []string{"buraqoil"}, lex.StationBoost)
	require.Len(t, lex.FuelTypes, 1)
	assert.Equal(t, lexicon.GradeDiesel, lex.FuelTypes[0].Grade)
	assert.Equal(t, lexicon.Default().Electricity, lex.Electricity)
}

func TestLoadRejects(t *testing.T) {
	_, err := lexicon.Load(writeFile(t, "fuel_types:\n  - label: kerosene\n    grade: jet\n"))
	assert.ErrorIs(t, err, lexicon.ErrInvalidLexicon)

	_, err = lexicon.Load(writeFile(t, "version: ''\n"))
	assert.ErrorIs(t, err, lexicon.ErrInvalidLexicon)

	_, err = lexicon.Load(writeFile(t, "version: [unterminated\n"))
	assert.Error(t, err)

	_, err = lexicon.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	lex, err := lexicon.Load("")
	require.NoError(t, err)
	assert.Equal(t, lexicon.DefaultVersion, lex.Version)
}

func TestMatcherWholeWords(t *testing.T) {
	m := lexicon.NewMatcher("Tenaga  Nasional")
	assert.True(t, m.Contains("bil TENAGA\nnasional berhad"))
	assert.False(t, m.Contains("tenaganasional"))
	assert.Equal(t, 4, m.Index("bil tenaga nasional"))
	assert.Equal(t, -1, m.Index("nothing"))

	unit := lexicon.NewMatcher("unit")
	assert.Equal(t, 2, unit.Count("unit, units and unit."))

	ron := lexicon.NewMatcher("ron95")
	assert.False(t, ron.Contains("ron955"))

	matchers := lexicon.NewMatchers([]string{"", "air", "syabas"})
	require.Len(t, matchers, 2)
	assert.True(t, lexicon.ContainsAny(matchers, "Bil SYABAS"))
	assert.False(t, lexicon.ContainsAny(matchers, "repair"))
}
