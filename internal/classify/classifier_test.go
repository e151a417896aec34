package classify_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billtools/internal/classify"
	"billtools/internal/lexicon"
	"billtools/pkg/models"
)

func newClassifier() *classify.Classifier {
	return classify.New(lexicon.Default())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.UtilityType
	}{
		{
			name: "electricity table row",
			text: "kegunaan 1387 unit kwh caj semasa rm 775.11 no meter 323421565",
			want: models.Electricity,
		},
		{
			name: "fuel receipt",
			text: "PETRONAS MESRA\nPRIMAX 95\n4.855Ltr@RM2.050/ltr\nTOTAL RM 9.95",
			want: models.Fuel,
		},
		{
			name: "station name alone",
			text: "CALTEX\nTOTAL RM 50.00",
			want: models.Fuel,
		},
		{
			name: "water bill",
			text: "Pengurusan Air Selangor\nBil Air\nPenggunaan 23 m3",
			want: models.Water,
		},
		{
			name: "gas bill",
			text: "Gas Malaysia Berhad\nNatural Gas usage 12.5 MMBtu",
			want: models.Gas,
		},
		{
			name: "no keywords",
			text: "hello world 12345",
			want: models.Unknown,
		},
		{
			name: "empty",
			text: "",
			want: models.Unknown,
		},
	}

	c := newClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			assert.Equal(t, tt.want, got.Type, "scores: %v", got.Scores)
		})
	}
}

func TestClassifyUnknownBelowThreshold(t *testing.T) {
	// a single secondary keyword scores exactly the threshold
	got := newClassifier().Classify("power")
	assert.Equal(t, models.Unknown, got.Type)
	assert.Equal(t, classify.MinScore, got.Scores[models.Electricity])
	assert.Equal(t, classify.MinScore, got.Confidence)
}

func TestClassifyConfidenceIsClamped(t *testing.T) {
	got := newClassifier().Classify(strings.Repeat("tnb ", 10))
	require.Equal(t, models.Electricity, got.Type)
	assert.Equal(t, 100, got.Confidence)
	assert.Equal(t, 400, got.Scores[models.Electricity])
}

func TestClassifyCountsEveryOccurrence(t *testing.T) {
	c := newClassifier()
	one := c.Scores("kwh")[models.Electricity]
	three := c.Scores("kwh kwh kwh")[models.Electricity]
	assert.Equal(t, classify.WeightUsage, one)
	assert.Equal(t, 3*classify.WeightUsage, three)
}

func TestClassifyPrimaryMonotonic(t *testing.T) {
	c := newClassifier()
	base := "bil elektrik caj semasa rm 120.00 petronas"
	for _, tc := range []struct {
		typ     models.UtilityType
		keyword string
	}{
		{models.Electricity, "tnb"},
		{models.Fuel, "primax"},
		{models.Water, "syabas"},
		{models.Gas, "gas malaysia"},
	} {
		prev := c.Scores(base)[tc.typ]
		text := base
		for i := 0; i < 5; i++ {
			text += " " + tc.keyword
			score := c.Scores(text)[tc.typ]
			assert.GreaterOrEqual(t, score, prev, "%s after %d extra %q", tc.typ, i+1, tc.keyword)
			prev = score
		}
	}
}

func TestClassifyWholeWords(t *testing.T) {
	// "air" inside "repair" and "unit" inside "community" are not hits
	scores := newClassifier().Scores("repair community")
	assert.Zero(t, scores[models.Water])
	assert.Zero(t, scores[models.Electricity])
}

func ExampleClassifier_Classify() {
	c := classify.New(lexicon.Default())
	got := c.Classify("kegunaan 1387 unit kwh caj semasa rm 775.11 no meter 323421565")
	fmt.Println(got.Type, got.Confidence)
	// Output: electricity 45
}
