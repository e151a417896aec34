// Package classify decides which kind of utility document a cleaned OCR text
// belongs to by scoring weighted keyword hits per type.
package classify

import (
	"github.com/rs/zerolog"

	"billtools/internal/lexicon"
	"billtools/internal/logger"
	"billtools/pkg/models"
)

// Keyword weights. Every occurrence counts.
const (
	WeightPrimary   = 40
	WeightSecondary = 20
	WeightStation   = 50
	WeightUsage     = 15

	// StationPresenceBonus is added once when any extended station name occurs.
	StationPresenceBonus = 60

	// MinScore must be exceeded for a type to be reported.
	MinScore = 20
)

type typeMatchers struct {
	primary   []lexicon.Matcher
	secondary []lexicon.Matcher
	stations  []lexicon.Matcher
	usage     []lexicon.Matcher
}

// Classifier scores text against the keyword tables of a lexicon.
type Classifier struct {
	types        map[models.UtilityType]typeMatchers
	stationBoost []lexicon.Matcher
	log          zerolog.Logger
}

// New compiles the keyword tables of lex.
func New(lex *lexicon.Lexicon) *Classifier {
	c := &Classifier{
		types:        make(map[models.UtilityType]typeMatchers, len(models.UtilityTypes)),
		stationBoost: lexicon.NewMatchers(lex.StationBoost),
		log:          logger.WithComponent("classifier"),
	}
	for _, t := range models.UtilityTypes {
		kw := lex.For(t)
		c.types[t] = typeMatchers{
			primary:   lexicon.NewMatchers(kw.Primary),
			secondary: lexicon.NewMatchers(kw.Secondary),
			stations:  lexicon.NewMatchers(kw.Stations),
			usage:     lexicon.NewMatchers(kw.Usage),
		}
	}
	return c
}

// Classify returns the arg-max utility type of text, or unknown when no type
// scores above MinScore. Ties go to the earlier type in models.UtilityTypes.
func (c *Classifier) Classify(text string) models.UtilityClassification {
	scores := c.Scores(text)

	best, bestScore := models.Unknown, 0
	for _, t := range models.UtilityTypes {
		if scores[t] > bestScore {
			best, bestScore = t, scores[t]
		}
	}

	result := models.UtilityClassification{
		Type:       models.Unknown,
		Confidence: clamp(bestScore),
		Scores:     scores,
	}
	if bestScore > MinScore {
		result.Type = best
	}

	c.log.Debug().
		Str("type", string(result.Type)).
		Int("confidence", result.Confidence).
		Interface("scores", scores).
		Msg("Document classified")

	return result
}

// Scores returns the raw keyword score of every type.
func (c *Classifier) Scores(text string) map[models.UtilityType]int {
	scores := make(map[models.UtilityType]int, len(models.UtilityTypes))
	for _, t := range models.UtilityTypes {
		m := c.types[t]
		score := countAll(m.primary, text)*WeightPrimary +
			countAll(m.secondary, text)*WeightSecondary +
			countAll(m.stations, text)*WeightStation +
			countAll(m.usage, text)*WeightUsage
		if t == models.Fuel && lexicon.ContainsAny(c.stationBoost, text) {
			score += StationPresenceBonus
		}
		scores[t] = score
	}
	return scores
}

func countAll(matchers []lexicon.Matcher, text string) int {
	n := 0
	for _, m := range matchers {
		n += m.Count(text)
	}
	return n
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
