package extract

import (
	"github.com/rs/zerolog"

	"billtools/internal/lexicon"
	"billtools/internal/logger"
	"billtools/pkg/models"
)

// Numeric capture groups shared by the rule lists. NumMoney allows at most
// two decimals so that a pump price such as "2.050" is never read as money.
const (
	NumMoney = `(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`
	NumQty   = `(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)`
)

// Extractor runs the field rule lists against cleaned text. It is safe for
// concurrent use; all tables are read-only after construction.
type Extractor struct {
	lex       *lexicon.Lexicon
	cache     *ReferenceCache
	providers map[models.UtilityType][]lexicon.Matcher
	stations  []lexicon.Matcher
	suffixes  []lexicon.Matcher
	fuelTypes []lexicon.Matcher
	log       zerolog.Logger
}

// New builds an Extractor over lex. cache may be nil, which disables the
// reference cache.
func New(lex *lexicon.Lexicon, cache *ReferenceCache) *Extractor {
	e := &Extractor{
		lex:       lex,
		cache:     cache,
		providers: make(map[models.UtilityType][]lexicon.Matcher, len(models.UtilityTypes)),
		stations:  lexicon.NewMatchers(append(append([]string{}, lex.Fuel.Stations...), lex.StationBoost...)),
		suffixes:  lexicon.NewMatchers(lex.BusinessSuffixes),
		log:       logger.WithComponent("extractor"),
	}
	for _, t := range models.UtilityTypes {
		e.providers[t] = lexicon.NewMatchers(lex.For(t).Providers)
	}
	for _, ft := range lex.FuelTypes {
		e.fuelTypes = append(e.fuelTypes, lexicon.NewMatcher(ft.Label))
	}
	return e
}

// Cache returns the reference cache in use, or nil.
func (e *Extractor) Cache() *ReferenceCache {
	return e.cache
}
