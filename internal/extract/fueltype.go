package extract

import (
	"regexp"

	"billtools/internal/lexicon"
)

// FuelType is the detected pump product.
type FuelType struct {
	Label      string
	Grade      string
	Confidence int
	Found      bool
}

var (
	reGrade95 = regexp.MustCompile(`(?:^|[^\d.,])95(?:$|[^\d.,])`)
	reGrade97 = regexp.MustCompile(`(?:^|[^\d.,])97(?:$|[^\d.,])`)
)

// FuelType returns the first lexicon label found in text, then a bare "95" or
// "97" grade. With nothing found it reports generic petrol.
func (e *Extractor) FuelType(text string) FuelType {
	for i, m := range e.fuelTypes {
		if m.Contains(text) {
			ft := e.lex.FuelTypes[i]
			return FuelType{Label: ft.Label, Grade: ft.Grade, Confidence: FuelTypeLabelScore, Found: true}
		}
	}
	switch {
	case reGrade97.MatchString(text):
		return FuelType{Label: "97", Grade: lexicon.GradeRON97, Confidence: FuelTypeGradeScore, Found: true}
	case reGrade95.MatchString(text):
		return FuelType{Label: "95", Grade: lexicon.GradeRON95, Confidence: FuelTypeGradeScore, Found: true}
	}
	return FuelType{Label: lexicon.GradePetrol, Grade: lexicon.GradePetrol}
}
