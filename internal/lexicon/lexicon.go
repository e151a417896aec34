// Package lexicon holds the bilingual (English/Malay) keyword tables used by
// the classifier and the field extractors.
//
// A Lexicon is loaded once at process start, either from the built-in
// defaults or from a YAML file layered over them, and is passed explicitly to
// the components that need it. Nothing mutates it afterwards.
package lexicon

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"billtools/pkg/models"
)

// DefaultVersion identifies the built-in keyword tables.
const DefaultVersion = "MY-2024.1"

// ErrInvalidLexicon is returned when a lexicon file fails validation.
var ErrInvalidLexicon = errors.New("invalid lexicon")

// TypeKeywords are the keyword groups scored for one utility type.
type TypeKeywords struct {
	Primary   []string `yaml:"primary"`
	Secondary []string `yaml:"secondary"`
	Stations  []string `yaml:"stations,omitempty"`
	Usage     []string `yaml:"usage"`
	Providers []string `yaml:"providers"`
}

// FuelType maps a pump label to an emission grade.
type FuelType struct {
	Label string `yaml:"label"`
	Grade string `yaml:"grade"`
}

// Fuel grades understood by the emissions calculator.
const (
	GradeRON95  = "ron95"
	GradeRON97  = "ron97"
	GradeDiesel = "diesel"
	GradePetrol = "petrol"
)

// Lexicon is the complete keyword configuration.
type Lexicon struct {
	Version     string       `yaml:"version"`
	Electricity TypeKeywords `yaml:"electricity"`
	Fuel        TypeKeywords `yaml:"fuel"`
	Water       TypeKeywords `yaml:"water"`
	Gas         TypeKeywords `yaml:"gas"`

	// StationBoost is the extended station list; any hit adds a single bonus.
	StationBoost []string `yaml:"station_boost"`

	// FuelTypes are checked in order; longer labels come first.
	FuelTypes []FuelType `yaml:"fuel_types"`

	// BusinessSuffixes mark a merchant line in a receipt header.
	BusinessSuffixes []string `yaml:"business_suffixes"`
}

// For returns the keyword groups of t. Unknown yields an empty set.
func (l *Lexicon) For(t models.UtilityType) TypeKeywords {
	switch t {
	case models.Electricity:
		return l.Electricity
	case models.Fuel:
		return l.Fuel
	case models.Water:
		return l.Water
	case models.Gas:
		return l.Gas
	}
	return TypeKeywords{}
}

// Load reads a YAML lexicon from path, layered over the defaults. An empty
// path returns the defaults.
func Load(path string) (*Lexicon, error) {
	const op = "Load"

	lex := Default()
	if path == "" {
		return lex, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read lexicon file: %w", op, err)
	}
	if err := yaml.Unmarshal(data, lex); err != nil {
		return nil, fmt.Errorf("%s: failed to parse lexicon file %s: %w", op, path, err)
	}
	if err := lex.validate(); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	return lex, nil
}

func (l *Lexicon) validate() error {
	if l.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidLexicon)
	}
	for _, t := range models.UtilityTypes {
		kw := l.For(t)
		if len(kw.Primary)+len(kw.Secondary)+len(kw.Stations)+len(kw.Usage) == 0 {
			return fmt.Errorf("%w: no keywords for %s", ErrInvalidLexicon, t)
		}
	}
	for _, ft := range l.FuelTypes {
		switch ft.Grade {
		case GradeRON95, GradeRON97, GradeDiesel, GradePetrol:
		default:
			return fmt.Errorf("%w: fuel type %q has unknown grade %q", ErrInvalidLexicon, ft.Label, ft.Grade)
		}
	}
	return nil
}

// Default returns a fresh copy of the built-in tables.
func Default() *Lexicon {
	return &Lexicon{
		Version: DefaultVersion,
		Electricity: TypeKeywords{
			Primary: []string{
				"tnb", "tenaga nasional berhad", "tenaga nasional",
				"sabah electricity", "sarawak energy", "bil elektrik",
			},
			Secondary: []string{"electricity", "elektrik", "power", "kuasa", "energy", "tenaga"},
			Usage: []string{
				"penggunaan elektrik", "penggunaan (kwh)", "penggunaan",
				"jumlah penggunaan (kwh)", "jumlah penggunaan", "kegunaan", "jumlah unit",
				"unit", "unit digunakan", "current usage", "energy consumption", "total kwh",
				"bacaan semasa - bacaan sebelumnya", "kwh", "kilowatt", "unit consumed", "usage",
			},
			Providers: []string{
				"tenaga nasional berhad", "tenaga nasional", "tnb",
				"sabah electricity", "sesb", "sarawak energy",
			},
		},
		Fuel: TypeKeywords{
			Primary: []string{
				"primax", "ron", "ron95", "ron97", "diesel", "v-power",
				"blaze", "supreme", "euro 5", "gasoline",
			},
			Secondary: []string{"fuel", "minyak", "bahan api", "pump", "pam", "nozzle", "petrol"},
			Stations: []string{
				"petronas", "shell", "bhp", "caltex", "petron", "esso",
				"five", "burmah", "mobil", "besjaya",
			},
			Usage: []string{"liter", "litre", "liters", "litres", "ltr", "ltrs", "volume", "qty", "quantity"},
		},
		Water: TypeKeywords{
			Primary: []string{
				"air selangor", "pengurusan air", "pba", "pbapp", "syabas",
				"sab", "laku", "ranhill saj", "bekalan air",
			},
			Secondary: []string{"water", "air"},
			Usage:     []string{"cubic meter", "cubic metre", "m3", "gallon", "gallons"},
			Providers: []string{
				"air selangor", "pengurusan air selangor", "pbapp", "pba", "syabas",
				"ranhill saj", "laku", "sab",
			},
		},
		Gas: TypeKeywords{
			Primary:   []string{"gas malaysia", "gas district"},
			Secondary: []string{"natural gas", "gas asli", "piped gas", "gas"},
			Usage:     []string{"cubic meter", "m3", "mmbtu", "scf"},
			Providers: []string{"gas malaysia", "gas district cooling", "gas district"},
		},
		StationBoost: []string{
			"petronas", "shell", "bhp", "caltex", "petron", "esso", "five", "burmah",
			"mobil", "besjaya", "mesra", "kk mart", "stesen minyak", "pam minyak",
			"sinopec", "hi-5", "gulf", "chevron", "texaco", "petronas dagangan",
			"shell malaysia", "bhp petrol", "caltex malaysia",
		},
		FuelTypes: []FuelType{
			{Label: "primax 95 xtra", Grade: GradeRON95},
			{Label: "primax diesel", Grade: GradeDiesel},
			{Label: "primax 95", Grade: GradeRON95},
			{Label: "primax 97", Grade: GradeRON97},
			{Label: "formula diesel", Grade: GradeDiesel},
			{Label: "euro 5 diesel", Grade: GradeDiesel},
			{Label: "v-power 97", Grade: GradeRON97},
			{Label: "v-power", Grade: GradeRON97},
			{Label: "blaze 95", Grade: GradeRON95},
			{Label: "blaze 97", Grade: GradeRON97},
			{Label: "supreme 95", Grade: GradeRON95},
			{Label: "supreme 97", Grade: GradeRON97},
			{Label: "ron 95", Grade: GradeRON95},
			{Label: "ron 97", Grade: GradeRON97},
			{Label: "ron95", Grade: GradeRON95},
			{Label: "ron97", Grade: GradeRON97},
			{Label: "diesel", Grade: GradeDiesel},
			{Label: "gasoline", Grade: GradePetrol},
			{Label: "petrol", Grade: GradePetrol},
		},
		BusinessSuffixes: []string{"sdn bhd", "sdn. bhd.", "berhad", "enterprise", "trading", "petrol"},
	}
}
