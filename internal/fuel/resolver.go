// Package fuel resolves the volume of fuel bought from what a pump receipt
// prints: a total amount, a unit price, a direct volume, or some mix of them.
package fuel

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"billtools/internal/lexicon"
	"billtools/internal/logger"
)

// Resolution methods.
const (
	MethodPriceDivision = "amount_div_price"
	MethodDirectVolume  = "direct_volume"
	MethodStaticPrice   = "static_price"
	MethodNone          = "none"
)

// Price sources.
const (
	PriceDetected = "detected"
	PriceStatic   = "static"
	PriceDerived  = "derived"
	PriceNone     = "none"
)

// Confidence per method.
const (
	ConfidencePriceDivision = 85
	ConfidenceDirectVolume  = 75
	ConfidenceStaticPrice   = 60
	ReconciledFloor         = 70
)

// Price ranges in RM per liter.
var (
	PlausiblePrice = priceRange{1.50, 5.00}
	ReconcilePrice = priceRange{1.20, 4.50}
)

// StaticPrices are the fallback pump prices by grade.
var StaticPrices = map[string]float64{
	lexicon.GradeRON95:  2.05,
	lexicon.GradeRON97:  3.47,
	lexicon.GradeDiesel: 3.35,
	lexicon.GradePetrol: 2.05,
}

type priceRange struct{ Min, Max float64 }

func (r priceRange) contains(p float64) bool {
	return p >= r.Min && p <= r.Max
}

// Input is what the extractors found on a receipt.
type Input struct {
	Amount         float64
	Price          float64
	PricePlausible bool
	DirectLiters   float64
	Grade          string
}

// Resolution is the resolved volume and the price it implies.
type Resolution struct {
	Liters        float64
	PricePerLiter float64
	Method        string
	PriceSource   string
	Reconciled    bool
	Confidence    int
	Warnings      []string
}

// Resolver applies the volume priority chain and price reconciliation.
type Resolver struct {
	prices map[string]float64
	log    zerolog.Logger
}

// NewResolver creates a resolver using StaticPrices.
func NewResolver() *Resolver {
	return NewResolverWithPrices(StaticPrices)
}

// NewResolverWithPrices creates a resolver with custom fallback prices.
func NewResolverWithPrices(prices map[string]float64) *Resolver {
	return &Resolver{
		prices: prices,
		log:    logger.WithComponent("fuel-resolver"),
	}
}

// Resolve derives liters from in by, in order: amount over a plausible
// detected price; the direct volume; amount over the static price of the
// grade. A direct volume whose detected price is missing or outside
// ReconcilePrice has its price re-derived from the amount. No volume is
// produced without an amount or a direct volume.
func (r *Resolver) Resolve(in Input) Resolution {
	res := Resolution{Method: MethodNone, PriceSource: PriceNone}

	switch {
	case in.PricePlausible && PlausiblePrice.contains(in.Price) && in.Amount > 0:
		res.Liters = divide(in.Amount, in.Price, 3)
		res.PricePerLiter = in.Price
		res.Method = MethodPriceDivision
		res.PriceSource = PriceDetected
		res.Confidence = ConfidencePriceDivision

	case in.DirectLiters > 0:
		res.Liters = in.DirectLiters
		res.Method = MethodDirectVolume
		res.Confidence = ConfidenceDirectVolume
		if in.Price > 0 {
			res.PricePerLiter = in.Price
			res.PriceSource = PriceDetected
		}

	case in.Amount > 0:
		grade := in.Grade
		if _, ok := r.prices[grade]; !ok {
			grade = lexicon.GradePetrol
		}
		if static, ok := r.prices[grade]; ok && static > 0 {
			res.Liters = divide(in.Amount, static, 3)
			res.PricePerLiter = static
			res.Method = MethodStaticPrice
			res.PriceSource = PriceStatic
			res.Confidence = ConfidenceStaticPrice
		}
	}

	r.reconcile(in, &res)

	r.log.Debug().
		Float64("amount", in.Amount).
		Float64("detected_price", in.Price).
		Float64("direct_liters", in.DirectLiters).
		Float64("liters", res.Liters).
		Float64("price_per_liter", res.PricePerLiter).
		Str("method", res.Method).
		Bool("reconciled", res.Reconciled).
		Strs("warnings", res.Warnings).
		Msg("Fuel volume resolved")

	return res
}

func (r *Resolver) reconcile(in Input, res *Resolution) {
	if in.DirectLiters <= 0 || in.Amount <= 0 {
		return
	}
	if in.Price > 0 && ReconcilePrice.contains(in.Price) {
		return
	}

	derived := divide(in.Amount, in.DirectLiters, 3)
	if !ReconcilePrice.contains(derived) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"implied price %.3f per liter (amount %.2f / %.3f L) is outside %.2f-%.2f",
			derived, in.Amount, in.DirectLiters, ReconcilePrice.Min, ReconcilePrice.Max))
		return
	}

	res.Liters = in.DirectLiters
	res.PricePerLiter = derived
	res.Method = MethodDirectVolume
	res.PriceSource = PriceDerived
	res.Reconciled = true
	res.Confidence = max(res.Confidence, ReconciledFloor)
}

func divide(a, b float64, places int32) float64 {
	return decimal.NewFromFloat(a).Div(decimal.NewFromFloat(b)).Round(places).InexactFloat64()
}
