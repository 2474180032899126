// Package packaging converts between purchasable packages and base-unit
// stock quantities, and derives per-unit costs from package prices.
//
// All functions are pure. Money is expressed in minor currency units (cents).
package packaging

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// LargeQuantityThreshold is the base-unit amount from which grams and
// milliliters are displayed as kilograms and liters.
const LargeQuantityThreshold = 1000

var hundred = decimal.NewFromInt(100)

// BaseUnitsFromPackages returns packages * packageSize. ok is false for
// negative inputs or when the product does not fit in an int64.
func BaseUnitsFromPackages(packages, packageSize int64) (units int64, ok bool) {
	if packages < 0 || packageSize < 0 {
		return 0, false
	}
	if packageSize != 0 && packages > math.MaxInt64/packageSize {
		return 0, false
	}
	return packages * packageSize, true
}

// CostPerBaseUnit returns packagePrice / packageSize in cents per base unit.
// ok is false when either value is unset (zero or negative), in which case the
// cost is undefined and callers treat it as zero.
func CostPerBaseUnit(packagePrice, packageSize int64) (cost decimal.Decimal, ok bool) {
	if packagePrice <= 0 || packageSize <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(packagePrice).Div(decimal.NewFromInt(packageSize)), true
}

// PriceToCents converts a currency amount to cents, rounding to the nearest
// cent (half away from zero).
func PriceToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FormatQuantity renders a base-unit quantity for people. Grams and
// milliliters at or above LargeQuantityThreshold become kg and L.
func FormatQuantity(quantity int64, unit string) string {
	switch {
	case unit == "g" && quantity >= LargeQuantityThreshold:
		return decimal.New(quantity, -3).StringFixed(2) + "kg"
	case unit == "ml" && quantity >= LargeQuantityThreshold:
		return decimal.New(quantity, -3).StringFixed(2) + "L"
	}
	return fmt.Sprintf("%d%s", quantity, unit)
}

// PackageStatus splits a quantity into sealed packages and an opened remainder.
type PackageStatus struct {
	FullPackages int64  `json:"full_packages"`
	Remainder    int64  `json:"remainder"`
	Description  string `json:"description"`
}

// Decompose returns floor(quantity / packageSize) full packages and the
// remainder. A packageSize below 1 is treated as 1.
func Decompose(quantity, packageSize int64) (fullPackages, remainder int64) {
	if packageSize < 1 {
		packageSize = 1
	}
	return quantity / packageSize, quantity % packageSize
}

// Describe builds the status line shown next to an ingredient, for example
// "2 boxes sealed + 300g opened".
func Describe(quantity, packageSize int64, label, unit string) PackageStatus {
	full, rest := Decompose(quantity, packageSize)
	if label == "" {
		label = "package"
	}

	var desc string
	switch {
	case full == 0:
		desc = FormatQuantity(rest, unit) + " opened"
	case rest == 0:
		desc = fmt.Sprintf("%d %s sealed", full, plural(label, full))
	default:
		desc = fmt.Sprintf("%d %s sealed + %s opened", full, plural(label, full), FormatQuantity(rest, unit))
	}

	return PackageStatus{FullPackages: full, Remainder: rest, Description: desc}
}

func plural(label string, n int64) string {
	if n == 1 {
		return label
	}
	switch label[len(label)-1] {
	case 's', 'x':
		return label + "es"
	}
	return label + "s"
}
