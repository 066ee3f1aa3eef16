// Package bmi maps an estimated body-mass index onto its weight-status band.
package bmi

import "math"

// Status is the display form of a BMI value.
type Status struct {
	Label      string `json:"category"`
	ColorClass string `json:"color_class"`
}

const (
	normalMin     = 18.5
	overweightMin = 25.0
	obeseMin      = 30.0
)

var (
	Underweight = Status{Label: "Underweight", ColorClass: "status-blue"}
	Normal      = Status{Label: "Normal Weight", ColorClass: "status-green"}
	Overweight  = Status{Label: "Overweight", ColorClass: "status-yellow"}
	Obese       = Status{Label: "Obese", ColorClass: "status-red"}
)

// Bands lists every status in ascending order.
var Bands = []Status{Underweight, Normal, Overweight, Obese}

// Categorize returns the band containing value. Bands are half-open and
// contiguous; everything from obeseMin up is Obese.
func Categorize(value float64) Status {
	switch {
	case value < normalMin:
		return Underweight
	case value < overweightMin:
		return Normal
	case value < obeseMin:
		return Overweight
	default:
		return Obese
	}
}

// Round rounds value to two decimals, the precision shown to users.
func Round(value float64) float64 {
	return math.Round(value*100) / 100
}
