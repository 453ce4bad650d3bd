package utils

import "math"

// Round rounds a float64 value to 2 decimal places
// Used by the reporters so drive sizes print without float noise
func Round(val float64) float64 {
	// Use proper rounding that works for both positive and negative numbers
	return math.Round(val*100) / 100
}

// Percent returns part as a rounded percentage of total, 0 when total is 0
func Percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return Round(part / total * 100)
}
