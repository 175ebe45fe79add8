// Package grade holds the fixed letter-grade scale and its grade-point values.
package grade

import "strings"

// Unset is the grade of a subject whose result has not been entered yet.
const Unset = ""

// codes lists the scale from best to worst.
var codes = []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "E"}

var points = map[string]float64{
	"A+": 4.00,
	"A":  4.00,
	"A-": 3.70,
	"B+": 3.30,
	"B":  3.00,
	"B-": 2.70,
	"C+": 2.30,
	"C":  2.00,
	"C-": 1.70,
	"D+": 1.30,
	"D":  1.00,
	"E":  0.00,
}

// PointOf returns the grade-point value of code. Unknown codes, including
// Unset, are worth 0.00.
func PointOf(code string) float64 {
	return points[code]
}

// IsValid reports whether code belongs to the scale. Unset is not valid.
func IsValid(code string) bool {
	_, ok := points[code]
	return ok
}

// Codes returns the scale in order, best first.
func Codes() []string {
	out := make([]string, len(codes))
	copy(out, codes)
	return out
}

// Normalize trims and upper-cases a user-entered code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
