package mathx

import (
	"strconv"

	"golang.org/x/exp/constraints"
)

// RoundTo rounds v to the given number of decimal places. The exact binary
// value is rounded, with ties to even, so 2.675 gives 2.67 and 0.125 gives
// 0.12.
func RoundTo[T constraints.Float](v T, places int) T {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'f', places, 64), 64)
	return T(r)
}
