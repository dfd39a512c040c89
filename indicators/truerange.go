package indicators

import "math"

// trueRange is the largest of the bar's own spread and the absolute gaps
// from the prior close to the bar's high or low.
func trueRange(high, low, prevClose float64) float64 {
	return max3(high-low, math.Abs(high-prevClose), math.Abs(low-prevClose))
}

// directionalMoves splits a bar's travel against its older neighbor into
// an upward and a downward push. At most one of the two is non-zero; ties
// and inside bars yield both zero.
func directionalMoves(high, prevHigh, low, prevLow float64) (plusDM, minusDM float64) {
	upMove := high - prevHigh
	downMove := prevLow - low

	if upMove > downMove && upMove > 0 {
		plusDM = upMove
	}
	if downMove > upMove && downMove > 0 {
		minusDM = downMove
	}
	return plusDM, minusDM
}

func max3(a, b, c float64) float64 {
	if a >= b && a >= c {
		return a
	}
	if b >= a && b >= c {
		return b
	}
	return c
}
