package mapeq

import "math"

// plogp returns x*log2(x), defined as 0 at x<=0 by the usual information-
// theoretic convention (lim x->0+ of x log x is 0).
func plogp(x float64) float64 {
	if x <= 0 {
		return 0
	}

	return x * math.Log2(x)
}
