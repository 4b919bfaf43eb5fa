package util

import "strings"

// PairLeg returns the i-th leg of a pair name like "BTC/USD". Missing legs
// yield "".
func PairLeg(pair string, i int) string {
	parts := strings.Split(pair, "/")
	if i < 0 || i >= len(parts) {
		return ""
	}
	return parts[i]
}
