package cache

import "strings"

// GenerateKey joins parts with ":" after prefix, e.g. "spot:BTC-USD".
func GenerateKey(prefix string, parts ...string) string {
	return strings.Join(append([]string{prefix}, parts...), ":")
}
