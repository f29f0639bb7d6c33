// pkg/helper/mask.go
package helper

import "strings"

// MaskValue hides all but the edges of a secret. An empty value stays empty
// so an unset secret is still visible in the startup log.
func MaskValue(value string) string {
	r := []rune(value)
	switch {
	case len(r) == 0:
		return ""
	case len(r) <= 8:
		return strings.Repeat("*", 8)
	}
	return string(r[:4]) + "..." + string(r[len(r)-4:])
}
