package documents

import (
	"fmt"
	"math/rand/v2"
	"regexp"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// RandomColor returns a uniformly random "#RRGGBB" color.
func RandomColor() string {
	return fmt.Sprintf("#%06X", rand.IntN(0x1000000))
}

// ValidColor reports whether c is a "#RRGGBB" hex color.
func ValidColor(c string) bool {
	return colorPattern.MatchString(c)
}
