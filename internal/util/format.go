package util

import (
	"fmt"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

// FormatSize renders a byte count with a binary unit suffix, keeping only
// as many decimals as carry information ("1.5 KB", not "1.500 KB").
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	exp := int(math.Log(float64(size)) / math.Log(unit))
	if exp >= len(units) {
		exp = len(units) - 1
	}

	// Integer arithmetic throughout, floats drift on large counts.
	div := int64(math.Pow(unit, float64(exp)))
	value := size / div
	if size%div == 0 {
		return fmt.Sprintf("%d %s", value, units[exp])
	}

	decimal := (size % div * 1000) / div
	switch {
	case decimal%10 != 0:
		return fmt.Sprintf("%d.%03d %s", value, decimal, units[exp])
	case decimal%100 != 0:
		return fmt.Sprintf("%d.%02d %s", value, decimal/10, units[exp])
	default:
		return fmt.Sprintf("%d.%d %s", value, decimal/100, units[exp])
	}
}

// PadRight pads or truncates a string to a fixed visual width.
func PadRight(str string, width int) string {
	w := runewidth.StringWidth(str)
	if w > width {
		return runewidth.Truncate(str, width, "...")
	}
	return str + strings.Repeat(" ", width-w)
}
