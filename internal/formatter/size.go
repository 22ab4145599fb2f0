package formatter

import (
	"fmt"
	"math"
)

var sizeUnits = []string{"KB", "MB", "GB"}

// FormatSize renders a byte count as "512 B", "2.3 MB" and so on, scaling by
// 1024 with one decimal above bytes. A value that would round to 1024.0
// moves to the next unit. GB is the largest unit.
func FormatSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n) / 1024
	unit := 0
	for math.Round(v*10)/10 >= 1024 && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", v, sizeUnits[unit])
}
