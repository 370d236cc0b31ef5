package render

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Currency is the symbol prefixed to every formatted amount.
const Currency = "£"

// FormatCurrency rounds to pence and renders "-£1,234.57". A value that rounds
// to zero renders empty unless showZero is set.
func FormatCurrency(value float64, showZero bool) string {
	rounded := math.Round(value*100) / 100
	if rounded == 0 && !showZero {
		return ""
	}
	sign := ""
	if rounded < 0 {
		sign = "-"
	}
	return sign + Currency + humanize.FormatFloat("#,###.##", math.Abs(rounded))
}

// DarkenHex scales each channel of a #rrggbb colour by factor, truncating.
// Anything else is returned unchanged.
func DarkenHex(color string, factor float64) string {
	if len(color) != 7 || color[0] != '#' {
		return color
	}
	var channels [3]uint8
	for i := range channels {
		v, err := strconv.ParseUint(color[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return color
		}
		channels[i] = uint8(float64(v) * factor)
	}
	return fmt.Sprintf("#%02x%02x%02x", channels[0], channels[1], channels[2])
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
