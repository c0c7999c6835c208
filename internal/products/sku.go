package products

import (
	"strconv"
	"strings"
	"time"
)

// BuildSKU derives a human-readable SKU: NAM-CO-SIZE-123456. The trailing
// digits are the last six of the millisecond clock, so collisions are
// possible and the insert-time uniqueness check stays authoritative.
func BuildSKU(productName string, color, size *string, now time.Time) string {
	productCode := alnumUpper(firstRunes(productName, 3))

	colorCode := "XX"
	if color != nil && strings.TrimSpace(*color) != "" {
		colorCode = strings.ToUpper(firstRunes(strings.TrimSpace(*color), 2))
	}

	sizeCode := "OS"
	if size != nil {
		if code := alnumUpper(*size); code != "" {
			sizeCode = code
		}
	}

	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}

	return strings.Join([]string{productCode, colorCode, sizeCode, millis}, "-")
}

func firstRunes(v string, n int) string {
	runes := []rune(v)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

func alnumUpper(v string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(v) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
