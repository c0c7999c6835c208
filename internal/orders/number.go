package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// OrderNumber formats ORD-<unix millis>-<0..999>. The unique index on
// order_number is the actual guarantee.
func OrderNumber(now time.Time, intn func(int) int) string {
	if intn == nil {
		intn = rand.IntN
	}
	return fmt.Sprintf("ORD-%d-%d", now.UnixMilli(), intn(1000))
}
