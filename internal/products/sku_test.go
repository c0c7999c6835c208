package products

import (
	"testing"
	"time"
)

func TestBuildSKU(t *testing.T) {
	now := time.UnixMilli(1_700_000_654_321)
	cases := []struct {
		name        string
		product     string
		color, size *string
		want        string
	}{
		{name: "all parts", product: "Denim Jacket", color: strPtr("indigo"), size: strPtr("xl"), want: "DEN-IN-XL-654321"},
		{name: "placeholders", product: "Mug", want: "MUG-XX-OS-654321"},
		{name: "blank color", product: "Mug", color: strPtr("  "), size: strPtr("-"), want: "MUG-XX-OS-654321"},
		{name: "punctuated name", product: "T-Shirt", size: strPtr("32 / 34"), want: "TS-XX-3234-654321"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildSKU(tc.product, tc.color, tc.size, now); got != tc.want {
				t.Fatalf("BuildSKU() = %q, want %q", got, tc.want)
			}
		})
	}
}
