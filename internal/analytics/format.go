package analytics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatINR renders v as rupees with Indian digit grouping and no fraction
// digits, e.g. ₹1,23,457.
func FormatINR(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	n := math.Round(v)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return sign + "₹" + groupIndian(strconv.FormatFloat(n, 'f', 0, 64))
}

// groupIndian inserts separators after the last three digits and then
// every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(append(parts, tail), ",")
}

// FormatPercent renders a ratio as a percentage with two decimals. A nil or
// non-finite ratio reads as 0.00%.
func FormatPercent(ratio *float64) string {
	v := 0.0
	if ratio != nil && !math.IsNaN(*ratio) && !math.IsInf(*ratio, 0) {
		v = *ratio * 100
	}
	return fmt.Sprintf("%.2f%%", v)
}
