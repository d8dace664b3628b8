package scrape

import "math"

// ApplyRules discounts price by percentOff then absoluteOff, each applied
// only when positive, and rounds half-up to cents. A nil price stays nil.
// The result is not floored at zero; oversized discounts go negative.
func ApplyRules(price *float64, percentOff, absoluteOff float64) *float64 {
	if price == nil {
		return nil
	}
	p := *price
	if percentOff > 0 {
		p *= 1 - percentOff/100
	}
	if absoluteOff > 0 {
		p -= absoluteOff
	}
	// The epsilon nudges values sitting on a half-cent boundary upward
	// before rounding.
	r := math.Round((p+1e-9)*100) / 100
	return &r
}
