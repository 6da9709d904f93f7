package quote

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidPrice is returned by ParsePrice for unparseable, non-positive or
// out-of-range input.
var ErrInvalidPrice = errors.New("quote: invalid price")

// MaxPriceCNY caps accepted prices so every total stays well inside int64 rubles.
const MaxPriceCNY = 1e9

// Quote is the computed cost breakdown for one box selection.
type Quote struct {
	Box        BoxTier
	PriceCNY   float64
	Rate       float64
	ItemRUB    float64
	ServiceFee int
	Total      float64
}

// Compute builds a quote. Amounts keep full precision; truncation happens only in FormatRUB.
func Compute(priceCNY, rate float64, box BoxTier) Quote {
	item := priceCNY * rate
	return Quote{
		Box:        box,
		PriceCNY:   priceCNY,
		Rate:       rate,
		ItemRUB:    item,
		ServiceFee: ServiceFee,
		Total:      item + float64(box.Delivery) + float64(ServiceFee),
	}
}

// ParsePrice reads a user-entered CNY amount. A decimal comma is accepted.
func ParsePrice(input string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v > MaxPriceCNY {
		return 0, ErrInvalidPrice
	}
	return v, nil
}

// FormatRUB truncates v to an integer, groups thousands with spaces and appends the ruble sign.
// It works on the decimal string, so magnitudes beyond int64 still print correctly.
func FormatRUB(v float64) string {
	v = math.Trunc(v)
	if v == 0 || math.IsNaN(v) {
		v = 0
	}
	digits := strconv.FormatFloat(math.Abs(v), 'f', 0, 64)

	var b strings.Builder
	if v < 0 {
		b.WriteByte('-')
	}
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte(' ')
		b.WriteString(digits[i : i+3])
	}
	b.WriteString(" ₽")
	return b.String()
}

// FormatNumber renders a raw price or rate in its shortest decimal form.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
