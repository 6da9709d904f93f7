package quote

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	boxes := Boxes()
	require.Len(t, boxes, 4)

	want := map[string]int{"MINI": 1200, "SMALL": 2000, "LARGE": 2900, "XXL": 4000}
	for i, b := range boxes {
		require.Equal(t, want[b.Code], b.Delivery, b.Code)
		require.Equal(t, Labels()[i], b.Label)

		found, ok := LookupBox(b.Label)
		require.True(t, ok)
		require.Equal(t, b, found)
	}

	_, ok := LookupBox("MINI")
	require.False(t, ok, "lookup is by full label only")

	boxes[0].Delivery = 0
	require.Equal(t, 1200, Boxes()[0].Delivery, "Boxes must return a copy")
}

func TestComputeReferenceQuote(t *testing.T) {
	mini, ok := LookupBox("MINI (футболка, сумка, ремень, носки)")
	require.True(t, ok)

	q := Compute(1500, 12.5, mini)
	require.Equal(t, 18750.0, q.ItemRUB)
	require.Equal(t, 2000, q.ServiceFee)
	require.Equal(t, 21950.0, q.Total)
	require.Equal(t, "21 950 ₽", FormatRUB(q.Total))
	require.Equal(t, "18 750 ₽", FormatRUB(q.ItemRUB))
	require.Equal(t, "1 200 ₽", FormatRUB(float64(mini.Delivery)))
	require.Equal(t, "2 000 ₽", FormatRUB(ServiceFee))
}

func TestComputeTruncatesOnlyWhenFormatting(t *testing.T) {
	prices := []float64{0.01, 1, 99.99, 1500.5, 123456.789}
	rates := []float64{0.01, 11.97, 12.5, 13.33}
	for _, p := range prices {
		for _, r := range rates {
			for _, box := range Boxes() {
				q := Compute(p, r, box)
				require.Equal(t, p*r+float64(box.Delivery)+ServiceFee, q.Total)

				want := int64(math.Floor(p*r)) + int64(box.Delivery) + ServiceFee
				require.Equal(t, FormatRUB(float64(want)), FormatRUB(q.Total), "p=%v r=%v box=%s", p, r, box.Code)
			}
		}
	}
}

func TestParsePrice(t *testing.T) {
	for _, in := range []string{"abc", "-5", "0", "", "  ", "nan", "inf", "1,2,3", "0,0", "1e20", "1000000000.01"} {
		_, err := ParsePrice(in)
		require.ErrorIs(t, err, ErrInvalidPrice, "input %q", in)
	}

	comma, err := ParsePrice("1500,5")
	require.NoError(t, err)
	dot, err := ParsePrice("1500.5")
	require.NoError(t, err)
	require.Equal(t, dot, comma)
	require.Equal(t, 1500.5, comma)

	top, err := ParsePrice("1000000000")
	require.NoError(t, err)
	require.Equal(t, MaxPriceCNY, top)

	padded, err := ParsePrice("  1500 \n")
	require.NoError(t, err)
	require.Equal(t, 1500.0, padded)
}

func TestFormatRUB(t *testing.T) {
	cases := map[float64]string{
		0:               "0 ₽",
		999.99:          "999 ₽",
		1000:            "1 000 ₽",
		21950.9:         "21 950 ₽",
		100000:          "100 000 ₽",
		1234567.89:      "1 234 567 ₽",
		-1500.7:         "-1 500 ₽",
		-0.4:            "0 ₽",
		1e20:            "100 000 000 000 000 000 000 ₽",
		12.5e9 + 6000.9: "12 500 006 000 ₽",
	}
	for in, want := range cases {
		require.Equal(t, want, FormatRUB(in), "input %v", in)
	}
}

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "1500", FormatNumber(1500))
	require.Equal(t, "1500.5", FormatNumber(1500.5))
	require.Equal(t, "12.5", FormatNumber(12.5))
	require.Equal(t, "11.97", FormatNumber(11.97))
}
