// Package quote holds the box catalog, fee constants and the quote arithmetic
// used to turn a CNY price into a RUB total.
package quote

// ServiceFee is the flat commission added to every quote, in RUB.
const ServiceFee = 2000

// BoxTier is a shipping box category. Label doubles as the menu button text.
type BoxTier struct {
	Code     string
	Label    string
	Size     string
	Delivery int
}

var catalog = []BoxTier{
	{Code: "MINI", Label: "MINI (футболка, сумка, ремень, носки)", Size: "23×17×13 см", Delivery: 1200},
	{Code: "SMALL", Label: "SMALL (пара обуви в коробке)", Size: "36×26×14 см", Delivery: 2000},
	{Code: "LARGE", Label: "LARGE (пара обуви и несколько вещей)", Size: "40×29×16 см", Delivery: 2900},
	{Code: "XXL", Label: "XXL (две пары обуви и вещи)", Size: "37×29×28 см", Delivery: 4000},
}

var byLabel = func() map[string]BoxTier {
	m := make(map[string]BoxTier, len(catalog))
	for _, t := range catalog {
		m[t.Label] = t
	}
	return m
}()

// Boxes returns the catalog in menu order. The slice is a copy.
func Boxes() []BoxTier {
	return append([]BoxTier(nil), catalog...)
}

// Labels returns menu labels in catalog order.
func Labels() []string {
	labels := make([]string, len(catalog))
	for i, t := range catalog {
		labels[i] = t.Label
	}
	return labels
}

// LookupBox finds a tier by its exact label.
func LookupBox(label string) (BoxTier, bool) {
	t, ok := byLabel[label]
	return t, ok
}
