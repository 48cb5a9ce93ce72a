// Package variant keeps a product's size/color selection pointed at a real
// stock entry.
package variant

import "storefront/internal/domain"

// State is the selection shown on a product page.
type State struct {
	Size  string               `json:"size"`
	Color string               `json:"color"`
	Stock *domain.StockVariant `json:"stock"`
	Image domain.ImageRef      `json:"image"`
}

// InStock reports whether the selected entry can be ordered.
func (s State) InStock() bool {
	return s.Stock != nil && s.Stock.Quantity > 0
}

// Resolver maps size and color picks onto a product's variants.
type Resolver struct {
	variants []domain.StockVariant
	cover    domain.ImageRef
}

// New returns a Resolver over p's variants in declared order.
func New(p domain.Product) Resolver {
	return Resolver{variants: p.Variants, cover: p.ImageCover}
}

// Initial is the selection a product page opens with: the first declared
// variant, or the cover image when the product has none.
func (r Resolver) Initial() State {
	if len(r.variants) == 0 {
		return r.empty()
	}
	return r.settle(State{}, 0)
}

// Resolve applies a size and/or color pick on top of prev. An empty size or
// color means that selector was not touched. The result always maps to an
// existing variant unless the product has none.
func (r Resolver) Resolve(prev State, size, color string) State {
	if len(r.variants) == 0 {
		return r.empty()
	}

	sizeChanged := size != "" && size != prev.Size
	colorChanged := color != "" && color != prev.Color
	if size == "" {
		size = prev.Size
	}
	if color == "" {
		color = prev.Color
	}

	if i := r.find(size, color); i >= 0 {
		return r.settle(prev, i)
	}

	// No such pair: keep the dimension the user just picked and take the
	// first variant carrying it. Size wins when both moved.
	var i int
	switch {
	case sizeChanged:
		i = r.find(size, "")
		if i < 0 && colorChanged {
			i = r.find("", color)
		}
	case colorChanged:
		i = r.find("", color)
	default:
		i = r.find(size, "")
		if i < 0 {
			i = r.find("", color)
		}
	}
	if i < 0 {
		i = 0
	}
	return r.settle(prev, i)
}

// find returns the index of the first variant matching the non-empty
// arguments, or -1.
func (r Resolver) find(size, color string) int {
	for i, v := range r.variants {
		if size != "" && v.Size != size {
			continue
		}
		if color != "" && v.Color != color {
			continue
		}
		if size == "" && color == "" {
			return -1
		}
		return i
	}
	return -1
}

func (r Resolver) settle(prev State, i int) State {
	v := r.variants[i]
	img := prev.Image
	if len(v.Media) > 0 {
		img = v.Media[0]
	}
	if img == "" {
		img = r.cover
	}
	return State{Size: v.Size, Color: v.Color, Stock: &v, Image: img}
}

func (r Resolver) empty() State {
	return State{Image: r.cover}
}

// Sizes lists the distinct sizes in declaration order.
func (r Resolver) Sizes() []string {
	return distinct(r.variants, func(v domain.StockVariant) string { return v.Size })
}

// Colors lists the distinct colors in declaration order.
func (r Resolver) Colors() []string {
	return distinct(r.variants, func(v domain.StockVariant) string { return v.Color })
}

func distinct(vs []domain.StockVariant, key func(domain.StockVariant) string) []string {
	seen := make(map[string]struct{}, len(vs))
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		k := key(v)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
