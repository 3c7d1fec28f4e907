package storecrawler

// SiteSelectors is the markup contract for one retail site. Ordered lists are
// tried first to last; the first selector yielding non-empty text wins.
type SiteSelectors struct {
	// CategoryContainer has no fallback list: the menu markup is stable across pages.
	CategoryContainer string
	ProductLink       string
	ProductPageMarker string

	Name  []string
	Price []string

	Images             []string
	ImageAttrs         []string
	PlaceholderMarkers []string
	ExcludedImageExts  []string
	MaxImages          int

	SpecRows []SpecRowSelector
}

// SpecRowSelector pairs a label cell with a value cell inside each matched row.
type SpecRowSelector struct {
	Row   string
	Label string
	Value string
}

// CellphonesSelectors matches the cellphones.com.vn storefront templates.
func CellphonesSelectors() SiteSelectors {
	return SiteSelectors{
		CategoryContainer: ".shadow-bottom-50.flex.w-56",
		ProductLink:       "a.product__link",
		ProductPageMarker: ".html",
		Name: []string{
			"h1",
			".product__name",
			".box-product-name h1",
		},
		Price: []string{
			".product__price--show",
			".tpt---price",
			".box-info__price",
			"p.special-price",
		},
		Images: []string{
			".swiper-slide img",
			".gallery-image img",
			"#product-image-main",
		},
		ImageAttrs:         []string{"data-src", "src"},
		PlaceholderMarkers: []string{"placeholder"},
		ExcludedImageExts:  []string{".gif"},
		MaxImages:          5,
		SpecRows: []SpecRowSelector{
			{Row: ".technical-content-item", Label: "p:first-child", Value: "div"},
			{Row: ".box-technical-info tr", Label: "th", Value: "td"},
		},
	}
}
