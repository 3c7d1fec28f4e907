package storecrawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractCategoryLinks walks the category menu container and returns one
// category per usable anchor. A missing container yields no categories.
func ExtractCategoryLinks(doc *goquery.Document, baseUrl string, sel SiteSelectors) []Category {
	categories := []Category{}

	container := doc.Find(sel.CategoryContainer).First()
	if container.Length() == 0 {
		return categories
	}

	container.Children().Each(func(i int, item *goquery.Selection) {
		icon, _ := item.Find("img").First().Attr("src")
		icon = strings.TrimSpace(icon)

		item.Find("a").Each(func(j int, a *goquery.Selection) {
			name := strings.TrimSuffix(cleanText(a.Text()), ",")
			name = strings.TrimSpace(name)
			href, _ := a.Attr("href")
			href = strings.TrimSpace(href)

			if name == "" || href == "" || href == "#" || href == "/" {
				return
			}

			fullUrl := absoluteUrl(baseUrl, href)
			slug := slugFromUrl(fullUrl)
			if slug == "" {
				return
			}

			categories = append(categories, Category{
				Name: name,
				Url:  fullUrl,
				Icon: icon,
				Slug: slug,
			})
		})
	})

	return categories
}

// ExtractProductLinks returns the detail page links of a listing page in DOM
// order, resolved against baseUrl and without repeats.
func ExtractProductLinks(doc *goquery.Document, baseUrl string, sel SiteSelectors) []string {
	links := []string{}
	seen := map[string]bool{}

	doc.Find(sel.ProductLink).Each(func(i int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || !strings.Contains(href, sel.ProductPageMarker) {
			return
		}
		fullUrl := absoluteUrl(baseUrl, href)
		if seen[fullUrl] {
			return
		}
		seen[fullUrl] = true
		links = append(links, fullUrl)
	})

	return links
}

// ExtractProductDetail reads a product detail page. Fields whose selectors
// match nothing are left empty.
func ExtractProductDetail(doc *goquery.Document, currentUrl string, sel SiteSelectors) Product {
	priceString := firstText(doc, sel.Price)

	return Product{
		Name:        firstText(doc, sel.Name),
		Price:       parsePrice(priceString),
		PriceString: priceString,
		Url:         currentUrl,
		Images:      extractImages(doc, sel),
		Specs:       extractSpecs(doc, sel),
	}
}

// firstText returns the trimmed text of the first element, across the ordered
// selectors, that has any.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		if txt := strings.TrimSpace(doc.Find(selector).First().Text()); txt != "" {
			return txt
		}
	}
	return ""
}

func extractImages(doc *goquery.Document, sel SiteSelectors) []string {
	images := []string{}
	seen := map[string]bool{}

	for _, selector := range sel.Images {
		doc.Find(selector).EachWithBreak(func(i int, img *goquery.Selection) bool {
			if len(images) >= sel.MaxImages {
				return false
			}
			src := imageSource(img, sel.ImageAttrs)
			if src == "" || isExcludedImage(src, sel) || !isAbsoluteUrl(src) || seen[src] {
				return true
			}
			seen[src] = true
			images = append(images, src)
			return true
		})
	}

	return images
}

// imageSource prefers the lazy-load attribute over the rendered one.
func imageSource(img *goquery.Selection, attrs []string) string {
	for _, attr := range attrs {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func isExcludedImage(src string, sel SiteSelectors) bool {
	for _, marker := range sel.PlaceholderMarkers {
		if strings.Contains(src, marker) {
			return true
		}
	}
	lower := strings.ToLower(src)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	for _, ext := range sel.ExcludedImageExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func extractSpecs(doc *goquery.Document, sel SiteSelectors) []Spec {
	specs := []Spec{}

	for _, rowSel := range sel.SpecRows {
		doc.Find(rowSel.Row).Each(func(i int, row *goquery.Selection) {
			label := cleanText(row.Find(rowSel.Label).First().Text())
			value := cleanText(row.Find(rowSel.Value).First().Text())
			if label != "" && value != "" {
				specs = append(specs, Spec{Label: label, Value: value})
			}
		})
	}

	return specs
}
