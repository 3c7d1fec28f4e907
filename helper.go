package storecrawler

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonDigit      = regexp.MustCompile(`\D`)
	nonSlugChars  = regexp.MustCompile(`[^\w-]+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	dashRun       = regexp.MustCompile(`-{2,}`)
)

// pageExtensions are stripped from the last path segment when deriving a slug.
var pageExtensions = []string{".html", ".htm", ".php", ".aspx"}

func isAbsoluteUrl(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// absoluteUrl prefixes relative references with baseUrl. Absolute input is
// returned unchanged, so applying it twice is a no-op.
func absoluteUrl(baseUrl, href string) string {
	if isAbsoluteUrl(href) {
		return href
	}
	if strings.HasPrefix(href, "//") {
		scheme := "https:"
		if strings.HasPrefix(baseUrl, "http://") {
			scheme = "http:"
		}
		return scheme + href
	}
	baseUrl = strings.TrimRight(baseUrl, "/")
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return baseUrl + href
}

func getBaseUrl(urlString string) string {
	parsedURL, err := url.Parse(urlString)
	if err != nil || parsedURL.Host == "" {
		return strings.TrimRight(urlString, "/")
	}
	return parsedURL.Scheme + "://" + parsedURL.Host
}

// lastPathSegment returns the final path segment, empty when the path ends in "/".
func lastPathSegment(rawUrl string) string {
	p := rawUrl
	if parsed, err := url.Parse(rawUrl); err == nil {
		p = parsed.EscapedPath()
	}
	idx := strings.LastIndex(p, "/")
	return p[idx+1:]
}

// slugFromUrl derives a slug from the last path segment minus its page extension.
func slugFromUrl(rawUrl string) string {
	segment := lastPathSegment(strings.TrimSpace(rawUrl))
	ext := strings.ToLower(path.Ext(segment))
	if contains(pageExtensions, ext) {
		segment = segment[:len(segment)-len(ext)]
	}
	return segment
}

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// slugFromName lower-cases, folds diacritics and keeps word characters and dashes.
func slugFromName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer("đ", "d", "Đ", "d").Replace(s)
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = nonSlugChars.ReplaceAllString(s, "")
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// productSlug prefers the url-derived slug and falls back to the name.
func productSlug(productUrl, name string) string {
	if slug := slugFromUrl(productUrl); slug != "" {
		return slug
	}
	return slugFromName(name)
}

// categoryFromUrl names the category a listing page belongs to.
func categoryFromUrl(categoryUrl string) string {
	if slug := slugFromUrl(categoryUrl); slug != "" {
		return slug
	}
	return "unknown"
}

// parsePrice keeps only the digits of a display price: "23.990.000₫" is 23990000.
func parsePrice(priceString string) int64 {
	digits := nonDigit.ReplaceAllString(priceString, "")
	if digits == "" {
		return 0
	}
	price, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return price
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// generateFilename turns a URL into a dated, filesystem-safe file name.
func generateFilename(rawURL string) string {
	invalidChars := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	for _, char := range invalidChars {
		rawURL = strings.ReplaceAll(rawURL, char, "_")
	}

	currentDate := time.Now().Format("2006-01-02")
	return currentDate + "_" + rawURL + ".html"
}

func contains(slice []string, item string) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}
