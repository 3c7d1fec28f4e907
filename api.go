package storecrawler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Handler exposes the crawl operations to privileged callers:
//
//	GET /scraper/categories
//	GET /scraper/crawl?url=<listing url>&limit=<n>
func (app *Crawler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /scraper/categories", app.requireAdmin(app.handleCategories))
	mux.HandleFunc("GET /scraper/crawl", app.requireAdmin(app.handleCrawl))
	return mux
}

func (app *Crawler) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, _, err := app.CrawlCategories(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (app *Crawler) handleCrawl(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := app.engine.CrawlLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	target := strings.TrimSpace(query.Get("url"))
	if target == "" {
		target = app.Config.EnvString("SCRAPER_TARGET_URL", app.Url)
	} else if !isAbsoluteUrl(target) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url must be absolute"})
		return
	}

	products, report, err := app.CrawlProducts(r.Context(), target, limit)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	if len(report.Failures) > 0 {
		app.Logger.Warn("%d of %d products from %s failed", len(report.Failures), report.Visited, target)
	}
	writeJSON(w, http.StatusOK, products)
}

// requireAdmin admits callers presenting ADMIN_TOKEN as a bearer token. With no
// token configured only local environments are served.
func (app *Crawler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := app.Config.EnvString("ADMIN_TOKEN")
		if token == "" {
			if !app.Config.isLocalEnv() {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin access is not configured"})
				return
			}
			next(w, r)
			return
		}

		presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || presented == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
