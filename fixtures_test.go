package storecrawler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memoryStore is a Store keeping documents as JSON, keyed per collection.
type memoryStore struct {
	mu      sync.Mutex
	docs    map[string]map[string][]byte
	order   map[string][]string
	failOn  map[string]error
	upserts int
	closed  bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		docs:   map[string]map[string][]byte{},
		order:  map[string][]string{},
		failOn: map[string]error{},
	}
}

func (s *memoryStore) UpsertOne(_ context.Context, collection, keyField, keyValue string, doc interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failOn[keyValue]; ok {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if s.docs[collection] == nil {
		s.docs[collection] = map[string][]byte{}
	}
	if _, exists := s.docs[collection][keyValue]; !exists {
		s.order[collection] = append(s.order[collection], keyValue)
	}
	s.docs[collection][keyValue] = raw
	s.upserts++
	return nil
}

func (s *memoryStore) Find(_ context.Context, collection string, filter map[string]interface{}, results interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []json.RawMessage{}
	for _, key := range s.order[collection] {
		raw := s.docs[collection][key]
		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return err
		}
		ok := true
		for field, want := range filter {
			if fmt.Sprint(fields[field]) != fmt.Sprint(want) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, raw)
		}
	}

	payload, err := json.Marshal(matched)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, results)
}

func (s *memoryStore) Close(context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[collection])
}

func testConfig(t *testing.T) *configService {
	t.Helper()
	config := newConfig()
	config.Add("APP_ENV", "local")
	config.Add("LOG_DIR", t.TempDir())
	config.Add("SNAPSHOT_DRIVER", "none")
	config.Add("CLOUD_LOGGING", false)
	config.Add("ADMIN_TOKEN", "")
	return config
}

// newTestCrawler returns a started crawler that fetches pages over plain HTTP
// and writes to an in-memory store.
func newTestCrawler(t *testing.T, siteUrl string, engines ...Engine) (*Crawler, *memoryStore) {
	t.Helper()
	eng := Engine{
		Adapter:       StaticEngine,
		LazyLoadDelay: time.Millisecond,
		RootTimeout:   5 * time.Second,
		DetailTimeout: 5 * time.Second,
	}
	if len(engines) > 0 {
		overrideEngineDefaults(&eng, &engines[0])
	}

	app := newCrawlerWithConfig(testConfig(t), "test", siteUrl, eng)
	store := newMemoryStore()
	app.UseStore(store)
	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() { app.Stop(context.Background()) })
	return app, store
}

func newSiteServer(t *testing.T, site *fakeSite) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(site)
	t.Cleanup(server.Close)
	return server
}

// fakeSite serves canned pages and counts requests per path.
type fakeSite struct {
	mu     sync.Mutex
	pages  map[string]string
	status map[string]int
	hits   map[string]int
}

func newFakeSite() *fakeSite {
	return &fakeSite{pages: map[string]string{}, status: map[string]int{}, hits: map[string]int{}}
}

func (s *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	code, failing := s.status[r.URL.Path]
	html, ok := s.pages[r.URL.Path]
	s.mu.Unlock()

	if failing {
		http.Error(w, "boom", code)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

func (s *fakeSite) page(path, html string) {
	s.mu.Lock()
	s.pages[path] = html
	s.mu.Unlock()
}

func (s *fakeSite) fail(path string, code int) {
	s.mu.Lock()
	s.status[path] = code
	s.mu.Unlock()
}

func (s *fakeSite) hitsFor(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func listingHTML(links ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="product-list">`)
	for _, link := range links {
		fmt.Fprintf(&b, `<div class="product-info"><a class="product__link" href="%s">item</a></div>`, link)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func productHTML(name, price string, images ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	fmt.Fprintf(&b, `<div class="box-product-name"><h1>%s</h1></div>`, name)
	fmt.Fprintf(&b, `<p class="product__price--show">%s</p>`, price)
	b.WriteString(`<div class="swiper-wrapper">`)
	for _, img := range images {
		fmt.Fprintf(&b, `<div class="swiper-slide"><img data-src="%s" src="/placeholder.png"></div>`, img)
	}
	b.WriteString(`</div>`)
	b.WriteString(`<div class="technical-content-item"><p>Screen size</p><div>6.7 inches</div></div>`)
	b.WriteString(`</body></html>`)
	return b.String()
}
