package storecrawler

import "time"

const (
	categoryCollection = "categories"
	productCollection  = "products"
)

type Category struct {
	Name      string    `json:"name" bson:"name" datastore:"name"`
	Url       string    `json:"url" bson:"url" datastore:"url"`
	Icon      string    `json:"icon" bson:"icon" datastore:"icon,noindex"`
	Slug      string    `json:"slug" bson:"slug" datastore:"slug"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" datastore:"updated_at"`
}

type Product struct {
	Name        string    `json:"name" bson:"name" datastore:"name"`
	Price       int64     `json:"price" bson:"price" datastore:"price"`
	PriceString string    `json:"priceString" bson:"priceString" datastore:"priceString,noindex"`
	Url         string    `json:"url" bson:"url" datastore:"url"`
	Images      []string  `json:"images" bson:"images" datastore:"images,noindex"`
	Specs       []Spec    `json:"specs" bson:"specs" datastore:"specs,noindex"`
	Category    string    `json:"category" bson:"category" datastore:"category"`
	TotalStock  int       `json:"totalStock" bson:"totalStock" datastore:"totalStock"`
	Slug        string    `json:"slug" bson:"slug" datastore:"slug"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at" datastore:"updated_at"`
}

// Spec is one row of a product's technical specification table.
type Spec struct {
	Label string `json:"label" bson:"label" datastore:"label,noindex"`
	Value string `json:"value" bson:"value" datastore:"value,noindex"`
}

// CrawlFailure records a skipped item with enough context to retry it later.
type CrawlFailure struct {
	Url   string `json:"url"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

const (
	stageNavigate = "navigate"
	stageExtract  = "extract"
	stagePersist  = "persist"
	stageRobots   = "robots"
)

// CrawlReport summarises one crawl invocation.
type CrawlReport struct {
	Source     string         `json:"source"`
	Found      int            `json:"found"`
	Visited    int            `json:"visited"`
	Failures   []CrawlFailure `json:"failures"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

func (r *CrawlReport) fail(url, stage string, err error) {
	r.Failures = append(r.Failures, CrawlFailure{Url: url, Stage: stage, Error: err.Error()})
}
