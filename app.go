package storecrawler

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/compute/metadata"
	"github.com/temoto/robotstxt"
	"google.golang.org/api/option"
)

// Crawler crawls one retail site and persists what it finds.
type Crawler struct {
	Config     *configService
	Name       string
	Url        string
	BaseUrl    string
	engine     *Engine
	selectors  SiteSelectors
	Logger     *defaultLogger
	store      Store
	repository *Repository
	snapshot   snapshotter
	launcher   func(ctx context.Context) (browserDriver, error)
	robotsData *robotstxt.RobotsData
	startTime  time.Time
}

// NewCrawler builds a crawler for the site at url. Engine fields left zero
// keep their environment or built-in defaults.
func NewCrawler(name, url string, engines ...Engine) *Crawler {
	config := newConfig()
	return newCrawlerWithConfig(config, name, url, engines...)
}

// NewCrawlerFromEnv builds a crawler for the site configured as SITE_URL.
func NewCrawlerFromEnv(name string, engines ...Engine) *Crawler {
	config := newConfig()
	return newCrawlerWithConfig(config, name, config.GetString("SITE_URL"), engines...)
}

func newCrawlerWithConfig(config *configService, name, url string, engines ...Engine) *Crawler {
	defaultEngine := getDefaultEngine()
	fromEnv := engineFromConfig(config)
	overrideEngineDefaults(&defaultEngine, &fromEnv)
	if len(engines) > 0 {
		eng := engines[0]
		overrideEngineDefaults(&defaultEngine, &eng)
	}

	crawler := &Crawler{
		Name:      name,
		Url:       url,
		engine:    &defaultEngine,
		Config:    config,
		selectors: CellphonesSelectors(),
	}
	crawler.Logger = newDefaultLogger(config, name)
	crawler.BaseUrl = getBaseUrl(url)
	return crawler
}

// UseStore replaces the store resolved from STORE_DRIVER.
func (app *Crawler) UseStore(store Store) *Crawler {
	app.store = store
	app.repository = NewRepository(store, app.engine.DefaultStock)
	return app
}

// UseSelectors replaces the default storefront selectors.
func (app *Crawler) UseSelectors(selectors SiteSelectors) *Crawler {
	app.selectors = selectors
	return app
}

func (app *Crawler) Repository() *Repository {
	return app.repository
}

// Start connects the store, snapshotter and log mirror, and applies the
// robots gate when enabled.
func (app *Crawler) Start(ctx context.Context) error {
	app.startTime = time.Now()
	app.Logger.Info("Crawler Started! 🚀")

	if app.cloudLoggingEnabled() {
		projectID, err := app.projectID()
		if err == nil {
			err = app.Logger.attachCloud(ctx, projectID, app.Name, app.googleClientOptions()...)
		}
		if err != nil {
			app.Logger.Warn("Cloud logging disabled: %v", err)
		}
	}

	if app.snapshot == nil {
		snapshot, err := app.newSnapshotter(ctx)
		if err != nil {
			app.Logger.Warn("Snapshots disabled: %v", err)
			snapshot = noopSnapshotter{}
		}
		app.snapshot = snapshot
		app.Logger.setSnapshotter(snapshot)
	}

	if app.store == nil {
		store, err := app.openStore(ctx)
		if err != nil {
			return err
		}
		app.UseStore(store)
	}

	return app.bootstrap(ctx)
}

// Stop releases every client opened by Start.
func (app *Crawler) Stop(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			app.Logger.Error("Recovered in Stop: %v", r)
		}
	}()
	if app.store != nil {
		if err := app.store.Close(ctx); err != nil {
			app.Logger.Error("Failed to close store: %v", err)
		}
	}
	if app.snapshot != nil {
		if err := app.snapshot.Close(); err != nil {
			app.Logger.Error("Failed to close snapshotter: %v", err)
		}
	}

	app.Logger.Info("Crawler stopped in ⚡ %v", time.Since(app.startTime))
	app.Logger.Close()
}

func (app *Crawler) openStore(ctx context.Context) (Store, error) {
	switch driver := app.Config.EnvString("STORE_DRIVER", "mongo"); driver {
	case "mongo":
		return newMongoStore(ctx, app.Config.GetString("DB_URI"), app.Config.GetString("DB_NAME"), app.Logger)
	case "datastore":
		return app.newDatastoreStore(ctx)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}

func (app *Crawler) cloudLoggingEnabled() bool {
	if app.Config.v.IsSet("CLOUD_LOGGING") {
		return app.Config.GetBool("CLOUD_LOGGING")
	}
	return !app.Config.isLocalEnv() && metadata.OnGCE()
}

// projectID prefers PROJECT_ID and falls back to the metadata server.
func (app *Crawler) projectID() (string, error) {
	if projectID := app.Config.EnvString("PROJECT_ID"); projectID != "" {
		return projectID, nil
	}
	projectID, err := metadata.ProjectID()
	if err != nil {
		return "", fmt.Errorf("failed to get project ID: %w", err)
	}
	return projectID, nil
}

func (app *Crawler) googleClientOptions() []option.ClientOption {
	if path := app.Config.EnvString("GCP_CREDENTIALS_PATH"); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}
