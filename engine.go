package storecrawler

import (
	"time"
)

const (
	RodEngine        = "rod"
	PlayWrightEngine = "playwright"
	StaticEngine     = "static"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"

// Engine holds the navigation and crawl tunables.
type Engine struct {
	Adapter                string
	BrowserType            string
	Headless               *bool
	NoSandbox              *bool
	ExecutablePath         string
	ForceInstallPlaywright bool
	Args                   []string
	UserAgent              string
	RootTimeout            time.Duration
	DetailTimeout          time.Duration
	NetworkIdle            time.Duration
	LazyLoadOffset         int
	LazyLoadDelay          time.Duration
	CrawlLimit             int
	DefaultStock           int
	CheckRobotsTxt         *bool
}

func getDefaultEngine() Engine {
	return Engine{
		Adapter:       RodEngine,
		BrowserType:   "chromium",
		Headless:      Bool(true),
		NoSandbox:     Bool(true),
		Args:          []string{"--no-sandbox", "--disable-setuid-sandbox"},
		UserAgent:     defaultUserAgent,
		RootTimeout:   60 * time.Second,
		DetailTimeout: 45 * time.Second,
		NetworkIdle:   500 * time.Millisecond,
		// window.scrollBy(0, 500) then a 2s settle, enough for the gallery to swap data-src in.
		LazyLoadOffset: 500,
		LazyLoadDelay:  2 * time.Second,
		CrawlLimit:     5,
		DefaultStock:   100,
		CheckRobotsTxt: Bool(false),
	}
}

func overrideEngineDefaults(defaultEngine *Engine, eng *Engine) {
	if eng.Adapter != "" {
		defaultEngine.Adapter = eng.Adapter
	}
	if eng.BrowserType != "" {
		defaultEngine.BrowserType = eng.BrowserType
	}
	if eng.Headless != nil {
		defaultEngine.Headless = eng.Headless
	}
	if eng.NoSandbox != nil {
		defaultEngine.NoSandbox = eng.NoSandbox
	}
	if eng.ExecutablePath != "" {
		defaultEngine.ExecutablePath = eng.ExecutablePath
	}
	if eng.ForceInstallPlaywright {
		defaultEngine.ForceInstallPlaywright = eng.ForceInstallPlaywright
	}
	if len(eng.Args) > 0 {
		defaultEngine.Args = eng.Args
	}
	if eng.UserAgent != "" {
		defaultEngine.UserAgent = eng.UserAgent
	}
	if eng.RootTimeout > 0 {
		defaultEngine.RootTimeout = eng.RootTimeout
	}
	if eng.DetailTimeout > 0 {
		defaultEngine.DetailTimeout = eng.DetailTimeout
	}
	if eng.NetworkIdle > 0 {
		defaultEngine.NetworkIdle = eng.NetworkIdle
	}
	if eng.LazyLoadOffset > 0 {
		defaultEngine.LazyLoadOffset = eng.LazyLoadOffset
	}
	if eng.LazyLoadDelay > 0 {
		defaultEngine.LazyLoadDelay = eng.LazyLoadDelay
	}
	if eng.CrawlLimit > 0 {
		defaultEngine.CrawlLimit = eng.CrawlLimit
	}
	if eng.DefaultStock > 0 {
		defaultEngine.DefaultStock = eng.DefaultStock
	}
	if eng.CheckRobotsTxt != nil {
		defaultEngine.CheckRobotsTxt = eng.CheckRobotsTxt
	}
}

// engineFromConfig maps environment settings onto an Engine override.
func engineFromConfig(config *configService) Engine {
	eng := Engine{
		Adapter:                config.GetString("BROWSER_ADAPTER"),
		ExecutablePath:         config.GetString("BROWSER_EXECUTABLE_PATH"),
		ForceInstallPlaywright: config.GetBool("FORCE_INSTALL_PLAYWRIGHT"),
		UserAgent:              config.GetString("USER_AGENT"),
		Headless:               Bool(config.GetBool("BROWSER_HEADLESS")),
	}
	if config.v.IsSet("CHECK_ROBOTS_TXT") {
		eng.CheckRobotsTxt = Bool(config.GetBool("CHECK_ROBOTS_TXT"))
	}
	return eng
}

func Bool(b bool) *bool {
	return &b
}
