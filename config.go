package storecrawler

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// configService resolves settings from an optional .env file and the environment.
type configService struct {
	v *viper.Viper
}

func newConfig() *configService {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/")
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "production")
	v.SetDefault("SITE_URL", "https://cellphones.com.vn")
	v.SetDefault("SCRAPER_TARGET_URL", "https://cellphones.com.vn/mobile.html")
	v.SetDefault("BROWSER_ADAPTER", RodEngine)
	v.SetDefault("BROWSER_HEADLESS", true)
	v.SetDefault("STORE_DRIVER", "mongo")
	v.SetDefault("DB_URI", "mongodb://127.0.0.1:27017")
	v.SetDefault("DB_NAME", "cellphones-clone")
	v.SetDefault("SNAPSHOT_DRIVER", "file")
	v.SetDefault("HTTP_ADDR", ":3001")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading Config file: %v\n", err)
		}
	}

	return &configService{v: v}
}

// Env retrieves a configuration value, falling back to defaultValue when unset.
func (c *configService) Env(envName string, defaultValue ...interface{}) interface{} {
	value := c.v.Get(envName)
	if value != nil {
		return value
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}

	return nil
}

func (c *configService) EnvString(envName string, defaultValue ...string) string {
	value := c.v.Get(envName)
	if value != nil && fmt.Sprint(value) != "" {
		return fmt.Sprint(value)
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}

	return ""
}

// Add overrides a configuration value at runtime.
func (c *configService) Add(name string, configuration interface{}) {
	c.v.Set(name, configuration)
}

func (c *configService) GetString(path string) string {
	return c.v.GetString(path)
}

func (c *configService) GetInt(path string) int {
	return c.v.GetInt(path)
}

func (c *configService) GetBool(path string) bool {
	return c.v.GetBool(path)
}

func (c *configService) GetDuration(path string) time.Duration {
	return c.v.GetDuration(path)
}

func (c *configService) isLocalEnv() bool {
	return c.GetString("APP_ENV") == "local"
}
