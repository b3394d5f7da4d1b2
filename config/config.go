package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type ProviderConfig struct {
	APIKey            string        `mapstructure:"apiKey"`
	BaseURL           string        `mapstructure:"baseURL"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxConcurrent     int64         `mapstructure:"maxConcurrent"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
	Language          string        `mapstructure:"language"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	Handlers struct {
		ExternalAPI struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"externalAPI"`
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
		Redis struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort       string        `mapstructure:"HTTPPort"`
		Timeout        time.Duration `mapstructure:"HTTPTimeout"`
		AllowedOrigins []string      `mapstructure:"allowedOrigins"`
		RateLimit      int           `mapstructure:"generateRequestsPerMinute"`
	} `mapstructure:"server"`
	Cache struct {
		Backend   string        `mapstructure:"backend"` // postgres, redis or memory
		TTL       time.Duration `mapstructure:"ttl"`
		MemoryTTL time.Duration `mapstructure:"memoryTTL"`
	} `mapstructure:"cache"`
	LLM struct {
		Provider       string        `mapstructure:"provider"` // gateway or gemini
		BaseURL        string        `mapstructure:"baseURL"`
		APIKey         string        `mapstructure:"apiKey"`
		Models         []string      `mapstructure:"models"`
		AttemptTimeout time.Duration `mapstructure:"attemptTimeout"`
		Temperature    float32       `mapstructure:"temperature"`
	} `mapstructure:"llm"`
	Providers struct {
		Google     ProviderConfig `mapstructure:"google"`
		Foursquare ProviderConfig `mapstructure:"foursquare"`
	} `mapstructure:"providers"`
	Enrichment struct {
		Delay time.Duration `mapstructure:"delay"`
	} `mapstructure:"enrichment"`
}

// InitConfig loads config.yml from the usual paths, falling back to the
// embedded copy. Any key can be overridden with APP_<SECTION>_<KEY>, e.g.
// APP_PROVIDERS_GOOGLE_APIKEY.
func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
