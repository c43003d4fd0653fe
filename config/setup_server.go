package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	MinRenditionSize = 16
	MaxRenditionSize = 4096
)

type AppConfig struct {
	ServerAddr  string           `yaml:"serverAddr" env:"SERVER_ADDR"`
	S3Config    S3Config         `yaml:"s3Config" envPrefix:"S3_"`
	Containers  ContainersConfig `yaml:"containers" envPrefix:"CONTAINER_"`
	RedisConfig RedisConfig      `yaml:"redisConfig" envPrefix:"REDIS_"`
	JWT         JWTConfig        `yaml:"jwt" envPrefix:"JWT_"`
	Cookie      CookieConfig     `yaml:"cookie" envPrefix:"COOKIE_"`
	Media       MediaConfig      `yaml:"media"`
	Upload      UploadConfig     `yaml:"upload"`
	CORS        CORSConfig       `yaml:"cors"`
	RateLimit   RateLimitConfig  `yaml:"rateLimit"`
	Admin       AdminConfig      `yaml:"admin"`
}

func DefaultConfig() *AppConfig {
	return &AppConfig{
		ServerAddr: ":8080",
		S3Config: S3Config{
			Region:          "us-east-1",
			Timeout:         30 * time.Second,
			TransferTimeout: time.Hour,
		},
		Containers: ContainersConfig{
			Config: "config",
			Data:   "data",
			Thumbs: "thumbs",
		},
		RedisConfig: RedisConfig{TTL: 30 * time.Second},
		JWT: JWTConfig{
			SecretKey: "change-me",
			Issuer:    "gallerix",
			ExpiresIn: 86400,
		},
		Cookie: CookieConfig{Name: "gallerix_token"},
		Media: MediaConfig{
			ThumbMaxSize:    360,
			PreviewMaxSize:  1200,
			Quality:         82,
			MaxSourcePixels: 50_000_000,
			SingleFlight:    true,
		},
		Upload: UploadConfig{
			MaxBytes: 200 << 20,
			PartSize: 8 << 20,
		},
		RateLimit: RateLimitConfig{LoginPerMinute: 20},
	}
}

// LoadConfig layers defaults, the optional YAML file, an optional .env file and the environment.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Printf("[Config] %s not found, using defaults and environment", path)
		case err != nil:
			return nil, fmt.Errorf("[Config] read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("[Config] parse %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("[Config] load .env: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("[Config] parse environment: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *AppConfig) normalize() {
	c.Media.ThumbMaxSize = ClampRenditionSize(c.Media.ThumbMaxSize)
	c.Media.PreviewMaxSize = ClampRenditionSize(c.Media.PreviewMaxSize)
	c.Media.Quality = ClampQuality(c.Media.Quality)
	if c.JWT.ExpiresIn <= 0 {
		c.JWT.ExpiresIn = 86400
	}
	if c.Cookie.Name == "" {
		c.Cookie.Name = "gallerix_token"
	}
	if c.Upload.PartSize < 5<<20 {
		c.Upload.PartSize = 5 << 20
	}
	if c.JWT.SecretKey == "change-me" {
		log.Println("[Config] JWT secret is the default value, set JWT_SECRET")
	}
}

func ClampRenditionSize(size int) int {
	return min(max(size, MinRenditionSize), MaxRenditionSize)
}

func ClampQuality(q int) int {
	return min(max(q, 1), 100)
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:              serverAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, router
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	return NewRedisClient(cfg)
}
