package config

import "time"

type S3Config struct {
	Region    string        `yaml:"region" env:"REGION"`
	Endpoint  string        `yaml:"endpoint" env:"ENDPOINT"`
	Local     bool          `yaml:"local" env:"LOCAL"`
	AccessKey string        `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string        `yaml:"secret_key" env:"SECRET_KEY"`
	Timeout   time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// TransferTimeout bounds streamed downloads and uploads; zero means unbounded.
	TransferTimeout time.Duration `yaml:"transfer_timeout" env:"TRANSFER_TIMEOUT"`
}

// ContainersConfig names the buckets used as containers.
type ContainersConfig struct {
	Config string `yaml:"config" env:"CONFIG"`
	Data   string `yaml:"data" env:"DATA"`
	Thumbs string `yaml:"thumbs" env:"THUMBS"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	TTL      time.Duration `yaml:"ttl" env:"TTL"`
}

type JWTConfig struct {
	SecretKey string `yaml:"secret_key" env:"SECRET"`
	Issuer    string `yaml:"issuer" env:"ISSUER"`
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int `yaml:"expires_in" env:"EXPIRES_IN"`
}

func (c JWTConfig) TTL() time.Duration {
	return time.Duration(c.ExpiresIn) * time.Second
}

type CookieConfig struct {
	Name   string `yaml:"name" env:"NAME"`
	Secure bool   `yaml:"secure" env:"SECURE"`
}

type MediaConfig struct {
	ThumbMaxSize   int `yaml:"thumb_max_size" env:"THUMB_MAX_SIZE"`
	PreviewMaxSize int `yaml:"preview_max_size" env:"PREVIEW_MAX_SIZE"`
	Quality        int `yaml:"quality" env:"THUMB_QUALITY"`
	// MaxSourcePixels bounds width*height of originals that are decoded.
	MaxSourcePixels int `yaml:"max_source_pixels" env:"MAX_SOURCE_PIXELS"`
	// SingleFlight collapses concurrent generations of the same rendition.
	SingleFlight bool `yaml:"single_flight" env:"THUMB_SINGLE_FLIGHT"`
}

type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes" env:"UPLOAD_MAX_BYTES"`
	// PartSize is the multipart chunk size used when streaming to the store.
	PartSize int64 `yaml:"part_size" env:"UPLOAD_PART_SIZE"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

type RateLimitConfig struct {
	LoginPerMinute int `yaml:"login_per_minute" env:"LOGIN_RATE_PER_MINUTE"`
}

// AdminConfig seeds the first admin when users.json is empty.
type AdminConfig struct {
	Username string `yaml:"username" env:"ADMIN_USERNAME"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}
