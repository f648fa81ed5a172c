package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

type ESConfig struct {
	URL      string
	User     string
	Password string
	Index    string
}

// Config is built once at startup and handed to constructors by value.
// Nothing below main reads the environment.
type Config struct {
	ServerAddr  string
	DatabaseURL string
	LogLevel    string

	AccessTokenSecret  []byte
	AccessTokenTTL     time.Duration
	RefreshTokenSecret []byte
	RefreshTokenTTL    time.Duration

	BcryptCost             int
	CookieSecure           bool
	CSRFEnabled            bool
	RevokeOnPasswordChange bool

	UploadDir string

	S3           S3Config
	KafkaBrokers []string
	ES           ESConfig
}

func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	accessTTL, err := ParseTTL(EnvDefault("ACCESS_TOKEN_EXPIRY", "15m"))
	if err != nil {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_EXPIRY: %w", err)
	}
	refreshTTL, err := ParseTTL(EnvDefault("REFRESH_TOKEN_EXPIRY", "10d"))
	if err != nil {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_EXPIRY: %w", err)
	}

	var errs []error
	envInt := func(key string, def int) int {
		n, err := EnvIntDefault(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}
	envBool := func(key string, def bool) bool {
		b, err := EnvBoolDefault(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return b
	}

	cfg := Config{
		ServerAddr:  EnvDefault("SERVER_ADDR", ":8000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		AccessTokenSecret:  []byte(os.Getenv("ACCESS_TOKEN_SECRET")),
		AccessTokenTTL:     accessTTL,
		RefreshTokenSecret: []byte(os.Getenv("REFRESH_TOKEN_SECRET")),
		RefreshTokenTTL:    refreshTTL,

		BcryptCost:             envInt("BCRYPT_COST", bcrypt.DefaultCost),
		CookieSecure:           envBool("COOKIE_SECURE", true),
		CSRFEnabled:            envBool("CSRF_ENABLED", false),
		RevokeOnPasswordChange: envBool("REVOKE_ON_PASSWORD_CHANGE", false),

		UploadDir: EnvDefault("UPLOAD_DIR", os.TempDir()),

		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    EnvDefault("S3_REGION", "us-east-1"),
			Bucket:    os.Getenv("S3_BUCKET"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
		},
		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		ES: ESConfig{
			URL:      os.Getenv("ES_URL"),
			User:     os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
			Index:    EnvDefault("ES_INDEX", "channels"),
		},
	}

	errs = append(errs, cfg.Validate())
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("missing required env DATABASE_URL"))
	}
	if len(c.AccessTokenSecret) == 0 {
		errs = append(errs, errors.New("missing required env ACCESS_TOKEN_SECRET"))
	}
	if len(c.RefreshTokenSecret) == 0 {
		errs = append(errs, errors.New("missing required env REFRESH_TOKEN_SECRET"))
	}
	if len(c.AccessTokenSecret) > 0 && bytes.Equal(c.AccessTokenSecret, c.RefreshTokenSecret) {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token expiry must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}
	if c.S3.Bucket == "" {
		errs = append(errs, errors.New("missing required env S3_BUCKET"))
	}
	return errors.Join(errs...)
}

// ParseTTL accepts time.ParseDuration syntax plus a whole-day suffix ("10d").
func ParseTTL(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", v)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvIntDefault returns def when key is unset. A set but malformed value is
// an error, never silently replaced by def.
func EnvIntDefault(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func EnvBoolDefault(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}
