package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	defaultListenAddr   = ":8080"
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	defaultAppName      = "pet-health-tracker"
	defaultEnvironment  = "development"
	defaultShareRate    = 5
	defaultShareBurst   = 20
	defaultStagingToken = "staging"
)

type Config struct {
	// Dirección donde escucha la API
	ListenAddr string

	// Si está vacío se usa storage in-memory
	DatabaseDSN string

	LogLevel  string
	LogFormat string
	AppName   string

	// Secreto HS256 de los access tokens. Vacío = modo dev (X-Debug-User-ID)
	JWTSecret   string
	JWTAudience string

	AnalyticsURL    string
	AnalyticsAPIKey string

	ShareBaseURL       string
	ShareStagingURL    string
	ShareStagingMarker string
	ShareRatePerSec    float64
	ShareRateBurst     int

	// Confiar en X-Forwarded-For/X-Real-IP (solo detrás de un proxy propio)
	TrustProxy bool

	Environment string
}

func NewConfig() *Config {
	return &Config{
		ListenAddr:         defaultListenAddr,
		LogLevel:           defaultLogLevel,
		LogFormat:          defaultLogFormat,
		AppName:            defaultAppName,
		ShareStagingMarker: defaultStagingToken,
		ShareRatePerSec:    defaultShareRate,
		ShareRateBurst:     defaultShareBurst,
		Environment:        defaultEnvironment,
	}
}

// LoadDotEnv carga '.env' del directorio de trabajo si existe.
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	var errs []error

	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setFloat := func(key string, o *float64) func(value string) {
		return func(value string) {
			if value == "" {
				return
			}
			f, err := strconv.ParseFloat(value, 64)
			if err != nil || f <= 0 {
				errs = append(errs, fmt.Errorf("%s: invalid positive number %q", key, value))
				return
			}
			*o = f
		}
	}
	setBool := func(key string, o *bool) func(value string) {
		return func(value string) {
			if value == "" {
				return
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid boolean %q", key, value))
				return
			}
			*o = b
		}
	}
	setInt := func(key string, o *int) func(value string) {
		return func(value string) {
			if value == "" {
				return
			}
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				errs = append(errs, fmt.Errorf("%s: invalid positive integer %q", key, value))
				return
			}
			*o = n
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DB_DSN":               setString(&c.DatabaseDSN),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"LOG_FORMAT":           setString(&c.LogFormat),
		"APP_NAME":             setString(&c.AppName),
		"AUTH_JWT_SECRET":      setString(&c.JWTSecret),
		"AUTH_JWT_AUDIENCE":    setString(&c.JWTAudience),
		"ANALYTICS_URL":        setString(&c.AnalyticsURL),
		"ANALYTICS_API_KEY":    setString(&c.AnalyticsAPIKey),
		"SHARE_BASE_URL":       setString(&c.ShareBaseURL),
		"SHARE_STAGING_URL":    setString(&c.ShareStagingURL),
		"SHARE_STAGING_MARKER": setString(&c.ShareStagingMarker),
		"SHARE_RATE_PER_SEC":   setFloat("SHARE_RATE_PER_SEC", &c.ShareRatePerSec),
		"SHARE_RATE_BURST":     setInt("SHARE_RATE_BURST", &c.ShareRateBurst),
		"TRUST_PROXY":          setBool("TRUST_PROXY", &c.TrustProxy),
		"ENVIRONMENT":          setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}

	// PORT (estilo PaaS) pisa RUN_ADDRESS
	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		c.ListenAddr = ":" + port
	}

	return errors.Join(errs...)
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("pet-health-tracker", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Postgres connection string (empty = in-memory)")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Logging format (text, json)")
	fs.StringVarP(&c.JWTSecret, "jwt-secret", "s", c.JWTSecret, "HS256 secret for access tokens")
	fs.StringVar(&c.AnalyticsURL, "analytics-url", c.AnalyticsURL, "Analytics collector base URL")
	fs.StringVar(&c.ShareBaseURL, "share-base-url", c.ShareBaseURL, "Public base URL for share links")
	fs.Float64Var(&c.ShareRatePerSec, "share-rate", c.ShareRatePerSec, "Requests per second per IP on /shared")
	fs.IntVar(&c.ShareRateBurst, "share-burst", c.ShareRateBurst, "Burst per IP on /shared")
	fs.BoolVar(&c.TrustProxy, "trust-proxy", c.TrustProxy, "Take client IP from X-Forwarded-For/X-Real-IP")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (development, staging, production)")

	return fs.Parse(args)
}
