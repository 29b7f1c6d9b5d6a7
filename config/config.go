package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// MaxBatchSize is the most rental ids the listings endpoint answers for in one call.
const MaxBatchSize = 250

// Load policies for the bulk loader.
const (
	// LoadModeInsert appends every row and fails on a duplicate unit_id, as
	// the source scraper did.
	LoadModeInsert = "insert"
	// LoadModeUpsert updates units and skips amenity rows that already
	// exist, so a re-run over the same ids succeeds. It is the default.
	LoadModeUpsert = "upsert"
	// LoadModeReplace empties both tables before inserting.
	LoadModeReplace = "replace"
)

// Sources for amenity rows tagged "unit".
const (
	UnitAmenitiesFromCommunity = "community"
	UnitAmenitiesFromUnit      = "unit"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL      string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	APIToken       string
	APIBaseURL     string
	SiteURL        string
	RegionPath     string
	TargetCity     string
	BatchSize      int
	RateLimitMs    int
	HTTPTimeoutSec int

	RenderWithBrowser bool
	ChromeBin         string

	UnitAmenitySource string
	LoadMode          string
	EnsureSchema      bool

	CSVOutputDir   string
	PushgatewayURL string
	LogLevel       string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		APIToken:       getEnv("API_TOKEN", ""),
		APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", "https://api.apartmentlist.com"), "/"),
		SiteURL:        strings.TrimRight(getEnv("SITE_URL", "https://www.apartmentlist.com"), "/"),
		RegionPath:     getEnv("REGION_PATH", "/il/evanston"),
		TargetCity:     getEnv("TARGET_CITY", "Evanston"),
		BatchSize:      clampBatchSize(getEnvInt("BATCH_SIZE", MaxBatchSize)),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 0),
		HTTPTimeoutSec: getEnvInt("HTTP_TIMEOUT_SEC", 0),

		RenderWithBrowser: getEnvBool("RENDER_WITH_BROWSER", false),
		ChromeBin:         getEnv("CHROME_BIN", ""),

		UnitAmenitySource: strings.ToLower(getEnv("UNIT_AMENITY_SOURCE", UnitAmenitiesFromCommunity)),
		LoadMode:          strings.ToLower(getEnv("LOAD_MODE", LoadModeUpsert)),
		EnsureSchema:      getEnvBool("ENSURE_SCHEMA", false),

		CSVOutputDir:   getEnv("CSV_OUTPUT_DIR", ""),
		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports configuration that would make the run fail later.
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return fmt.Errorf("config: API_TOKEN is required")
	}
	if c.TargetCity == "" {
		return fmt.Errorf("config: TARGET_CITY must not be empty")
	}
	switch c.LoadMode {
	case LoadModeInsert, LoadModeUpsert, LoadModeReplace:
	default:
		return fmt.Errorf("config: unknown LOAD_MODE %q", c.LoadMode)
	}
	switch c.UnitAmenitySource {
	case UnitAmenitiesFromCommunity, UnitAmenitiesFromUnit:
	default:
		return fmt.Errorf("config: unknown UNIT_AMENITY_SOURCE %q", c.UnitAmenitySource)
	}
	return nil
}

// DSN returns the PostgreSQL connection string. DATABASE_URL wins when set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// RegionURL is the landing page rental ids are discovered from.
func (c *Config) RegionURL() string {
	return c.SiteURL + "/" + strings.TrimLeft(c.RegionPath, "/")
}

func clampBatchSize(n int) int {
	if n < 1 || n > MaxBatchSize {
		return MaxBatchSize
	}
	return n
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
