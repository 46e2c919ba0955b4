package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ReportStoreMongo    = "mongo"
	ReportStorePostgres = "postgres"
)

type Config struct {
	Port           string
	JWTSecret      string
	MongoURI       string
	DBName         string
	Environment    string
	AppId          string
	AllowedOrigins string

	ReportStore string // mongo or postgres
	PostgresDSN string
	ReportTTL   time.Duration // server-assigned visibility window

	FSPath      string // Physical directory for stored objects
	PhotoBucket string
	MaxUploadMB int

	SweepSchedule string

	// Client side (cmd/reporter)
	APIURL   string
	APIToken string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "secret"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:         getEnv("DB_NAME", "litterbugs"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AppId:          getEnv("APP_ID", "litterbugs"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:8081, http://localhost:19006"),
		ReportStore:    strings.ToLower(getEnv("REPORT_STORE", ReportStoreMongo)),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		ReportTTL:      parseDuration(getEnv("REPORT_TTL", "720h"), 30*24*time.Hour),
		FSPath:         getEnv("FS_PATH", "./storage"),
		PhotoBucket:    getEnv("PHOTO_BUCKET", "report_photos"),
		MaxUploadMB:    parseInt(getEnv("MAX_UPLOAD_MB", "10"), 10),
		SweepSchedule:  getEnv("SWEEP_SCHEDULE", "@every 1h"),
		APIURL:         strings.TrimRight(getEnv("API_URL", "http://localhost:8080"), "/"),
		APIToken:       getEnv("API_TOKEN", ""),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseInt(s string, defaultValue int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return defaultValue
}

// parseDuration accepts Go durations, a day suffix ("30d") or bare seconds.
func parseDuration(s string, defaultValue time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if strings.HasSuffix(s, "d") {
		if days, err := strconv.Atoi(strings.TrimSuffix(s, "d")); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	if i, err := strconv.Atoi(s); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}
