package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mkbscrape/internal/util"
)

type Config struct {
	DBPath    string
	OutputDir string
	LogLevel  string

	BaseURL         string
	IndexPath       string
	CataloguePrefix string
	DelayMs         int
	TimeoutMs       int
	UserAgent       string

	LabelsCode      []string
	LabelsPrimary   []string
	LabelsAlternate []string

	WatchIntervalMin int
	WatchAutoExport  bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	defaults := util.DefaultLabels()
	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		BaseURL:         strings.TrimRight(getEnv("MKB_BASE_URL", "https://www.stetoskop.info"), "/"),
		IndexPath:       ensureLeadingSlash(getEnv("MKB_INDEX_PATH", "/medjunarodna-klasifikacija-bolesti")),
		CataloguePrefix: ensureLeadingSlash(getEnv("MKB_CATALOGUE_PREFIX", "/medjunarodna-klasifikacija-bolesti")),
		DelayMs:         max(0, getEnvInt("MKB_DELAY_MS", 200)),
		TimeoutMs:       getEnvInt("MKB_TIMEOUT_MS", 30000),
		UserAgent:       getEnv("MKB_USER_AGENT", "Mozilla/5.0 (compatible; mkb-scraper/1.0; +https://www.batut.org.rs)"),

		LabelsCode:      getEnvList("MKB_LABELS_CODE", defaults.Code),
		LabelsPrimary:   getEnvList("MKB_LABELS_PRIMARY", defaults.Primary),
		LabelsAlternate: getEnvList("MKB_LABELS_ALTERNATE", defaults.Alternate),

		WatchIntervalMin: getEnvInt("WATCH_INTERVAL_MIN", 24*60),
		WatchAutoExport:  getEnvBool("WATCH_AUTO_EXPORT", true),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func (c Config) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c Config) Labels() util.LabelSet {
	return util.LabelSet{Code: c.LabelsCode, Primary: c.LabelsPrimary, Alternate: c.LabelsAlternate}
}

func ensureLeadingSlash(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := getEnv(key, "")
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return util.ParseList(value)
}
