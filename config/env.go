package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultAPIBaseURL      = "http://localhost:8000/api"
	defaultAppEnv          = "local"
	defaultTerminalPort    = "8090"
	defaultStateDriver     = "disk"
	defaultStateDir        = "state"
	defaultRedisAddr       = "localhost:6379"
	defaultHistoryDSN      = "hoffee.db"
	defaultJWTSecret       = "change-me-in-production"
	defaultMenuRefreshSecs = 120
)

// Default admin allowlist matches the two back-office Telegram accounts the
// shop operates with. Override with ADMIN_IDS.
const defaultAdminIDs = "1962824399,937710441"

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load reads config/app.json and .env once and merges them over the defaults.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"API_BASE_URL":       defaultAPIBaseURL,
		"APP_ENV":            defaultAppEnv,
		"ADMIN_IDS":          defaultAdminIDs,
		"TERMINAL_PORT":      defaultTerminalPort,
		"STATE_DRIVER":       defaultStateDriver,
		"STATE_DIR":          defaultStateDir,
		"REDIS_ADDR":         defaultRedisAddr,
		"REDIS_PASSWORD":     "",
		"HISTORY_DSN":        defaultHistoryDSN,
		"JWT_SECRET":         defaultJWTSecret,
		"APP_KEY":            "",
		"STAFF_PIN_HASH":     "",
		"MENU_REFRESH_SECS":  "",
		"MONGO_URI":          "",
		"MONGO_DB":           "hoffee",
		"TELEGRAM_BOT_TOKEN": "",
		"STAFF_CHAT_ID":      "",
	}
}

// APIBaseURL is the backend REST base path, e.g. http://host/api.
func APIBaseURL() string {
	_ = Load()
	return strings.TrimRight(get("API_BASE_URL", defaultAPIBaseURL), "/")
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

func TerminalPort() string {
	_ = Load()
	return get("TERMINAL_PORT", defaultTerminalPort)
}

// AdminIDs returns the static back-office allowlist. Admin privilege is always
// derived from membership here, never persisted.
func AdminIDs() []int64 {
	_ = Load()
	raw := get("ADMIN_IDS", defaultAdminIDs)
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// StateDriver selects where local snapshots live: "disk" or "redis".
func StateDriver() string {
	_ = Load()
	driver := strings.ToLower(get("STATE_DRIVER", defaultStateDriver))
	switch driver {
	case "disk", "redis":
		return driver
	default:
		return defaultStateDriver
	}
}

func StateDir() string {
	_ = Load()
	return get("STATE_DIR", defaultStateDir)
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

// HistoryDSN is the SQLite file holding the local order archive.
func HistoryDSN() string {
	_ = Load()
	return get("HISTORY_DSN", defaultHistoryDSN)
}

func JWTSecret() string {
	_ = Load()
	return get("JWT_SECRET", defaultJWTSecret)
}

// StaffPinHash is the bcrypt hash of the terminal unlock PIN.
// Empty means the terminal runs unlocked (development).
func StaffPinHash() string {
	_ = Load()
	return get("STAFF_PIN_HASH", "")
}

// MenuRefreshInterval is how often the background catalog refresh fires.
func MenuRefreshInterval() time.Duration {
	_ = Load()
	secs, err := strconv.Atoi(get("MENU_REFRESH_SECS", ""))
	if err != nil || secs <= 0 {
		secs = defaultMenuRefreshSecs
	}
	return time.Duration(secs) * time.Second
}

func MongoURI() string { _ = Load(); return get("MONGO_URI", "") }
func MongoDB() string  { _ = Load(); return get("MONGO_DB", "hoffee") }

func TelegramBotToken() string { _ = Load(); return get("TELEGRAM_BOT_TOKEN", "") }
func StaffChatID() string      { _ = Load(); return get("STAFF_CHAT_ID", "") }

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string {
	_ = Load()
	return get("STORAGE_DISK", "local")
}

func StorageLocalRoot() string {
	_ = Load()
	return get("STORAGE_LOCAL_ROOT", "storage")
}

func StorageURL() string {
	_ = Load()
	return get("STORAGE_URL", "http://localhost:8090/storage")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func StorageS3URL() string      { _ = Load(); return get("S3_URL", "") }

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		s, ok := val.(string)
		if !ok {
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

// Get reads any config key by name with an optional fallback.
// Keys from .env and app.json are available after config.Load().
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}
