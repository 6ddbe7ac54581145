// Package config loads mediaprobe settings from config/app.json and .env.
//
// Values are merged in order: built-in defaults → app.json → .env, with the
// environment file winning. Two keys are hard preconditions for any run:
// MEDIA_API_URL and MEDIA_API_TOKEN. Validate() refuses to let a run start
// without them — a missing target is a configuration error, never a test
// failure.
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
	defaultActionTimeout   = "30s"
	defaultScenarioTimeout = "5m"
	defaultWorkers         = "1"
	defaultArtifactDir     = "artifacts"
	defaultAppEnv          = "local"
	defaultMonitorInterval = "10m"
	defaultMonitorAddr     = ":9464"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"MEDIA_API_URL":    "",
		"MEDIA_API_TOKEN":  "",
		"ACTION_TIMEOUT":   defaultActionTimeout,
		"SCENARIO_TIMEOUT": defaultScenarioTimeout,
		"WORKERS":          defaultWorkers,
		"ARTIFACT_DIR":     defaultArtifactDir,
		"APP_ENV":          defaultAppEnv,
		"REDIS_ADDR":       "",
		"REDIS_PASSWORD":   "",
		"MONGO_URI":        "",
		"MONGO_DB":         "mediaprobe",
		"S3_BUCKET":        "",
		"S3_REGION":        "us-east-1",
		"S3_KEY":           "",
		"S3_SECRET":        "",
		"S3_ENDPOINT":      "",
		"MONITOR_INTERVAL": defaultMonitorInterval,
		"MONITOR_ADDR":     defaultMonitorAddr,
	}
}

// BaseURL returns the root URL of the media platform API under test.
func BaseURL() string {
	_ = Load()
	return strings.TrimRight(get("MEDIA_API_URL", ""), "/")
}

// APIToken returns the auth token sent with every request.
func APIToken() string {
	_ = Load()
	return get("MEDIA_API_TOKEN", "")
}

// ActionTimeout bounds a single API call.
func ActionTimeout() time.Duration {
	_ = Load()
	return duration("ACTION_TIMEOUT", defaultActionTimeout)
}

// ScenarioTimeout bounds the wall clock of one scenario.
func ScenarioTimeout() time.Duration {
	_ = Load()
	return duration("SCENARIO_TIMEOUT", defaultScenarioTimeout)
}

// Workers returns the scenario worker count (1 = sequential).
func Workers() int {
	_ = Load()
	n, err := strconv.Atoi(get("WORKERS", defaultWorkers))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func AppEnv() string        { _ = Load(); return get("APP_ENV", defaultAppEnv) }
func ArtifactDir() string   { _ = Load(); return get("ARTIFACT_DIR", defaultArtifactDir) }
func RedisAddr() string     { _ = Load(); return get("REDIS_ADDR", "") }
func RedisPassword() string { _ = Load(); return get("REDIS_PASSWORD", "") }
func MongoURI() string      { _ = Load(); return get("MONGO_URI", "") }
func MongoDB() string       { _ = Load(); return get("MONGO_DB", "mediaprobe") }

func S3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func S3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func S3Key() string      { _ = Load(); return get("S3_KEY", "") }
func S3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func S3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }

func MonitorInterval() time.Duration {
	_ = Load()
	return duration("MONITOR_INTERVAL", defaultMonitorInterval)
}

func MonitorAddr() string { _ = Load(); return get("MONITOR_ADDR", defaultMonitorAddr) }

// Validate checks the hard preconditions for talking to the API under test.
// A run must abort before any scenario executes when these are missing.
func Validate() error {
	if err := Load(); err != nil {
		return err
	}
	if BaseURL() == "" {
		return fmt.Errorf("config: MEDIA_API_URL is not set")
	}
	if APIToken() == "" {
		return fmt.Errorf("config: MEDIA_API_TOKEN is not set")
	}
	return nil
}

func duration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(get(key, fallback))
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

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
