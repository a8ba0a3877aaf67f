package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"storefront/internal/logger"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Env                     string
	AppPort                 string
	AppName                 string
	GrpcPort                string
	StoreDriver             string
	MongoURI                string
	MongoDBName             string
	StoreTimeoutMs          int64
	JwtSecret               string
	UploadDir               string
	PublicBaseURL           string
	CarouselReferenceFormat string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int64
	CacheTTLSeconds         int64
	ApiBaseURL              string
	GrpcTarget              string
	ClientDelayMs           int64
	LogLevel                string
	RemoteLogHttpURI        string
	RemoteTraceRpcURI       string
	RemoteProfilingHttpURI  string
}

// SafeConfig is the loggable view of Config: secrets and credentials are left out.
type SafeConfig struct {
	Env                     string `json:"env"`
	AppPort                 string `json:"app_port"`
	AppName                 string `json:"app_name"`
	GrpcPort                string `json:"grpc_port"`
	StoreDriver             string `json:"store_driver"`
	MongoDBName             string `json:"mongo_db_name"`
	StoreTimeoutMs          int64  `json:"store_timeout_ms"`
	UploadDir               string `json:"upload_dir"`
	PublicBaseURL           string `json:"public_base_url"`
	CarouselReferenceFormat string `json:"carousel_reference_format"`
	RedisAddr               string `json:"redis_addr"`
	CacheTTLSeconds         int64  `json:"cache_ttl_seconds"`
	ApiBaseURL              string `json:"api_base_url"`
	GrpcTarget              string `json:"grpc_target"`
	LogLevel                string `json:"log_level"`
	RemoteLogHttpURI        string `json:"remote_log_http_uri"`
	RemoteTraceRpcURI       string `json:"remote_trace_rpc_uri"`
	RemoteProfilingHttpURI  string `json:"remote_profiling_http_uri"`
}

func (c *Config) ToSafeConfig() SafeConfig {
	return SafeConfig{
		Env:                     c.Env,
		AppPort:                 c.AppPort,
		AppName:                 c.AppName,
		GrpcPort:                c.GrpcPort,
		StoreDriver:             c.StoreDriver,
		MongoDBName:             c.MongoDBName,
		StoreTimeoutMs:          c.StoreTimeoutMs,
		UploadDir:               c.UploadDir,
		PublicBaseURL:           c.PublicBaseURL,
		CarouselReferenceFormat: c.CarouselReferenceFormat,
		RedisAddr:               c.RedisAddr,
		CacheTTLSeconds:         c.CacheTTLSeconds,
		ApiBaseURL:              c.ApiBaseURL,
		GrpcTarget:              c.GrpcTarget,
		LogLevel:                c.LogLevel,
		RemoteLogHttpURI:        c.RemoteLogHttpURI,
		RemoteTraceRpcURI:       c.RemoteTraceRpcURI,
		RemoteProfilingHttpURI:  c.RemoteProfilingHttpURI,
	}
}

func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMs) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) ClientDelay() time.Duration {
	return time.Duration(c.ClientDelayMs) * time.Millisecond
}

func toSnake(s string) string {
	var out strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 && s[i-1] != '_' {
				out.WriteRune('_')
			}
			out.WriteRune(unicode.ToLower(r))
		} else {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// StructAttrs("data", cfg) -> []slog.Attr{ slog.String("data.app_port", "3001"), ... }
func StructAttrs(prefix string, s any) []slog.Attr {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	attrs := make([]slog.Attr, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := prefix + "." + jsonKey(f)

		switch v.Field(i).Kind() {
		case reflect.String:
			attrs = append(attrs, slog.String(key, v.Field(i).String()))
		case reflect.Int, reflect.Int64, reflect.Int32:
			attrs = append(attrs, slog.Int64(key, v.Field(i).Int()))
		default:
			attrs = append(attrs, slog.Any(key, v.Field(i).Interface()))
		}
	}
	return attrs
}

func jsonKey(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return toSnake(f.Name)
}

var log = logger.Instance()
var (
	configInstance *Config
	configOnce     sync.Once
)

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt64(key string, def int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return def
	}

	num, err := strconv.ParseInt(val, 10, 64)
	if err != nil || num < 0 {
		log.Warn("Invalid integer env, using default", slog.String("key", key), slog.Int64("default", def))
		return def
	}
	return num
}

// Load reads the environment into a Config and reports every missing or invalid setting at once.
func Load() (*Config, error) {
	cfg := &Config{
		Env:                     getEnv("ENV", "development"),
		AppPort:                 getEnv("APP_PORT", ""),
		AppName:                 getEnv("APP_NAME", "storefront"),
		GrpcPort:                getEnv("GRPC_PORT", "50051"),
		StoreDriver:             strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDBName:             getEnv("MONGO_DB_NAME", ""),
		StoreTimeoutMs:          getInt64("STORE_TIMEOUT_MS", 5000),
		JwtSecret:               os.Getenv("JWT_SECRET"),
		UploadDir:               getEnv("UPLOAD_DIR", "./public/uploads"),
		CarouselReferenceFormat: strings.ToLower(getEnv("CAROUSEL_REFERENCE_FORMAT", "path")),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 getInt64("REDIS_DB", 0),
		CacheTTLSeconds:         getInt64("CACHE_TTL_SECONDS", 60),
		ClientDelayMs:           getInt64("CLIENT_DELAY_MS", 1000),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		RemoteLogHttpURI:        os.Getenv("REMOTE_LOG_HTTP_URI"),
		RemoteTraceRpcURI:       os.Getenv("REMOTE_TRACE_RPC_URI"),
		RemoteProfilingHttpURI:  os.Getenv("REMOTE_PROFILING_HTTP_URI"),
	}
	cfg.PublicBaseURL = strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+cfg.AppPort), "/")
	cfg.ApiBaseURL = strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:"+cfg.AppPort), "/")
	cfg.GrpcTarget = getEnv("GRPC_TARGET", "localhost:"+cfg.GrpcPort)

	var missing []string
	if cfg.AppPort == "" {
		missing = append(missing, "APP_PORT")
	}
	if cfg.JwtSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoURI == "" {
			missing = append(missing, "MONGO_URI")
		}
		if cfg.MongoDBName == "" {
			missing = append(missing, "MONGO_DB_NAME")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
	switch cfg.CarouselReferenceFormat {
	case "filename", "path", "url":
	default:
		return nil, fmt.Errorf("unsupported CAROUSEL_REFERENCE_FORMAT %q", cfg.CarouselReferenceFormat)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func Instance() *Config {
	configOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Warn("No .env file found, using system environment variables")
		}

		cfg, err := Load()
		if err != nil {
			log.Error("Invalid configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}
		configInstance = cfg

		if cfg.RemoteLogHttpURI == "" {
			log.Warn("Missing REMOTE_LOG_HTTP_URI will skip sending log")
		}
		if cfg.RemoteTraceRpcURI == "" {
			log.Warn("Missing REMOTE_TRACE_RPC_URI will skip sending trace")
		}
		if cfg.RemoteProfilingHttpURI == "" {
			log.Warn("Missing REMOTE_PROFILING_HTTP_URI will skip sending profiling")
		}

		attrs := StructAttrs("data", cfg.ToSafeConfig())
		anyAttrs := make([]any, len(attrs))
		for i, a := range attrs {
			anyAttrs[i] = a
		}
		log.Info("Configuration loaded successfully", anyAttrs...)
	})

	return configInstance
}
