package influx

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// V1Config holds the connection settings of an InfluxDB 1.x server. It is
// constructed once and never mutated afterwards.
type V1Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Database   string
	SSL        bool
	VerifySSL  bool
	AllowWrite bool
}

// Addr renders the HTTP endpoint of the server.
func (c V1Config) Addr() string {
	scheme := "http"
	if c.SSL {
		scheme = "https"
	}
	port := c.Port
	if port == 0 {
		port = 8086
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, port)
}

// V2Config holds the connection settings of an InfluxDB 2.x server.
type V2Config struct {
	URL        string
	Token      string
	Org        string
	Bucket     string
	AllowWrite bool
}

var loadEnvOnce sync.Once

// loadEnv reads a .env file once per process, if one exists.
func loadEnv() {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

func getenv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// EnvBool interprets the boolean environment convention: "1", "true", "yes",
// "y" and "on" are true, case-insensitively.
func EnvBool(value string, fallback bool) bool {
	if value == "" {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// V1ConfigFromEnv builds a V1Config from INFLUXDB_V1_* variables, falling
// back to the unversioned INFLUXDB_* names.
func V1ConfigFromEnv() V1Config {
	loadEnv()
	port := 8086
	if v := getenv("INFLUXDB_V1_PORT", "INFLUXDB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}
	return V1Config{
		Host:       getenv("INFLUXDB_V1_HOST", "INFLUXDB_HOST"),
		Port:       port,
		Username:   getenv("INFLUXDB_V1_USER", "INFLUXDB_USER"),
		Password:   getenv("INFLUXDB_V1_PASSWORD", "INFLUXDB_PWD"),
		Database:   getenv("INFLUXDB_V1_DATABASE", "INFLUXDB_DB"),
		SSL:        EnvBool(os.Getenv("INFLUXDB_V1_SSL"), false),
		VerifySSL:  EnvBool(os.Getenv("INFLUXDB_V1_VERIFY_SSL"), false),
		AllowWrite: EnvBool(os.Getenv("INFLUXDB_ALLOW_WRITE"), false),
	}
}

// V2ConfigFromEnv builds a V2Config from INFLUXDB_V2_* variables, falling
// back to the unversioned INFLUXDB_* names.
func V2ConfigFromEnv() V2Config {
	loadEnv()
	return V2Config{
		URL:        getenv("INFLUXDB_V2_URL", "INFLUXDB_URL"),
		Token:      getenv("INFLUXDB_V2_TOKEN", "INFLUXDB_TOKEN"),
		Org:        getenv("INFLUXDB_V2_ORG", "INFLUXDB_ORG"),
		Bucket:     getenv("INFLUXDB_V2_BUCKET", "INFLUXDB_BUCKET"),
		AllowWrite: EnvBool(os.Getenv("INFLUXDB_ALLOW_WRITE"), false),
	}
}

// ResolveV1Config builds a V1Config from a generic config mapping, accepting
// the historical key aliases (user/pwd).
func ResolveV1Config(config map[string]interface{}) V1Config {
	return V1Config{
		Host:       stringVal(config, "host"),
		Port:       intVal(config, 8086, "port"),
		Username:   stringVal(config, "username", "user"),
		Password:   stringVal(config, "password", "pwd"),
		Database:   stringVal(config, "database"),
		SSL:        boolVal(config, "ssl"),
		VerifySSL:  boolVal(config, "verify_ssl"),
		AllowWrite: boolVal(config, "allow_write"),
	}
}

// ResolveV2Config builds a V2Config from a generic config mapping.
func ResolveV2Config(config map[string]interface{}) V2Config {
	return V2Config{
		URL:        stringVal(config, "url"),
		Token:      stringVal(config, "token"),
		Org:        stringVal(config, "org"),
		Bucket:     stringVal(config, "bucket"),
		AllowWrite: boolVal(config, "allow_write"),
	}
}

func stringVal(config map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := config[k]; ok && v != nil {
			switch s := v.(type) {
			case string:
				if s != "" {
					return s
				}
			default:
				return fmt.Sprintf("%v", v)
			}
		}
	}
	return ""
}

func intVal(config map[string]interface{}, fallback int, keys ...string) int {
	for _, k := range keys {
		v, ok := config[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		case string:
			if p, err := strconv.Atoi(n); err == nil {
				return p
			}
		}
	}
	return fallback
}

func boolVal(config map[string]interface{}, keys ...string) bool {
	for _, k := range keys {
		v, ok := config[k]
		if !ok || v == nil {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b
		case string:
			return EnvBool(b, false)
		}
	}
	return false
}
