package web

import (
	"os"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
)

type CorsConfig struct {
	AllowAllOrigins  bool
	AllowOrigins     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
}

func (conf *CorsConfig) Init() {
	if !conf.AllowAllOrigins {
		if val := os.Getenv("CORS_ALLOW_ALL_ORIGINS"); val != "" {
			conf.AllowAllOrigins, _ = strconv.ParseBool(val)
		}
	}

	if len(conf.AllowOrigins) == 0 {
		if val := os.Getenv("CORS_ALLOW_ORIGINS"); val != "" {
			conf.AllowOrigins = strings.Split(val, ",")
		}
	}

	allowHeaders := []string{"Authorization", "Content-Type", "X-Requested-With"}
	if len(conf.AllowHeaders) == 0 {
		if val := os.Getenv("CORS_ALLOW_HEADERS"); val != "" {
			allowHeaders = append(allowHeaders, strings.Split(val, ",")...)
		}
	}
	conf.AllowHeaders = allowHeaders

	if !conf.AllowCredentials {
		if val := os.Getenv("CORS_ALLOW_CREDENTIALS"); val != "" {
			conf.AllowCredentials, _ = strconv.ParseBool(val)
		} else {
			conf.AllowCredentials = true
		}
	}
}

func (conf *CorsConfig) GetConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	if conf.AllowAllOrigins {
		corsConfig.AllowAllOrigins = true
	} else {
		if len(conf.AllowOrigins) == 0 {
			corsConfig.AllowOrigins = []string{
				"http://127.0.0.1",
			}
		} else {
			corsConfig.AllowOrigins = conf.AllowOrigins
		}
	}
	if len(conf.AllowHeaders) > 0 {
		corsConfig.AddAllowHeaders(conf.AllowHeaders...)
	}

	corsConfig.AllowCredentials = conf.AllowCredentials
	corsConfig.AllowWildcard = true
	corsConfig.ExposeHeaders = []string{"Authorization"}
	return corsConfig
}
