package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"influxkit/influx"
	"influxkit/infrastructure/log"
	"influxkit/infrastructure/web"
)

type ServerConfig struct {
	Cors       web.CorsConfig
	Debug      bool
	Port       int
	EnableGzip bool
	LogLevel   string
	Profiles   string

	// Registry is the built-in connection profiles merged with the
	// profiles loaded from the Profiles file. It is composed once here
	// and handed to the controllers, never mutated afterwards.
	Registry influx.ProfileRegistry `toml:"-"`
}

var Conf *ServerConfig

var configPath = "./config/influxkit.toml"

const configTemplate = `# influxkit-server configuration
Debug = false
Port = 9696
EnableGzip = true
LogLevel = "info"
# Optional profile file merged into the built-in connection profiles.
# Profiles = "./config/profiles.toml"

[Cors]
AllowAllOrigins = true
`

func loadConfig() {
	cp := flag.String("config", "", "default "+configPath)
	flag.Parse()
	if *cp != "" {
		configPath = *cp
	}
	if _, err := os.Stat(configPath); err != nil {
		if err := writeTemplate(configPath); err != nil {
			fmt.Fprintln(os.Stderr, "cannot write config template:", err)
			os.Exit(1)
		}
		fmt.Printf("wrote config template %s, edit it and restart\n", configPath)
		os.Exit(1)
	}
	var conf ServerConfig
	if _, err := toml.DecodeFile(configPath, &conf); err != nil {
		fmt.Fprintln(os.Stderr, "cannot read config:", err)
		os.Exit(1)
	}
	conf.Cors.Init()
	if conf.Port == 0 {
		conf.Port = 9696
	}
	if conf.LogLevel == "" {
		conf.LogLevel = "info"
	}
	if err := log.SetLevel(conf.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "invalid log level:", conf.LogLevel)
		os.Exit(1)
	}
	conf.Registry = influx.BuiltinProfiles()
	if conf.Profiles != "" {
		extra, err := influx.LoadProfiles(conf.Profiles)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot load profiles:", err)
			os.Exit(1)
		}
		conf.Registry = conf.Registry.Merge(extra)
	}
	Conf = &conf
}

// writeTemplate drops a starter config at path so a first run produces
// something editable instead of a missing-file error.
func writeTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(configTemplate), 0o644)
}
