package influx

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// Profile is a partial connection target without credentials. Resolution
// merges credentials from the environment and always forces the write gate
// closed, so profiles are read-only by construction.
type Profile struct {
	Version   int    `toml:"version"`
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	Database  string `toml:"database"`
	SSL       bool   `toml:"ssl"`
	VerifySSL bool   `toml:"verify_ssl"`
	URL       string `toml:"url"`
	Bucket    string `toml:"bucket"`
}

// ProfileRegistry maps profile names to partial configs. Registries are
// treated as immutable lookup tables.
type ProfileRegistry map[string]Profile

var connectionProfiles = ProfileRegistry{
	"v1_flimatec": {
		Version:  1,
		Host:     "influxdbv1.mdb.ige-hslu.io",
		Port:     8086,
		Database: "flimatec-langnau-am-albis_v2",
		SSL:      true,
	},
	"v1_meteo": {
		Version:  1,
		Host:     "influxdbv1.mdb.ige-hslu.io",
		Port:     8086,
		Database: "meteoSwiss",
		SSL:      true,
	},
	"v1_wattsup": {
		Version:  1,
		Host:     "influxdbv1.mdb.ige-hslu.io",
		Port:     8086,
		Database: "wattsup",
		SSL:      true,
	},
	"v2_lcm_kwh_legionellen": {
		Version: 2,
		URL:     "https://influxdbv2.mdb.ige-hslu.io",
		Bucket:  "lcm-kwh-legionellen",
	},
	"v2_meteo": {
		Version: 2,
		URL:     "https://influxdbv2.mdb.ige-hslu.io",
		Bucket:  "meteoSwiss",
	},
}

// ListProfileNames returns the built-in profile names, sorted.
func ListProfileNames() []string {
	return connectionProfiles.Names()
}

// ResolveProfile resolves a built-in profile, see ProfileRegistry.Resolve.
func ResolveProfile(name string) (int, map[string]interface{}, error) {
	return connectionProfiles.Resolve(name)
}

// LoadProfiles reads an extra profile registry from a TOML file keyed by
// profile name.
func LoadProfiles(path string) (ProfileRegistry, error) {
	registry := ProfileRegistry{}
	if _, err := toml.DecodeFile(path, &registry); err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("cannot load profiles from %s: %s", path, err)}
	}
	for name, p := range registry {
		if p.Version != 1 && p.Version != 2 {
			return nil, &ConfigError{Message: fmt.Sprintf("profile %q has unsupported version %d", name, p.Version)}
		}
	}
	return registry, nil
}

// BuiltinProfiles returns a copy of the built-in registry. Callers combine
// it with their own profiles via Merge; the built-ins themselves are never
// modified.
func BuiltinProfiles() ProfileRegistry {
	out := make(ProfileRegistry, len(connectionProfiles))
	for name, p := range connectionProfiles {
		out[name] = p
	}
	return out
}

// Merge returns a new registry combining r with extra, extra winning on
// name clashes. Neither input is modified.
func (r ProfileRegistry) Merge(extra ProfileRegistry) ProfileRegistry {
	out := make(ProfileRegistry, len(r)+len(extra))
	for name, p := range r {
		out[name] = p
	}
	for name, p := range extra {
		out[name] = p
	}
	return out
}

func (r ProfileRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve merges environment credentials into a named profile and returns
// the version plus a config mapping ready for the client factory. The
// allow_write gate is forced closed regardless of the environment.
func (r ProfileRegistry) Resolve(name string) (int, map[string]interface{}, error) {
	loadEnv()
	profile, ok := r[name]
	if !ok {
		return 0, nil, &ConfigError{Message: fmt.Sprintf("unknown profile %q", name)}
	}
	config := map[string]interface{}{}
	switch profile.Version {
	case 1:
		config["host"] = profile.Host
		config["port"] = profile.Port
		config["database"] = profile.Database
		config["ssl"] = profile.SSL
		config["verify_ssl"] = profile.VerifySSL
		config["username"] = getenv("INFLUXDB_V1_USER", "INFLUXDB_USER")
		config["password"] = getenv("INFLUXDB_V1_PASSWORD", "INFLUXDB_PWD")
	case 2:
		token := getenv("INFLUXDB_V2_TOKEN", "INFLUXDB_TOKEN")
		org := getenv("INFLUXDB_V2_ORG", "INFLUXDB_ORG")
		if token == "" || org == "" {
			return 0, nil, &ConfigError{
				Message: "profile requires INFLUXDB_V2_TOKEN and INFLUXDB_V2_ORG (or INFLUXDB_TOKEN / INFLUXDB_ORG)",
			}
		}
		config["url"] = profile.URL
		config["bucket"] = profile.Bucket
		config["token"] = token
		config["org"] = org
	default:
		return 0, nil, &ConfigError{Message: fmt.Sprintf("profile %q has unsupported version %d", name, profile.Version)}
	}
	config["allow_write"] = false
	return profile.Version, config, nil
}
