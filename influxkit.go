// Package influxkit creates version-appropriate InfluxDB clients behind a
// single capability contract. Callers pass a config map (or a named
// connection profile) and get back an influx.Client for v1 or v2.
package influxkit

import (
	"context"
	"fmt"

	"influxkit/influx"
	"influxkit/influx/influxv1"
	"influxkit/influx/influxv2"
)

var v1Keys = []string{"host", "database", "username", "user", "password", "pwd"}
var v2Keys = []string{"url", "token", "org"}

// DetectVersion infers the backend version from the keys present in the
// config map. Ambiguous maps and maps with no recognized keys are rejected
// rather than guessed at.
func DetectVersion(config map[string]interface{}) (int, error) {
	hasAny := func(keys []string) bool {
		for _, k := range keys {
			if _, ok := config[k]; ok {
				return true
			}
		}
		return false
	}
	v1 := hasAny(v1Keys)
	v2 := hasAny(v2Keys)
	switch {
	case v1 && v2:
		return 0, &influx.ConfigError{Message: "config matches both v1 and v2 keys, pass the version explicitly"}
	case v1:
		return 1, nil
	case v2:
		return 2, nil
	default:
		return 0, &influx.ConfigError{Message: "cannot infer backend version from config keys"}
	}
}

// GetClient builds a client for the given version. version 0 triggers
// auto-detection from the config keys.
func GetClient(version int, config map[string]interface{}) (influx.Client, error) {
	if version == 0 {
		detected, err := DetectVersion(config)
		if err != nil {
			return nil, err
		}
		version = detected
	}
	switch version {
	case 1:
		return influxv1.NewClient(influx.ResolveV1Config(config))
	case 2:
		return influxv2.NewClient(influx.ResolveV2Config(config))
	default:
		return nil, &influx.ConfigError{Message: fmt.Sprintf("unsupported backend version %d", version)}
	}
}

// OpenProfile resolves a built-in connection profile and dials the backend.
func OpenProfile(ctx context.Context, name string) (influx.Client, error) {
	return OpenFrom(ctx, influx.BuiltinProfiles(), name)
}

// OpenFrom resolves name against the given registry and dials the backend.
// The registry is typically the built-ins merged with profiles loaded from
// configuration at startup.
func OpenFrom(ctx context.Context, registry influx.ProfileRegistry, name string) (influx.Client, error) {
	version, config, err := registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	client, err := GetClient(version, config)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// WithClient scopes a client to one function call: connect, run, close.
func WithClient(ctx context.Context, version int, config map[string]interface{}, fn func(influx.Client) error) error {
	client, err := GetClient(version, config)
	if err != nil {
		return err
	}
	if err := client.Connect(ctx); err != nil {
		client.Close()
		return err
	}
	defer client.Close()
	return fn(client)
}
