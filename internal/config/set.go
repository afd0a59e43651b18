package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type setter func(c *Config, v string) error

var setters = map[string]setter{
	"options.language": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Options.Language = n
		return nil
	},
	"options.minimize_when_record": boolSetter(func(c *Config) *bool { return &c.Options.MinimizeWhenRecord }),
	"options.minimize_when_play":   boolSetter(func(c *Config) *bool { return &c.Options.MinimizeWhenPlay }),
	"options.stop_recording_key":   stringSetter(func(c *Config) *string { return &c.Options.StopRecordingKey }),
	"options.stop_playing_key":     stringSetter(func(c *Config) *string { return &c.Options.StopPlayingKey }),
	"storage.backend":              stringSetter(func(c *Config) *string { return &c.Storage.Backend }),
	"storage.dir":                  stringSetter(func(c *Config) *string { return &c.Storage.Dir }),
	"storage.redis.host":           stringSetter(func(c *Config) *string { return &c.Storage.Redis.Host }),
	"storage.redis.port":           intSetter(func(c *Config) *int { return &c.Storage.Redis.Port }),
	"storage.redis.password":       stringSetter(func(c *Config) *string { return &c.Storage.Redis.Password }),
	"storage.redis.db":             intSetter(func(c *Config) *int { return &c.Storage.Redis.DB }),
	"storage.redis.cluster":        boolSetter(func(c *Config) *bool { return &c.Storage.Redis.Cluster }),
	"storage.redis.cluster_nodes": func(c *Config, v string) error {
		var nodes []string
		for _, n := range strings.Split(v, ",") {
			if n = strings.TrimSpace(n); n != "" {
				nodes = append(nodes, n)
			}
		}
		c.Storage.Redis.ClusterNodes = nodes
		return nil
	},
	"storage.redis.pool_size":   intSetter(func(c *Config) *int { return &c.Storage.Redis.PoolSize }),
	"storage.redis.max_retries": intSetter(func(c *Config) *int { return &c.Storage.Redis.MaxRetries }),
	"storage.redis.dial_timeout": func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.Storage.Redis.DialTimeout = d
		return nil
	},
	"server.addr": stringSetter(func(c *Config) *string { return &c.Server.Addr }),
	"log.level":   stringSetter(func(c *Config) *string { return &c.Log.Level }),
	"log.format":  stringSetter(func(c *Config) *string { return &c.Log.Format }),
}

// Keys lists the dotted keys Set accepts, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns value to a dotted key such as "options.stop_playing_key".
// Option keys may also be given without the "options." prefix. Booleans
// accept 0 and 1. The result is validated and c is left unchanged on error.
func (c *Config) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	set, ok := setters[key]
	if !ok {
		set, ok = setters["options."+key]
	}
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}

	next := *c
	next.Storage.Redis.ClusterNodes = append([]string(nil), c.Storage.Redis.ClusterNodes...)
	if err := set(&next, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func stringSetter(field func(*Config) *string) setter {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func intSetter(field func(*Config) *int) setter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func boolSetter(field func(*Config) *bool) setter {
	return func(c *Config, v string) error {
		var b flexBool
		if err := b.parse(v); err != nil {
			return err
		}
		*field(c) = b.value
		return nil
	}
}
