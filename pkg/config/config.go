// Package config loads the gateway configuration from flags and environment
// variables.
//
// A flag that is set on the command line wins over the environment, which
// wins over the built-in default.
package config

import (
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config contains all of the configuration for running the gateway.
type Config struct {
	RedisHost     string
	RedisPort     int
	RedisUser     string
	RedisPassword string
	RedisDB       int

	ListenAddress  string
	CORSOrigins    []string
	JaegerEndpoint string
}

// RedisAddress returns the host:port address of Redis.
func (c Config) RedisAddress() string {
	return net.JoinHostPort(c.RedisHost, strconv.Itoa(c.RedisPort))
}

type setting struct {
	key   string
	env   string
	def   interface{}
	usage string
}

var settings = []setting{
	{"redis-host", "REDIS_HOST", "host.docker.internal", "Redis host"},
	{"redis-port", "REDIS_PORT", 6379, "Redis port"},
	{"redis-user", "REDIS_USER", "default", "Redis ACL user name"},
	{"redis-password", "REDIS_PASSWORD", "", "Redis password"},
	{"redis-db", "REDIS_DB", 0, "Redis logical database index"},
	{"listen", "LISTEN_ADDRESS", "0.0.0.0:5000", "Address the HTTP server listens on"},
	{"cors-origins", "CORS_ORIGINS", "*", "Comma separated origins allowed to call the API from a browser; empty disables CORS"},
	{"jaeger-endpoint", "JAEGER_ENDPOINT", "", "Jaeger collector endpoint; empty disables trace export"},
}

// BindFlags registers a flag for every setting on fs and binds the flags and
// their environment variables to v.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	for _, s := range settings {
		switch def := s.def.(type) {
		case string:
			fs.String(s.key, def, s.usage)
		case int:
			fs.Int(s.key, def, s.usage)
		default:
			return errors.Errorf("unsupported default for %s: %T", s.key, def)
		}
		v.SetDefault(s.key, s.def)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return errors.Wrapf(err, "unable to bind %s", s.env)
		}
		if err := v.BindPFlag(s.key, fs.Lookup(s.key)); err != nil {
			return errors.Wrapf(err, "unable to bind flag %s", s.key)
		}
	}
	return nil
}

// Load reads and validates the configuration bound in v.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		RedisHost:      v.GetString("redis-host"),
		RedisPort:      v.GetInt("redis-port"),
		RedisUser:      v.GetString("redis-user"),
		RedisPassword:  v.GetString("redis-password"),
		RedisDB:        v.GetInt("redis-db"),
		ListenAddress:  v.GetString("listen"),
		CORSOrigins:    splitList(v.GetString("cors-origins")),
		JaegerEndpoint: v.GetString("jaeger-endpoint"),
	}
	if c.RedisHost == "" {
		return Config{}, errors.New("missing Redis host")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return Config{}, errors.Errorf("invalid Redis port %d", c.RedisPort)
	}
	if c.RedisDB < 0 {
		return Config{}, errors.Errorf("invalid Redis database %d", c.RedisDB)
	}
	if c.ListenAddress == "" {
		return Config{}, errors.New("missing listen address")
	}
	return c, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
