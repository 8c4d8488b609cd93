/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package internal

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	FolderPath         string   `mapstructure:"folder-path"`
	EnableLogging      bool     `mapstructure:"enable-logging"`
	LogLevel           string   `mapstructure:"log-level"`
	DBDriver           string   `mapstructure:"db-driver"`
	DBName             string   `mapstructure:"db-name"`
	DBDSN              string   `mapstructure:"db-dsn"`
	HTTPServerPort     uint16   `mapstructure:"http-server-port"`
	SocketServerPort   uint16   `mapstructure:"socket-server-port"`
	HealthPort         uint16   `mapstructure:"health-port"`
	ReadTimeout        int64    `mapstructure:"read-timeout"`
	WriteTimeout       int64    `mapstructure:"write-timeout"`
	SecretKey          string   `mapstructure:"secret-key"`
	TokenKey           string   `mapstructure:"token-key"`
	ZMQPublishAddr     string   `mapstructure:"zmq-publish-addr"`
	RedisAddr          string   `mapstructure:"redis-addr"`
	RedisChannelPrefix string   `mapstructure:"redis-channel-prefix"`
	SeedUsers          []string `mapstructure:"seed-users"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func defaults(v *viper.Viper, folderPath string) {
	v.SetDefault("folder-path", folderPath)
	v.SetDefault("enable-logging", true)
	v.SetDefault("log-level", "info")
	v.SetDefault("db-driver", DriverSQLite)
	v.SetDefault("db-name", "dmcore.db")
	v.SetDefault("db-dsn", "")
	v.SetDefault("http-server-port", 8080)
	v.SetDefault("socket-server-port", 8081)
	v.SetDefault("health-port", 8082)
	v.SetDefault("read-timeout", 10)
	v.SetDefault("write-timeout", 10)
	v.SetDefault("secret-key", "")
	v.SetDefault("token-key", "")
	v.SetDefault("zmq-publish-addr", "")
	v.SetDefault("redis-addr", "")
	v.SetDefault("redis-channel-prefix", "dm:")
	v.SetDefault("seed-users", []string{})
}

// LoadConfig reads <folderPath>/.cfg (JSON). Every key can be overridden by DMCORE_<KEY>, dashes become underscores
func LoadConfig(folderPath string) (*Config, error) {
	v := viper.New()
	defaults(v, folderPath)

	v.SetConfigFile(filepath.Join(folderPath, ".cfg"))
	v.SetConfigType("json")
	v.SetEnvPrefix("DMCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the values LoadConfig cannot check by type alone
func (c *Config) Validate() error {
	ports := map[string]uint16{
		"http-server-port":   c.HTTPServerPort,
		"socket-server-port": c.SocketServerPort,
		"health-port":        c.HealthPort,
	}
	seen := make(map[uint16]string, len(ports))
	for name, port := range ports {
		if port < 1024 {
			return fmt.Errorf("%s %d is outside of [1024, 65535]", name, port)
		}
		if other, ok := seen[port]; ok {
			return fmt.Errorf("%s and %s share port %d", name, other, port)
		}
		seen[port] = name
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBName == "" {
			return fmt.Errorf("db-name is required with the %s driver", DriverSQLite)
		}
	case DriverPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("db-dsn is required with the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown db-driver %q", c.DBDriver)
	}

	if c.SecretKey == "" {
		return fmt.Errorf("secret-key is required")
	}
	if c.TokenKey == "" {
		return fmt.Errorf("token-key is required")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("read-timeout and write-timeout must be positive")
	}
	return nil
}

// DatabasePath is where the sqlite file lives
func (c *Config) DatabasePath() string {
	return filepath.Join(c.FolderPath, c.DBName)
}
