package config

import (
	"net"
	"strconv"
	"time"
)

// Storage drivers.
const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// StorageConfig selects where the board is persisted.
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	RedisURL    string `yaml:"redis_url,omitempty"`
	RedisPrefix string `yaml:"redis_prefix,omitempty"`
}

// ServerConfig configures the local web board.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// RateLimit is the number of mutations a client may make per minute.
	RateLimit int `yaml:"rate_limit"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// UIConfig tunes both surfaces.
type UIConfig struct {
	DeleteDelay time.Duration `yaml:"delete_delay"`
}

// LogConfig sets the logging level.
type LogConfig struct {
	Level string `yaml:"level"`
	// File receives logs while the terminal board owns the screen.
	File string `yaml:"file,omitempty"`
}

// Config represents the .taskboard/config.yaml file.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	UI      UIConfig      `yaml:"ui"`
	Log     LogConfig     `yaml:"log"`
}
