package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Well-known values shared by both peers.
const (
	DefaultControlPort      = 7005
	DefaultServerDataPort   = 7006
	DefaultClientDataPort   = 8888
	DefaultFilesDir         = "./files"
	DefaultChunkSize        = 8192
	DefaultLengthFieldWidth = 3
	DefaultMaxSessions      = 1
)

// Config holds the entire application configuration, optionally loaded from a YAML file.
type Config struct {
	// ControlPort is the server port the client's control connection dials.
	ControlPort int `yaml:"controlPort"`
	// ServerDataPort is the local source port the server dials data channels from.
	// Zero lets the kernel pick one.
	ServerDataPort int `yaml:"serverDataPort"`
	// ClientDataPort is the port the client listens on for each data channel.
	ClientDataPort int `yaml:"clientDataPort"`

	FilesDir         string `yaml:"filesDir"`
	ChunkSize        int    `yaml:"chunkSize"`
	LengthFieldWidth int    `yaml:"lengthFieldWidth"`
	MaxSessions      int    `yaml:"maxSessions"`
}

// Default returns the configuration both peers use when no file is given.
func Default() *Config {
	return &Config{
		ControlPort:      DefaultControlPort,
		ServerDataPort:   DefaultServerDataPort,
		ClientDataPort:   DefaultClientDataPort,
		FilesDir:         DefaultFilesDir,
		ChunkSize:        DefaultChunkSize,
		LengthFieldWidth: DefaultLengthFieldWidth,
		MaxSessions:      DefaultMaxSessions,
	}
}

// ControlListenAddress is the address the server binds its control listener to.
func (c *Config) ControlListenAddress() string {
	return ":" + strconv.Itoa(c.ControlPort)
}

// ControlAddress is the address a client dials to reach the server at host.
func (c *Config) ControlAddress(host string) string {
	return net.JoinHostPort(host, strconv.Itoa(c.ControlPort))
}

// ClientDataListenAddress is the address the client binds before each request.
func (c *Config) ClientDataListenAddress() string {
	return ":" + strconv.Itoa(c.ClientDataPort)
}

// validate performs comprehensive validation of the configuration.
func (c *Config) validate() error {
	if c.ControlPort <= 0 || c.ControlPort > 65535 {
		return fmt.Errorf("controlPort must be between 1 and 65535, got %d", c.ControlPort)
	}
	if c.ClientDataPort <= 0 || c.ClientDataPort > 65535 {
		return fmt.Errorf("clientDataPort must be between 1 and 65535, got %d", c.ClientDataPort)
	}
	if c.ServerDataPort < 0 || c.ServerDataPort > 65535 {
		return fmt.Errorf("serverDataPort must be between 0 and 65535, got %d", c.ServerDataPort)
	}
	if c.FilesDir == "" {
		return fmt.Errorf("filesDir must be set")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunkSize must be positive")
	}
	// 18 digits is the widest field whose maximum still fits in an int64.
	if c.LengthFieldWidth < 3 || c.LengthFieldWidth > 18 {
		return fmt.Errorf("lengthFieldWidth must be between 3 and 18, got %d", c.LengthFieldWidth)
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("maxSessions must be at least 1")
	}
	return nil
}

// Validate checks a configuration built in code rather than loaded from disk.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// LoadConfig reads the configuration from the given file path, unmarshals it
// over the defaults, and performs validation.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file at %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml from %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
