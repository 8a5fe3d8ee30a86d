package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the gitdesk configuration file.
type Config struct {
	DataDir  string        `toml:"data_dir"`
	CloneDir string        `toml:"clone_dir"`
	Changes  ChangesConfig `toml:"changes"`
	History  HistoryConfig `toml:"history"`
	Log      LogConfig     `toml:"log"`
	SSH      SSHConfig     `toml:"ssh"`
	Signing  SigningConfig `toml:"signing"`
	Server   ServerConfig  `toml:"server"`
}

type ChangesConfig struct {
	SelectNewFiles bool `toml:"select_new_files"`
}

type HistoryConfig struct {
	PageSize int `toml:"page_size"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type SSHConfig struct {
	KnownHosts            string `toml:"known_hosts"`
	InsecureIgnoreHostKey bool   `toml:"insecure_ignore_host_key"`
}

type SigningConfig struct {
	// Keyring is an armored OpenPGP secret keyring used to sign commits.
	Keyring string `toml:"keyring"`
}

type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	TokenHash string `toml:"token_hash"`
}

const (
	globalConfigPath = ".config/gitdesk/config.toml"
	defaultDataDir   = ".local/share/gitdesk"

	DefaultPageSize = 50
	DefaultPort     = 7420
)

// Path returns the config file location, honoring GITDESK_CONFIG.
func Path() (string, error) {
	if envPath := os.Getenv("GITDESK_CONFIG"); envPath != "" {
		return envPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}

	return filepath.Join(home, globalConfigPath), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir:  filepath.Join(home, defaultDataDir),
		CloneDir: home,
		Changes:  ChangesConfig{SelectNewFiles: true},
		History:  HistoryConfig{PageSize: DefaultPageSize},
		Log:      LogConfig{Level: "info", Format: "text"},
		SSH:      SSHConfig{KnownHosts: filepath.Join(home, ".ssh", "known_hosts")},
		Server:   ServerConfig{Host: "127.0.0.1", Port: DefaultPort},
	}
}

// Load reads the config file. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("access config: %w", err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.History.PageSize <= 0 {
		cfg.History.PageSize = DefaultPageSize
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}

	return cfg, nil
}

// Save writes the config to the default location.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path with owner-only permissions.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := f.Chmod(0600); err != nil {
		return fmt.Errorf("set config permissions: %w", err)
	}

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return nil
}

// DatabasePath is the location of the SQLite database inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "gitdesk.db")
}

// ServerAddr is the listen address of the local bridge.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
