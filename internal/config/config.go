package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const insecureJWTSecret = "change-me-in-production"

// Config represents the gateway configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Auth     AuthConfig     `yaml:"auth" json:"auth"`
	Security SecurityConfig `yaml:"security" json:"security"`
	RCON     RCONConfig     `yaml:"rcon" json:"rcon"`
	Services ServicesConfig `yaml:"services" json:"services"`
	Policy   PolicyConfig   `yaml:"policy" json:"policy"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string    `yaml:"host" json:"host" env:"SERVER_HOST"`
	Port int       `yaml:"port" json:"port" env:"SERVER_PORT"`
	TLS  TLSConfig `yaml:"tls" json:"tls"`
}

// TLSConfig contains TLS/HTTPS settings
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled" env:"TLS_ENABLED"`
	CertFile string `yaml:"cert_file" json:"cert_file" env:"TLS_CERT_FILE"`
	KeyFile  string `yaml:"key_file" json:"key_file" env:"TLS_KEY_FILE"`
}

// AuthConfig contains bearer token validation settings
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" json:"-" env:"JWT_SECRET"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" json:"cors"`
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" json:"enabled" env:"RATE_LIMIT_ENABLED"`
	RequestsPerMinute int  `yaml:"requests_per_minute" json:"requests_per_minute" env:"RATE_LIMIT_RPM"`
}

// CORSConfig contains CORS settings
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
}

// RCONConfig points at the game server's remote console
type RCONConfig struct {
	Host     string `yaml:"host" json:"host" env:"RCON_HOST"`
	Port     int    `yaml:"port" json:"port" env:"RCON_PORT"`
	Password string `yaml:"password" json:"-" env:"RCON_PASSWORD"`
}

// Address returns host:port for dialing.
func (r RCONConfig) Address() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// ServicesConfig maps the managed services onto systemd units
type ServicesConfig struct {
	Backend     string `yaml:"backend" json:"backend" env:"SERVICE_BACKEND"` // "systemctl" or "dbus"
	UseSudo     bool   `yaml:"use_sudo" json:"use_sudo" env:"SERVICE_USE_SUDO"`
	GameServer  string `yaml:"game_server" json:"game_server" env:"MINECRAFT_SERVICE"`
	TunnelAgent string `yaml:"tunnel_agent" json:"tunnel_agent" env:"PLAYIT_SERVICE"`
}

// PolicyConfig locates the command policy catalogue. An empty path selects
// the catalogue compiled into the binary.
type PolicyConfig struct {
	Path string `yaml:"path" json:"path" env:"POLICY_PATH"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" json:"format" env:"LOG_FORMAT"`
	File       string `yaml:"file" json:"file" env:"LOG_FILE"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
}

// Default returns the built-in configuration before any file or
// environment overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Auth: AuthConfig{
			JWTSecret: insecureJWTSecret,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
			},
			CORS: CORSConfig{
				AllowedOrigins: []string{"http://localhost:5173"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			},
		},
		RCON: RCONConfig{
			Host: "127.0.0.1",
			Port: 25575,
		},
		Services: ServicesConfig{
			Backend:     "systemctl",
			UseSudo:     true,
			GameServer:  "minecraft.service",
			TunnelAgent: "playit.service",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
		},
	}
}

// Load reads the configuration and validates it for running the gateway.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Read loads configuration from the .env file, the YAML config file and
// environment variables, in that order of increasing precedence. It does not
// validate; the CLI checks only the sections a subcommand touches.
func Read() (*Config, error) {
	if err := loadDotEnv(getEnv("DOTENV_PATH", ".env")); err != nil {
		return nil, err
	}

	cfg := Default()

	configPath := GetConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.normalize(configPath)

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == insecureJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set to a secure value")
	}

	// Check for unexpanded environment variables
	if strings.HasPrefix(c.Auth.JWTSecret, "${") {
		return fmt.Errorf("JWT_SECRET contains unexpanded environment variable")
	}

	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("TLS is enabled but cert_file or key_file is missing")
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	if err := c.RCON.Validate(); err != nil {
		return err
	}

	return c.Services.Validate()
}

// Validate checks the console endpoint settings.
func (r RCONConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("rcon host must be set")
	}
	if r.Port < 1 || r.Port > 65535 {
		return fmt.Errorf("rcon port %d out of range", r.Port)
	}
	if r.Password == "" {
		return fmt.Errorf("RCON_PASSWORD must be set")
	}
	return nil
}

// Validate checks the service backend and unit names.
func (s ServicesConfig) Validate() error {
	switch s.Backend {
	case "systemctl", "dbus":
	default:
		return fmt.Errorf("unknown service backend %q (want systemctl or dbus)", s.Backend)
	}

	if s.GameServer == "" || s.TunnelAgent == "" {
		return fmt.Errorf("both game_server and tunnel_agent units must be set")
	}
	return nil
}

// normalize trims values and resolves relative paths against the config
// file's directory.
func (c *Config) normalize(configPath string) {
	c.Services.Backend = strings.ToLower(strings.TrimSpace(c.Services.Backend))
	c.Services.GameServer = strings.TrimSpace(c.Services.GameServer)
	c.Services.TunnelAgent = strings.TrimSpace(c.Services.TunnelAgent)
	c.RCON.Host = strings.TrimSpace(c.RCON.Host)

	baseDir := filepath.Dir(configPath)
	if !filepath.IsAbs(baseDir) {
		if absBase, err := filepath.Abs(baseDir); err == nil {
			baseDir = absBase
		}
	}

	rootDir := baseDir
	if filepath.Base(baseDir) == "configs" {
		rootDir = filepath.Dir(baseDir)
	}

	resolvePath := func(value string) string {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return ""
		}
		if filepath.IsAbs(trimmed) {
			return filepath.Clean(trimmed)
		}
		return filepath.Clean(filepath.Join(rootDir, trimmed))
	}

	c.Policy.Path = resolvePath(c.Policy.Path)
	c.Logging.File = resolvePath(c.Logging.File)
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func resolveConfigPath() string {
	candidates := []string{"../configs/config.yaml", "./configs/config.yaml"}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "./configs/config.yaml"
}

// GetConfigPath returns the resolved config path
func GetConfigPath() string {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = resolveConfigPath()
	}
	return configPath
}
