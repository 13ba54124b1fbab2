package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DashboardConfig configures the page server that sits in front of the
// dashboard and runs the route access gate.
type DashboardConfig struct {
	Host                   string       `mapstructure:"host"`
	Port                   int          `mapstructure:"port"`
	APIBaseURL             string       `mapstructure:"api_base_url"`
	ValidateTimeoutSeconds int          `mapstructure:"validate_timeout_seconds"`
	Routes                 RoutesConfig `mapstructure:"routes"`
}

func (d *DashboardConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

func (d *DashboardConfig) ValidateTimeout() time.Duration {
	if d.ValidateTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(d.ValidateTimeoutSeconds) * time.Second
}

// RoutesConfig holds the static route tables. RoleRestricted is a list
// rather than a map because viper lowercases map keys and route paths are
// case-sensitive.
type RoutesConfig struct {
	Public         []string          `mapstructure:"public"`
	Authenticated  []string          `mapstructure:"authenticated"`
	RoleRestricted []RestrictedRoute `mapstructure:"role_restricted"`
}

// RestrictedRoute limits Path and everything below it to Roles. An empty
// Roles list means any authenticated role.
type RestrictedRoute struct {
	Path  string   `mapstructure:"path"`
	Roles []string `mapstructure:"roles"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type PasswordConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
	RefreshExpDays   int    `mapstructure:"refresh_exp_days"`
}

type CookieConfig struct {
	AccessTokenName  string `mapstructure:"access_token_name"`
	RefreshTokenName string `mapstructure:"refresh_token_name"`
	Domain           string `mapstructure:"domain"`
	Path             string `mapstructure:"path"`
	Secure           bool   `mapstructure:"secure"`
	SameSite         string `mapstructure:"same_site"`
}

type BootstrapAdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type LoginRateLimitConfig struct {
	Limit         int `mapstructure:"limit"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

type AuthConfig struct {
	Password       PasswordConfig       `mapstructure:"password"`
	JWT            JWTConfig            `mapstructure:"jwt"`
	Cookie         CookieConfig         `mapstructure:"cookie"`
	BootstrapAdmin BootstrapAdminConfig `mapstructure:"bootstrap_admin"`
	LoginRateLimit LoginRateLimitConfig `mapstructure:"login_rate_limit"`
	CasbinModel    string               `mapstructure:"casbin_model"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
