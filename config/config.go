package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	AdminToken        string `mapstructure:"ADMIN_TOKEN"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Record store. DB_DRIVER is one of mongo, postgres, sqlite.
	DBDriver     string `mapstructure:"DB_DRIVER"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisLeaseDB  int    `mapstructure:"REDIS_LEASE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Notifications. NOTIFY_MODE is one of queue, push, log.
	NotifyMode          string `mapstructure:"NOTIFY_MODE"`
	FirebaseCredentials string `mapstructure:"FIREBASE_CREDENTIALS"`

	// Meetings. MEETING_PROVIDER is one of zoom, jitsi.
	MeetingProvider  string        `mapstructure:"MEETING_PROVIDER"`
	MeetingTimeout   time.Duration `mapstructure:"MEETING_TIMEOUT"`
	ZoomAccountID    string        `mapstructure:"ZOOM_ACCOUNT_ID"`
	ZoomClientID     string        `mapstructure:"ZOOM_CLIENT_ID"`
	ZoomClientSecret string        `mapstructure:"ZOOM_CLIENT_SECRET"`
	ZoomAPIBaseURL   string        `mapstructure:"ZOOM_API_BASE_URL"`
	ZoomTokenURL     string        `mapstructure:"ZOOM_TOKEN_URL"`
	JitsiBaseURL     string        `mapstructure:"JITSI_BASE_URL"`

	// Lifecycle sweeps. LEASE_BACKEND is one of local, redis.
	Timezone          string        `mapstructure:"TIMEZONE"`
	SweepInterval     time.Duration `mapstructure:"SWEEP_INTERVAL"`
	ReminderLookahead time.Duration `mapstructure:"REMINDER_LOOKAHEAD"`
	CompletionGrace   time.Duration `mapstructure:"COMPLETION_GRACE"`
	LeaseBackend      string        `mapstructure:"LEASE_BACKEND"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ADMIN_TOKEN", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("DB_DRIVER", "mongo")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "mindhaven")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_LEASE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("NOTIFY_MODE", "log")
	v.SetDefault("FIREBASE_CREDENTIALS", "")
	v.SetDefault("MEETING_PROVIDER", "jitsi")
	v.SetDefault("MEETING_TIMEOUT", "10s")
	v.SetDefault("ZOOM_ACCOUNT_ID", "")
	v.SetDefault("ZOOM_CLIENT_ID", "")
	v.SetDefault("ZOOM_CLIENT_SECRET", "")
	v.SetDefault("ZOOM_API_BASE_URL", "https://api.zoom.us/v2")
	v.SetDefault("ZOOM_TOKEN_URL", "https://zoom.us/oauth/token")
	v.SetDefault("JITSI_BASE_URL", "https://meet.jit.si")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("SWEEP_INTERVAL", "1m")
	v.SetDefault("REMINDER_LOOKAHEAD", "1h")
	v.SetDefault("COMPLETION_GRACE", "15m")
	v.SetDefault("LEASE_BACKEND", "local")
}

// Load reads configuration from config.yaml (current or ./config directory) and the environment.
func Load(v *viper.Viper) (Config, error) {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig() {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

// Location resolves TIMEZONE, falling back to UTC.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Unknown TIMEZONE %q, using UTC", c.Timezone)
		return time.UTC
	}
	return loc
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
