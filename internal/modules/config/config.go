package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	jwtSecretENV      = "JWT_SECRET"
	passwordENV       = "BOT_PASSWORD"
)

// Config ...
type Config struct {
	Service struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		AdminPort int    `yaml:"admin_port"`
	} `yaml:"service"`

	Bridge struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		ClientID int    `yaml:"client_id"`
	} `yaml:"bridge"`

	// Единственный торгуемый инструмент
	Contract struct {
		Symbol   string `yaml:"symbol"`
		SecType  string `yaml:"sec_type"`
		Exchange string `yaml:"exchange"`
		Currency string `yaml:"currency"`
	} `yaml:"contract"`

	Auth struct {
		Secret   string        `yaml:"secret"`
		TokenTTL time.Duration `yaml:"-"` // JWT_TTL
		Username string        `yaml:"username"`
		Password string        `yaml:"password"`
	} `yaml:"auth"`

	CORSOrigins []string `yaml:"cors_origins"`
	StaticDir   string   `yaml:"static_dir"`

	// Агрегация и опросы. Длительности задаются только через env,
	// yaml.v2 не умеет разбирать строки вида "100ms" в time.Duration.
	CandleIntervalSec int64         `yaml:"candle_interval_sec"`
	PollInterval      time.Duration `yaml:"-"` // POLL_INTERVAL
	PollAttempts      int           `yaml:"poll_attempts"`
	WSIdleTimeout     time.Duration `yaml:"-"` // WS_IDLE_TIMEOUT

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	// дефолты в коде
	config := Config{
		CandleIntervalSec: 60,
		PollAttempts:      50,
		PollInterval:      durationFromEnv("POLL_INTERVAL", "100ms"),
		WSIdleTimeout:     durationFromEnv("WS_IDLE_TIMEOUT", "30s"),
	}
	config.Service.Host = "0.0.0.0"
	config.Service.Port = 8000
	config.Service.AdminPort = 8080
	config.Bridge.Host = "127.0.0.1"
	config.Bridge.Port = 4002
	config.Bridge.ClientID = 1
	config.Contract.Symbol = "MBT"
	config.Contract.SecType = "FUT"
	config.Contract.Exchange = "CME"
	config.Contract.Currency = "USD"
	config.Auth.Secret = "dev-secret-change-me"
	config.Auth.TokenTTL = durationFromEnv("JWT_TTL", "24h")
	config.Auth.Username = "admin"
	config.CORSOrigins = splitCSV("http://localhost:5173,http://127.0.0.1:5173")
	config.StaticDir = "static"

	// yaml поверх дефолтов
	if configFileName := os.Getenv(configFilePathENV); configFileName != "" {
		file, err := os.Open("configs/" + configFileName)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = file.Close()
		}()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return nil, err
		}
	}

	// env поверх yaml: окружение выигрывает всегда, не только для секретов
	config.Service.Host = getenvDefault("SERVICE_HOST", config.Service.Host)
	config.Service.Port = intFromEnv("SERVICE_PORT", config.Service.Port)
	config.Service.AdminPort = intFromEnv("ADMIN_PORT", config.Service.AdminPort)
	config.Bridge.Host = getenvDefault("IBKR_HOST", config.Bridge.Host)
	config.Bridge.Port = intFromEnv("IBKR_PORT", config.Bridge.Port)
	config.Bridge.ClientID = intFromEnv("IBKR_CLIENT_ID", config.Bridge.ClientID)
	config.PollAttempts = intFromEnv("POLL_ATTEMPTS", config.PollAttempts)
	config.Auth.Secret = getenvDefault(jwtSecretENV, config.Auth.Secret)
	config.Auth.Username = getenvDefault("BOT_USERNAME", config.Auth.Username)
	config.Auth.Password = getenvDefault(passwordENV, config.Auth.Password)
	config.StaticDir = getenvDefault("STATIC_DIR", config.StaticDir)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		config.CORSOrigins = splitCSV(v)
	}
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}

	return &config, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
