package config

import (
	"errors"
	"flag"
	"os"
)

type Config struct {
	Addr       string
	DSN        string
	JWTSecret  string
	RedisAddr  string // empty disables cross-instance fan-out
	KafkaAddrs string
	KafkaTopic string
	LogLevel   string
}

func GetEnv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// Load parses command line flags and the environment.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	addr := fs.String("addr", GetEnv("APP_ADDR", ":8080"), "http service address")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:       *addr,
		DSN:        os.Getenv("DB_DSN"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		KafkaAddrs: os.Getenv("KAFKA_BROKERS"),
		KafkaTopic: GetEnv("KAFKA_TOPIC", "skillnest.events"),
		LogLevel:   GetEnv("LOG_LEVEL", "info"),
	}

	// REDIS_ADDR set to "" explicitly turns Redis off; unset falls back to localhost.
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		cfg.RedisAddr = v
	} else {
		cfg.RedisAddr = "localhost:6379"
	}

	if cfg.DSN == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return cfg, nil
}
