package config

import "time"

// Default returns the built-in configuration. Every field the loader can
// override has a sane default so the service starts with nothing but a
// database address.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Mode:            "release",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "atlas",
			Password:        "",
			Name:            "studyatlas",
			SSLMode:         "disable",
			MaxConns:        10,
			MinConns:        2,
			ConnMaxLifetime: 30 * time.Minute,
			QueryTimeout:    20 * time.Second,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
			TTL:     5 * time.Minute,
			Prefix:  "studyatlas",
		},
		Query: QueryConfig{
			DefaultLimit: 50,
			MaxLimit:     500,
			TargetSRID:   4326,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Debug: DebugConfig{
			CorpusEndpoint: false,
		},
	}
}
