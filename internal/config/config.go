package config

import (
	"time"

	"github.com/ridepool/service-trip/internal/common/config"
)

// MatchingConfig holds tuning for trip search and group proximity.
type MatchingConfig struct {
	NearThresholdMeters float64
	SearchLimit         int
	NearbyCacheSize     int
	NearbyCacheTTL      time.Duration
}

// ServiceConfig holds all configuration for the trip service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    config.DatabaseConfig
	JWTConfig   config.JWTConfig
	KafkaConfig config.KafkaConfig
	Matching    MatchingConfig
}

// Load reads configuration from TRIP_* environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("TRIP")
	if err != nil {
		return nil, err
	}

	v.SetDefault("DB_NAME", "trips")
	v.SetDefault("NEAR_THRESHOLD_METERS", 100.0)
	v.SetDefault("SEARCH_LIMIT", 5)
	v.SetDefault("NEARBY_CACHE_SIZE", 1024)
	v.SetDefault("NEARBY_CACHE_TTL", 10*time.Minute)

	jwt, err := config.LoadJWTConfig(v)
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{
		Port:        config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:      config.GetAppEnv(v),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   jwt,
		KafkaConfig: config.LoadKafkaConfig(v),
		Matching: MatchingConfig{
			NearThresholdMeters: v.GetFloat64("NEAR_THRESHOLD_METERS"),
			SearchLimit:         v.GetInt("SEARCH_LIMIT"),
			NearbyCacheSize:     v.GetInt("NEARBY_CACHE_SIZE"),
			NearbyCacheTTL:      v.GetDuration("NEARBY_CACHE_TTL"),
		},
	}, nil
}
