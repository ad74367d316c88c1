// Package config loads service configuration with Viper.
//
// Values come from config.yml (searched under ./cmd/<service>/, ./config/ and
// the working directory), then from the environment, with .env files loaded
// through godotenv first. Environment variables map onto nested keys by
// splitting on underscores, so PIPELINE_NORMALIZE_METHOD overrides
// pipeline.normalize_method.
//
// # Usage
//
//	var cfg app.Config
//	err := config.LoadConfig("cemint", &cfg, config.WithConfigFile(path))
package config
