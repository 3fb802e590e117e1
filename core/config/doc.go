// Package config loads the application configuration.
//
// Configuration comes from environment variables, optionally seeded from a
// .env file via godotenv. Defaults are declared as `default:` struct tags on
// the partial config structs, which live next to the packages they configure
// (database.Config, server.Config, storage.Config, logger.Config,
// indexing.Config). A reflection pass registers every key with Viper so
// AutomaticEnv picks them up, mapping SERVER_PORT to server.port and so on.
package config
