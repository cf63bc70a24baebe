// Package config loads the process configuration.
//
// An optional .env file is applied with godotenv, then viper reads the
// environment. Every key is registered from the `default` tags of the
// section structs, so SERVER_PORT, DATABASE_DRIVER, STORAGE_ENDPOINT,
// LOG_LEVEL and SYNC_CONDUITS_FILE all work without a config file.
//
// Sections: server, storage, log, database and sync. LoadConfig validates
// the result and reports every invalid key at once.
//
// Conduit definitions live in their own YAML file (sync.conduits_file) and
// are loaded by feature/conduit.
package config
