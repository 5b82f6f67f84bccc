// Package config loads typed configuration structs from the environment.
//
// Structs declare their variables with github.com/caarlos0/env tags. A .env
// file in the working directory is read once through github.com/joho/godotenv
// before the first parse.
package config
