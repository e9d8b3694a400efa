package config

import "fmt"

// DbConfig describes the PostgreSQL connection.
type DbConfig struct {
	Host     string `env:"AUTHCORE_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"AUTHCORE_PG_PORT" env-default:"5432"`
	Database string `env:"AUTHCORE_PG_DATABASE" env-default:"authcore_db"`
	User     string `env:"AUTHCORE_PG_USER" env-default:"authcore"`
	Password string `env:"AUTHCORE_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"AUTHCORE_PG_SCHEMA" env-default:"public"`
}

// ToDatabaseURL assembles a pgx-compatible connection string.
func (d DbConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}
