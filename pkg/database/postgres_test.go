package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oktel/attendance-report/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "bot",
		Password: "secret",
		Name:     "attendance",
		SSLMode:  "disable",
	})
	assert.Equal(t, "host=db port=5432 user=bot password=secret dbname=attendance sslmode=disable", dsn)
}
