package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load(logrus.New())
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "storefront-api", cfg.ServiceName)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 8, cfg.WorkerCount)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WORKER_COUNT", "3")

	cfg := Load(logrus.New())
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.WorkerCount)
}
