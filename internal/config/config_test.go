package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configFileEnvName, "")
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "storefront.db", cfg.DBDSN)
	assert.Equal(t, "15000", cfg.ShippingFee.String())
	assert.Equal(t, "200000", cfg.FreeShippingThreshold.String())
	assert.True(t, cfg.PaymentLimit.IsZero())
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 1024, cfg.SessionCacheSize)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(configFileEnvName, "")
	t.Setenv("PORT", "9090")
	t.Setenv("SHIPPING_FEE", "20000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "20000", cfg.ShippingFee.String())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoadConfigFileFlag(t *testing.T) {
	t.Setenv(configFileEnvName, "")
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7070\"\nfree_shipping_threshold: \"150000\"\n"), 0o600))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "150000", cfg.FreeShippingThreshold.String())
}

func TestLoadRejectsNegativeFee(t *testing.T) {
	t.Setenv(configFileEnvName, "")
	t.Setenv("SHIPPING_FEE", "-1")
	_, err := Load(nil)
	assert.Error(t, err)
}
