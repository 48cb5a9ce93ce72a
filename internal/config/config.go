package config

import (
	"log"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "STOREFRONT_CONFIG"

type Config struct {
	Port    string
	DBDSN   string
	LogFile string

	// RedisAddr switches session state to redis when set.
	RedisAddr string
	// KafkaBrokers switches order events to kafka when set.
	KafkaBrokers []string
	OrdersTopic  string

	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	// PaymentLimit caps sandbox authorizations; zero means no cap.
	PaymentLimit decimal.Decimal

	SessionCacheSize int
}

// plain holds the keys viper can decode without help.
type plain struct {
	Port             string `mapstructure:"port"`
	DBDSN            string `mapstructure:"db_dsn"`
	LogFile          string `mapstructure:"log_file"`
	RedisAddr        string `mapstructure:"redis_addr"`
	OrdersTopic      string `mapstructure:"orders_topic"`
	SessionCacheSize int    `mapstructure:"session_cache_size"`
}

// Load reads defaults, an optional config file and the environment, in that
// order of precedence (environment wins). args are the command line
// arguments without the program name.
func Load(args []string) (Config, error) {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("db_dsn", "storefront.db")
	v.SetDefault("log_file", "./storefront.log")
	v.SetDefault("redis_addr", "")
	v.SetDefault("kafka_brokers", []string{})
	v.SetDefault("orders_topic", "orders.placed")
	v.SetDefault("shipping_fee", "15000")
	v.SetDefault("free_shipping_threshold", "200000")
	v.SetDefault("payment_limit", "0")
	v.SetDefault("session_cache_size", 1024)

	// PORT, DB_DSN, KAFKA_BROKERS, ...
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range v.AllKeys() {
		_ = v.BindEnv(k, strings.ToUpper(k))
	}

	path, err := configFilepath(args)
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	var p plain
	if err := v.Unmarshal(&p); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	cfg := Config{
		Port:             p.Port,
		DBDSN:            p.DBDSN,
		LogFile:          p.LogFile,
		RedisAddr:        p.RedisAddr,
		OrdersTopic:      p.OrdersTopic,
		SessionCacheSize: p.SessionCacheSize,
		// env values arrive as one comma separated string
		KafkaBrokers: splitList(v.GetStringSlice("kafka_brokers")),
	}

	for key, dst := range map[string]*decimal.Decimal{
		"shipping_fee":            &cfg.ShippingFee,
		"free_shipping_threshold": &cfg.FreeShippingThreshold,
		"payment_limit":           &cfg.PaymentLimit,
	} {
		d, err := decimal.NewFromString(v.GetString(key))
		if err != nil {
			return Config{}, errors.Wrapf(err, "%s", key)
		}
		if d.IsNegative() {
			return Config{}, errors.Errorf("%s must be >= 0", key)
		}
		*dst = d
	}

	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s REDIS_ADDR=%q KAFKA_BROKERS=%v SHIPPING_FEE=%s FREE_SHIPPING_THRESHOLD=%s",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.RedisAddr, cfg.KafkaBrokers, cfg.ShippingFee, cfg.FreeShippingThreshold)
	return cfg, nil
}

func configFilepath(args []string) (string, error) {
	fs := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	arg := fs.String("config", "", "config file (yaml, json or toml)")
	if err := fs.Parse(args); err != nil {
		return "", errors.Wrap(err, "flags")
	}
	if env, ok := os.LookupEnv(configFileEnvName); ok && env != "" {
		return env, nil
	}
	return *arg, nil
}

func splitList(in []string) []string {
	out := []string{}
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
