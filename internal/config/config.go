package config

import "github.com/spf13/viper"

// Config holds typed configuration for the analytics service.
type Config struct {
	LogLevel     string
	HTTPPort     string
	MetricsAddr  string
	KafkaBrokers string
	KafkaTopic   string
	KafkaGroupID string
	PostgresDSN  string
	RedisAddr    string
	RateLimit    int
	OTelEndpoint string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:     v.GetString("log_level"),
		HTTPPort:     v.GetString("http_port"),
		MetricsAddr:  v.GetString("metrics_addr"),
		KafkaBrokers: v.GetString("kafka_brokers"),
		KafkaTopic:   v.GetString("kafka_topic"),
		KafkaGroupID: v.GetString("kafka_group_id"),
		PostgresDSN:  v.GetString("postgres_dsn"),
		RedisAddr:    v.GetString("redis_addr"),
		RateLimit:    v.GetInt("rate_limit"),
		OTelEndpoint: v.GetString("otel_endpoint"),
	}
}
