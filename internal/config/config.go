package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	Razorpay struct {
		// WebhookSecret is the shared secret used to verify the
		// X-Razorpay-Signature header (HMAC-SHA256 of the raw body).
		WebhookSecret string `mapstructure:"webhookSecret"`
		// StrictSignature rejects webhooks when no secret is configured.
		// Turning it off restores the development bypass where an empty
		// secret lets every delivery through.
		StrictSignature bool `mapstructure:"strictSignature"`
	} `mapstructure:"razorpay"`
	Firebase struct {
		ProjectID   string `mapstructure:"projectId"`
		ClientEmail string `mapstructure:"clientEmail"`
		// PrivateKey is the service-account PEM key. Literal "\n" sequences
		// from environment variables are normalized before parsing.
		PrivateKey            string `mapstructure:"privateKey"`
		RequestTimeoutSeconds int    `mapstructure:"requestTimeoutSeconds"`
	} `mapstructure:"firebase"`
	Database struct {
		// DSN enables the webhook delivery audit log when set.
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	Kafka struct {
		// Brokers enables subscription event publishing when non-empty.
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
}

// LoadConfig loads configuration from config.yml and environment variables.
func LoadConfig(envPath string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// Missing .env is fine outside CI; viper still picks up the
		// process environment below.
		_ = godotenv.Load(envPath)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("razorpay.strictSignature", true)
	viper.SetDefault("firebase.requestTimeoutSeconds", 10)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
