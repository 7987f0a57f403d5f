package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/docuforms/wallet-service/pkg/gateway"
	"github.com/docuforms/wallet-service/pkg/mysql"
)

type Config struct {
	API      API            `mapstructure:"api"`
	Metrics  Metrics        `mapstructure:"metrics"`
	Database mysql.Config   `mapstructure:"database"`
	Gateway  gateway.Config `mapstructure:"gateway"`
	Wallet   Wallet         `mapstructure:"wallet"`
	Auth     Auth           `mapstructure:"auth"`
}

type API struct {
	Port string `mapstructure:"port"`
}

type Metrics struct {
	Port string `mapstructure:"port"`
}

type Wallet struct {
	// MaxAttempts bounds the conditional-update retry loop on a
	// balance write. Exhaustion surfaces as a conflict error.
	MaxAttempts int `mapstructure:"max_attempts"`
}

type Auth struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

func Load() (cfg *Config, err error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath("./config")

	viper.SetDefault("wallet.max_attempts", 3)
	viper.SetDefault("gateway.max_retries", 3)

	err = viper.ReadInConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
