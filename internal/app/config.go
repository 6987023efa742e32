package app

import (
	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/utils"
)

type Config struct {
	JWTSecretKey string
	Port         string
	Environment  string
	Version      string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		JWTSecretKey: utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		Port:         utils.GetEnv("PORT", "8080", log),
		Environment:  utils.GetEnv("ENVIRONMENT", "development", log),
		Version:      utils.GetEnv("SERVICE_VERSION", "dev", log),
	}
}
