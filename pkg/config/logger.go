package config

import (
	"go.uber.org/zap"
)

// NewLogger builds the application logger: human-readable output in
// development, JSON in production.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
