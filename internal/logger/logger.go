package logger

import "go.uber.org/zap"

// New builds the application logger: human-friendly output locally,
// JSON in production.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
