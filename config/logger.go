package config

import "go.uber.org/zap"

// NewLogger returns a JSON logger in production and a console one elsewhere.
func NewLogger(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
