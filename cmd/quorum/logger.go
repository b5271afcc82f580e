package main

import (
	"github.com/newthinker/quorum/internal/logger"
	"go.uber.org/zap"
)

func newLogger() (*zap.Logger, error) {
	return logger.New(debug)
}
