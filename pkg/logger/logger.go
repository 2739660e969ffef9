package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger initializes the structured logger. An empty level falls back to
// LOG_LEVEL, then to debug in development and info otherwise.
func InitLogger(logLevel string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			if isDevelopment {
				logLevel = "debug"
			} else {
				logLevel = "info"
			}
		}
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", logLevel).Warn("Invalid LOG_LEVEL, using INFO")
	}

	if !isDevelopment || strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	log.SetOutput(os.Stdout)

	Logger = log
	return log
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger("info", false)
	}
	return Logger
}

// SetOutput redirects the global logger, e.g. to stderr for CLI tools whose
// stdout carries results.
func SetOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}

// WithService creates a logger with service context
func WithService(serviceName string) *logrus.Entry {
	return GetLogger().WithField("service", serviceName)
}

// OptimizationFields are the fields every optimization log line carries.
func OptimizationFields(optimizationID, sport, provider string) logrus.Fields {
	return logrus.Fields{
		"optimization_id": optimizationID,
		"sport":           sport,
		"provider":        provider,
	}
}

// RequestFields tie a log line to an HTTP request and the run it produced.
func RequestFields(requestID, optimizationID string) logrus.Fields {
	return logrus.Fields{
		"request_id":      requestID,
		"optimization_id": optimizationID,
	}
}

// WithOptimizationContext creates a logger with full optimization context
func WithOptimizationContext(optimizationID, sport, provider string) *logrus.Entry {
	return GetLogger().WithFields(OptimizationFields(optimizationID, sport, provider))
}
