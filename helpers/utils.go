package helpers

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var DEBUG bool

var logger = newLogger(false)

func newLogger(debug bool) *zap.SugaredLogger {
	config := zap.NewDevelopmentConfig()
	config.Encoding = "console"
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.DisableStacktrace = true
	config.DisableCaller = true
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	l, err := config.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// InitLogger rebuilds the logger after DEBUG has been decided (flags are parsed after package init)
func InitLogger(debug bool) {
	DEBUG = debug
	_ = logger.Sync()
	logger = newLogger(debug)
}

// SetLogger is mainly for unit tests (eg. zap.NewNop())
func SetLogger(l *zap.Logger) {
	logger = l.Sugar()
}

func SyncLogger() {
	_ = logger.Sync()
}

func Log(level string, message interface{}) {
	if level == "DEBUG" && !DEBUG {
		return
	}
	switch level {
	case "DEBUG":
		logger.Debug(message)
	case "WARN":
		logger.Warn(message)
	case "ERROR":
		logger.Error(message)
	default:
		logger.Info(message)
	}
}

// Elapsed logs the message with the elapsed milliseconds only when it took longer than thresholdMs
func Elapsed(startMs int64, message string, thresholdMs int64) {
	elapsed := time.Now().UnixMilli() - startMs
	if elapsed >= thresholdMs {
		Log("INFO", fmt.Sprintf("%s (%d ms)", message, elapsed))
	}
}

func GetEnv(key string, fallback string) string {
	value, exists := os.LookupEnv(key)
	if exists {
		return value
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if exists {
		i, err := strconv.Atoi(value)
		if err != nil {
			Log("WARN", fmt.Sprintf("%s=%s is not an integer, using %d", key, value, fallback))
			return fallback
		}
		return i
	}
	return fallback
}

func GetBoolEnv(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if exists {
		switch strings.ToLower(value) {
		case
			"true",
			"y",
			"yes",
			"1":
			return true
		}
		return false
	}
	return fallback
}

func TruncateStr(s string, maxLen int) string {
	if maxLen <= 0 || len([]rune(s)) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
