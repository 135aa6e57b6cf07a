package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/alley-rs/lsar/src/configs"
)

// New 初始化全局 logger
func New(cfg *configs.Config) *logrus.Logger {
	logLevel := logrus.InfoLevel
	if cfg != nil && cfg.Debug {
		logLevel = logrus.TraceLevel
	}

	writers := []io.Writer{os.Stderr}
	logrus.SetOutput(io.MultiWriter(writers...))
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if cfg != nil && cfg.Debug {
		logrus.SetReportCaller(true)
	}
	logrus.SetLevel(logLevel)

	return logrus.StandardLogger()
}

// GetLogger 返回全局唯一的 logrus Logger
func GetLogger() *logrus.Logger {
	return logrus.StandardLogger()
}

// WithPlatform 返回带平台标签的 Entry，各解析器的日志都应携带平台标签
func WithPlatform(platform string) *logrus.Entry {
	return logrus.StandardLogger().WithField("platform", platform)
}
