package logging

import (
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/supertrooper/backend/internal/config"
)

// Log is the process-wide logger.
var Log = logrus.New()

func init() {
	if gin.Mode() == gin.DebugMode {
		Log.SetLevel(logrus.DebugLevel)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
	Log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})
	Log.SetReportCaller(true)
}

// Setup applies the log section of the config. When a file is configured the
// output goes to both stdout and a rotated file.
func Setup(cfg config.LogConfig) {
	if cfg.Level != "" {
		if lvl, err := logrus.ParseLevel(cfg.Level); err == nil {
			Log.SetLevel(lvl)
		} else {
			Log.Warnf("unknown log level %q, keeping %s", cfg.Level, Log.GetLevel())
		}
	}
	if cfg.File == "" {
		Log.SetOutput(os.Stdout)
		return
	}
	rotated := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	Log.SetOutput(io.MultiWriter(os.Stdout, rotated))
	Log.Infof("logging to %s", cfg.File)
}
