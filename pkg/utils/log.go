package utils

import (
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// Log is the shared logger. Packages log through this instance so the
// bootstrap can swap formatters and outputs in one place.
var Log = logrus.New()

func init() {
	Log.SetFormatter(&logrus.TextFormatter{
		ForceColors:               true,
		EnvironmentOverrideColors: true,
		TimestampFormat:           "2006-01-02 15:04:05",
		FullTimestamp:             true,
	})
}

// SetRotatingOutput tees the log to stderr and a size-rotated file.
func SetRotatingOutput(name string, maxSize, maxBackups, maxAge int, compress bool) {
	w := &lumberjack.Logger{
		Filename:   name,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   compress,
	}
	Log.SetOutput(io.MultiWriter(os.Stderr, w))
}
