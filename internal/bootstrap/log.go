package bootstrap

import (
	"github.com/sirupsen/logrus"

	"github.com/mediascribe/mediascribe/internal/conf"
	"github.com/mediascribe/mediascribe/pkg/utils"
)

// InitLog must run after InitConfig.
func InitLog(debug bool) {
	if debug {
		utils.Log.SetLevel(logrus.DebugLevel)
		utils.Log.SetReportCaller(true)
	} else {
		utils.Log.SetLevel(logrus.InfoLevel)
	}
	utils.Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	logCfg := conf.Conf.Log
	if logCfg.Enable {
		utils.SetRotatingOutput(logCfg.Name, logCfg.MaxSize, logCfg.MaxBackups, logCfg.MaxAge, logCfg.Compress)
	}
	utils.Log.Infof("init logrus...")
}
