package bootstrap

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/mediascribe/mediascribe/internal/conf"
	"github.com/mediascribe/mediascribe/internal/db"
	"github.com/mediascribe/mediascribe/pkg/utils"
)

// InitDB opens the configured database and runs migrations.
func InitDB() {
	dbCfg := conf.Conf.Database
	gormCfg := &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: dbCfg.TablePrefix,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	}

	var dialector gorm.Dialector
	switch dbCfg.Type {
	case "sqlite3":
		dialector = sqlite.Open(fmt.Sprintf("%s?_journal=WAL&_vacuum=incremental", dbCfg.DBFile))
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			dbCfg.User, dbCfg.Password, dbCfg.Host, dbCfg.Port, dbCfg.Name)
		dialector = mysql.Open(dsn)
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
			dbCfg.Host, dbCfg.User, dbCfg.Password, dbCfg.Name, dbCfg.Port, dbCfg.SSLMode)
		dialector = postgres.Open(dsn)
	default:
		utils.Log.Fatalf("unsupported database type: %s", dbCfg.Type)
	}

	gdb, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		utils.Log.Fatalf("failed to connect database: %+v", err)
	}
	if err := db.Init(gdb); err != nil {
		utils.Log.Fatalf("failed to migrate database: %+v", err)
	}
	utils.Log.Infof("database ready: %s", dbCfg.Type)
}
