package db

import (
	"github.com/mediascribe/mediascribe/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var db *gorm.DB

// Init wires the shared handle and migrates the schema. Connection
// pooling is left to database/sql underneath gorm; callers never share
// transactions across public functions here.
func Init(d *gorm.DB) error {
	db = d
	return errors.WithStack(AutoMigrate())
}

func AutoMigrate() error {
	return db.AutoMigrate(
		&model.Media{},
		&model.Transcript{},
		&model.Tag{},
		&model.MediaTag{},
	)
}

// Close releases the underlying connection pool.
func Close() error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(sqlDB.Close())
}
