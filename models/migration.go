package models

import (
	"github.com/brightpath/adjustments_backend/config"
)

func MigrateTable() error {
	db := config.GetDB()

	return db.AutoMigrate(
		&User{},
		&Enrollment{},
		&Adjustment{},
	)
}
