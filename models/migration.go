package models

import (
	"log"

	"bitbucket.org/mmdatafocus/hr_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Role{}, &Department{}, &Designation{},
		&User{},
		&Point{},
		&Attendance{}, &Holiday{},
		&AppraisalTemplate{}, &Appraisal{},
		&EmailOutboxRecord{}, &IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
