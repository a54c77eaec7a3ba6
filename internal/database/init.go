package database

import (
	"log"

	"gorm.io/gorm"

	"github.com/bichon-mail/bichon/internal/models"
)

func InitDatabase(dbConfig *DatabaseConfig) (*gorm.DB, error) {
	db, err := NewConnection(dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Account{},
		&models.Mailbox{},
		&models.EnvelopeRow{},
	); err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}

	return db, nil
}
