package database

import (
	"fmt"
	"log"
	"time"

	"github.com/qaura-app/qaura/app/models"
	"github.com/qaura-app/qaura/internal/pkg/env"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

func SetupDatabase() {
	var err error
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,  // datetime precision not supported before MySQL 5.6
			DontSupportRenameIndex:    true,  // rename index not supported before MySQL 5.7, MariaDB
			DontSupportRenameColumn:   true,  // rename column not supported before MySQL 8, MariaDB
			SkipInitializeWithVersion: false, // auto configure based on current MySQL version
		}), &gorm.Config{})
		if err == nil {
			DB.AutoMigrate(
				&models.User{},
				&models.ProviderAccount{},
				&models.Subscription{},
				&models.Setting{},
				&models.PaymentWebhookEvent{},
				&models.DailyMetric{},
			)

			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

func GetDB() *gorm.DB {
	return DB
}

// SetDB overrides the global handle for tests.
func SetDB(db *gorm.DB) {
	DB = db
}
