package client

import (
	"log"
	"marketplace-api/internal/model"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func InitMysqlClient(databaseURL string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}

	// Connection pool (important for webhooks)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	return db
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Merchant{},
		&model.Category{},
		&model.Product{},
		&model.Address{},
		&model.Order{},
		&model.SubOrder{},
		&model.OrderItem{},
		&model.Payment{},
		&model.PayoutBalance{},
		&model.PayoutTransaction{},
		&model.TermsVersion{},
		&model.TermsAcceptance{},
		&model.Notification{},
		&model.WebhookEvent{},
		&model.Setting{},
	)
}
