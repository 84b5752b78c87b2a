package database

import (
	"fmt"
	"log"

	"quiz_grading_backend/internal/config"
	"quiz_grading_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// release 模式默认不自动迁移，需通过 -migrate 显式开启
func shouldMigrate(cfg *config.Config) bool {
	return cfg.Server.Mode != "release" || cfg.ForceMigrate
}

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
		cfg.Database.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if shouldMigrate(cfg) {
		err = db.AutoMigrate(
			&model.User{},
			&model.Quiz{},
			&model.QuizQuestion{},
			&model.QuizSubmission{},
			&model.QuizSubmissionAnswer{},
		)

		if err != nil {
			return nil, err
		}

		log.Println("Database migration completed")
	}

	return db, nil
}
