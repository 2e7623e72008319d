package database

import (
	"fmt"
	"log"

	"ielts_edu_backend/internal/config"
	"ielts_edu_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dbCfg := &cfg.Database
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.DBName,
		dbCfg.Charset,
		dbCfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	// release 模式不自动迁移，除非显式 -migrate
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		err = db.AutoMigrate(
			&model.User{},
			&model.ReadingPaper{},
			&model.ReadingPassage{},
			&model.ReadingQuestion{},
			&model.ListeningTest{},
			&model.ListeningSection{},
			&model.ListeningQuestion{},
			&model.ImportLog{},
		)
		if err != nil {
			return nil, err
		}
	}

	return db, nil
}
