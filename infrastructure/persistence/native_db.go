package persistence

import (
	"database/sql"
	"fmt"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewRepositories opens the local MySQL store through gorm and keeps the user
// table migrated. Used in local development; production runs on MSSQL.
func NewRepositories() (*gorm.DB, error) {
	cfg := configuration.C.Database.MySql
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		return nil, err
	}
	return db, nil
}

// NewNativeDb exposes the underlying sql.DB of the local MySQL store.
func NewNativeDb() (*sql.DB, error) {
	db, err := NewRepositories()
	if err != nil {
		return nil, err
	}
	return db.DB()
}
