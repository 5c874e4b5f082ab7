package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"envelope/config"
	"envelope/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open 根据配置打开数据库连接（不做迁移）
func Open(cfg *config.Config) (*gorm.DB, error) {
	logMode := logger.Warn
	if cfg.Server.Mode == "debug" {
		logMode = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
		// 将唯一键冲突统一翻译为 gorm.ErrDuplicatedKey
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Driver {
	case "mysql":
		// 月份与交易日期按 UTC 存储，避免 DATE 列因时区偏移错位
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=UTC",
			cfg.Database.Username,
			cfg.Database.Password,
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.DBName,
			cfg.Database.Charset,
		)
		db, err = gorm.Open(mysql.Open(dsn), gormCfg)
	case "sqlite":
		if dir := filepath.Dir(cfg.Database.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("创建数据库目录失败: %w", err)
			}
		}
		db, err = gorm.Open(sqlite.Open(cfg.Database.Path+"?_busy_timeout=5000&_foreign_keys=on"), gormCfg)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver == "sqlite" {
		// sqlite 单写者，串行化连接避免 database is locked
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}

	return db, nil
}

// Migrate 自动迁移账本相关表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Account{},
		&models.CategoryGroup{},
		&models.Category{},
		&models.Budget{},
		&models.Transaction{},
	); err != nil {
		return fmt.Errorf("自动迁移失败: %w", err)
	}
	return nil
}

// Init 初始化数据库连接并迁移，结果保存在全局 DB
func Init(cfg *config.Config) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}
	DB = db

	slog.Info("数据库初始化成功", "component", "database", "driver", cfg.Database.Driver)
	return nil
}
