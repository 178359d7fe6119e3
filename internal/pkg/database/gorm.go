package database

import (
	"Inkwell/internal/api/config"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/logger"
	"Inkwell/internal/pkg/security"
	"fmt"
	log "log/slog"
	"sort"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewGormDB 初始化并返回 *gorm.DB 实例，处理连接池配置
func NewGormDB(cfg *config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	dialector = mysql.Open(cfg.DSN)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      logger.NewGormLogger(),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database connection check failed: %w", err)
	}

	if cfg.AutoMigrate {
		if err = Migrate(db); err != nil {
			return nil, err
		}
	}
	if err = SeedRoles(db); err != nil {
		return nil, err
	}

	log.Info("Database connection established successfully.")
	return db, nil
}

// Migrate 同步表结构
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.UserRole{},
		&model.Category{},
		&model.Tag{},
		&model.Post{},
		&model.PostTag{},
		&model.Comment{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

// SeedRoles 写入内置角色，已存在的不覆盖
func SeedRoles(db *gorm.DB) error {
	names := make([]string, 0, len(security.BuiltinRoles))
	for name := range security.BuiltinRoles {
		names = append(names, name)
	}
	sort.Strings(names)

	roles := make([]*model.Role, 0, len(names))
	for _, name := range names {
		roles = append(roles, &model.Role{
			Name:        name,
			Description: "built-in",
			Permissions: security.BuiltinRoles[name],
		})
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&roles).Error
	if err != nil {
		return fmt.Errorf("seed roles failed: %w", err)
	}
	return nil
}
