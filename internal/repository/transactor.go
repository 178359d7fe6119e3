package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// Transactor 把一组仓储调用放进同一个数据库事务
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type GormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &GormTransactor{db: db}
}

// Transaction ctx 中已有事务时直接复用，不再嵌套
func (s *GormTransactor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// withTx 优先使用 ctx 中的事务连接
func withTx(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
