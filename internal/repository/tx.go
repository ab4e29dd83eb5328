package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxManager 在同一事务中执行多个仓储写操作
// fn 收到的 ctx 携带事务，传给仓储方法即可加入事务
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

// Transaction fn 返回错误时回滚；已在事务中时直接复用
func (m *gormTxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn ctx 中有事务时使用事务连接
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
