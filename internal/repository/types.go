package repository

import "gorm.io/gorm"

type QueryOption func(*gorm.DB) *gorm.DB

func WithPreload(association string, conds ...interface{}) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Preload(association, conds...)
	}
}

// WithSources 预加载构建来源，按写入顺序
func WithSources() QueryOption {
	return WithPreload("Sources", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	})
}
