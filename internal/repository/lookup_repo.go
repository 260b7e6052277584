package repository

import (
	"context"

	"gorm.io/gorm"

	"retail_sync_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// LookupRepository 字典表仓储 (颜色/年代)
// 名称精确匹配，不存在则创建
type LookupRepository interface {
	GetOrCreateColor(ctx context.Context, name string) (*model.Color, error)
	GetOrCreateAge(ctx context.Context, name string) (*model.Age, error)
	GetColorByID(ctx context.Context, id int64) (*model.Color, error)
}

// ==================== 仓储实现 ====================

type lookupRepo struct {
	db *gorm.DB
}

// NewLookupRepository 创建字典仓储
func NewLookupRepository(db *gorm.DB) LookupRepository {
	return &lookupRepo{db: db}
}

func (r *lookupRepo) GetOrCreateColor(ctx context.Context, name string) (*model.Color, error) {
	var color model.Color
	err := r.db.WithContext(ctx).
		Where(model.Color{Name: name}).
		FirstOrCreate(&color).Error
	if err != nil {
		return nil, err
	}
	return &color, nil
}

func (r *lookupRepo) GetOrCreateAge(ctx context.Context, name string) (*model.Age, error) {
	var age model.Age
	err := r.db.WithContext(ctx).
		Where(model.Age{Name: name}).
		FirstOrCreate(&age).Error
	if err != nil {
		return nil, err
	}
	return &age, nil
}

func (r *lookupRepo) GetColorByID(ctx context.Context, id int64) (*model.Color, error) {
	var color model.Color
	err := r.db.WithContext(ctx).First(&color, id).Error
	if err != nil {
		return nil, err
	}
	return &color, nil
}
