package repository

import (
	"context"

	"ielts_edu_backend/internal/model"

	"gorm.io/gorm"
)

type ImportLogRepository struct {
	DB *gorm.DB
}

func NewImportLogRepository(db *gorm.DB) *ImportLogRepository {
	return &ImportLogRepository{DB: db}
}

func (r *ImportLogRepository) Create(ctx context.Context, log *model.ImportLog) error {
	return r.DB.WithContext(ctx).Create(log).Error
}

func (r *ImportLogRepository) List(ctx context.Context, kind string, page, limit int) ([]model.ImportLog, int64, error) {
	var logs []model.ImportLog
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.ImportLog{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("imported_at desc").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, total, err
}
