package repository

import (
	"context"

	"ielts_edu_backend/internal/model"

	"gorm.io/gorm"
)

type ReadingRepository struct {
	DB *gorm.DB
}

func NewReadingRepository(db *gorm.DB) *ReadingRepository {
	return &ReadingRepository{DB: db}
}

func (r *ReadingRepository) PaperTitleExists(ctx context.Context, title string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ReadingPaper{}).
		Where("title = ?", title).Count(&count).Error
	return count > 0, err
}

func (r *ReadingRepository) CreatePaper(ctx context.Context, paper *model.ReadingPaper) error {
	return r.DB.WithContext(ctx).Create(paper).Error
}

func (r *ReadingRepository) CreatePassage(ctx context.Context, passage *model.ReadingPassage) error {
	return r.DB.WithContext(ctx).Create(passage).Error
}

func (r *ReadingRepository) CreateQuestion(ctx context.Context, question *model.ReadingQuestion) error {
	return r.DB.WithContext(ctx).Create(question).Error
}

// DeletePaper 补偿删除试卷行，幂等：行不存在时不算错误。
// passages/questions 由外键级联清理。
func (r *ReadingRepository) DeletePaper(ctx context.Context, paperID uint) error {
	return r.DB.WithContext(ctx).Unscoped().
		Delete(&model.ReadingPaper{}, paperID).Error
}

func (r *ReadingRepository) DeleteQuestions(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Unscoped().
		Delete(&model.ReadingQuestion{}, ids).Error
}

func (r *ReadingRepository) FindPaperByID(ctx context.Context, id uint) (*model.ReadingPaper, error) {
	var paper model.ReadingPaper
	err := r.DB.WithContext(ctx).
		Preload("Passages", func(db *gorm.DB) *gorm.DB {
			return db.Order("passage_number asc")
		}).
		Preload("Passages.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_number asc")
		}).
		First(&paper, id).Error
	return &paper, err
}

func (r *ReadingRepository) ListPapers(ctx context.Context, paperType, status string, page, limit int) ([]model.ReadingPaper, int64, error) {
	var papers []model.ReadingPaper
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.ReadingPaper{})
	if paperType != "" {
		query = query.Where("type = ?", paperType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&papers).Error
	return papers, total, err
}
