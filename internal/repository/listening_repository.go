package repository

import (
	"context"

	"ielts_edu_backend/internal/model"

	"gorm.io/gorm"
)

type ListeningRepository struct {
	DB *gorm.DB
}

func NewListeningRepository(db *gorm.DB) *ListeningRepository {
	return &ListeningRepository{DB: db}
}

func (r *ListeningRepository) TestTitleExists(ctx context.Context, title string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ListeningTest{}).
		Where("title = ?", title).Count(&count).Error
	return count > 0, err
}

func (r *ListeningRepository) CreateTest(ctx context.Context, test *model.ListeningTest) error {
	return r.DB.WithContext(ctx).Create(test).Error
}

func (r *ListeningRepository) CreateSection(ctx context.Context, section *model.ListeningSection) error {
	return r.DB.WithContext(ctx).Create(section).Error
}

func (r *ListeningRepository) CreateQuestion(ctx context.Context, question *model.ListeningQuestion) error {
	return r.DB.WithContext(ctx).Create(question).Error
}

// DeleteTest 幂等补偿删除，子表靠级联
func (r *ListeningRepository) DeleteTest(ctx context.Context, testID uint) error {
	return r.DB.WithContext(ctx).Unscoped().
		Delete(&model.ListeningTest{}, testID).Error
}

func (r *ListeningRepository) DeleteQuestions(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Unscoped().
		Delete(&model.ListeningQuestion{}, ids).Error
}

func (r *ListeningRepository) FindTestByID(ctx context.Context, id uint) (*model.ListeningTest, error) {
	var test model.ListeningTest
	err := r.DB.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("section_number asc")
		}).
		Preload("Sections.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_number asc")
		}).
		First(&test, id).Error
	return &test, err
}

func (r *ListeningRepository) ListTests(ctx context.Context, testType, status string, page, limit int) ([]model.ListeningTest, int64, error) {
	var tests []model.ListeningTest
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.ListeningTest{})
	if testType != "" {
		query = query.Where("type = ?", testType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&tests).Error
	return tests, total, err
}

func (r *ListeningRepository) UpdateTestAudio(ctx context.Context, testID uint, url string, duration float64) error {
	return r.DB.WithContext(ctx).Model(&model.ListeningTest{}).
		Where("id = ?", testID).
		Updates(map[string]interface{}{"audio_url": url, "audio_duration": duration}).Error
}
