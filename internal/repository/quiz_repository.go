package repository

import (
	"quiz_grading_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) CreateQuiz(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindQuizByID(id uint) (*model.Quiz, error) {
	var q model.Quiz
	err := r.DB.First(&q, id).Error
	return &q, err
}

func (r *QuizRepository) ListQuizzes(page, limit int) ([]model.Quiz, int64, error) {
	var qs []model.Quiz
	var total int64
	query := r.DB.Model(&model.Quiz{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&qs).Error
	return qs, total, err
}

func (r *QuizRepository) FindPublishedQuiz() (*model.Quiz, error) {
	var q model.Quiz
	err := r.DB.Where("is_published = ?", true).Order("published_at desc").First(&q).Error
	return &q, err
}

func (r *QuizRepository) UpdateQuiz(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

func (r *QuizRepository) DeleteQuiz(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quiz{}, id).Error
	})
}

// UnpublishAllExcept 保证同一时间只有一份试卷对学生可见
func (r *QuizRepository) UnpublishAllExcept(id uint) error {
	return r.DB.Model(&model.Quiz{}).
		Where("id <> ? AND is_published = ?", id, true).
		Update("is_published", false).Error
}

func (r *QuizRepository) CreateQuestion(q *model.QuizQuestion) error {
	return r.DB.Create(q).Error
}

func (r *QuizRepository) FindQuestionByID(id uint) (*model.QuizQuestion, error) {
	var q model.QuizQuestion
	err := r.DB.First(&q, id).Error
	return &q, err
}

func (r *QuizRepository) ListQuestions(quizID uint) ([]model.QuizQuestion, error) {
	var qs []model.QuizQuestion
	err := r.DB.Where("quiz_id = ?", quizID).
		Order("`order` asc, created_at asc").Find(&qs).Error
	return qs, err
}

func (r *QuizRepository) UpdateQuestion(q *model.QuizQuestion) error {
	return r.DB.Save(q).Error
}

func (r *QuizRepository) DeleteQuestion(id uint) error {
	return r.DB.Delete(&model.QuizQuestion{}, id).Error
}
