package repository

import (
	"quiz_grading_backend/internal/model"
	"quiz_grading_backend/internal/scoring"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

// CreateWithAnswers 提交与答题记录在同一事务中落库
func (r *SubmissionRepository) CreateWithAnswers(s *model.QuizSubmission, answers []model.QuizSubmissionAnswer) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		for i := range answers {
			answers[i].SubmissionID = s.ID
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SubmissionRepository) FindByID(id uint) (*model.QuizSubmission, error) {
	var s model.QuizSubmission
	err := r.DB.Preload("Answers", func(db *gorm.DB) *gorm.DB {
		return db.Order("`order` asc")
	}).First(&s, id).Error
	return &s, err
}

func (r *SubmissionRepository) FindByUserAndQuiz(userID, quizID uint) (*model.QuizSubmission, error) {
	var s model.QuizSubmission
	err := r.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmissionRepository) ListByQuiz(quizID uint, page, limit int, status string) ([]model.QuizSubmission, int64, error) {
	var ss []model.QuizSubmission
	var total int64
	query := r.DB.Model(&model.QuizSubmission{}).Where("quiz_id = ?", quizID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Preload("User").Order("submitted_at desc").
		Offset(offset).Limit(limit).Find(&ss).Error
	return ss, total, err
}

func (r *SubmissionRepository) ListByUser(userID uint) ([]model.QuizSubmission, error) {
	var ss []model.QuizSubmission
	err := r.DB.Where("user_id = ?", userID).Order("submitted_at desc").Find(&ss).Error
	return ss, err
}

// ListPendingReview 列出仍有主观题未评分的提交
func (r *SubmissionRepository) ListPendingReview(quizID uint) ([]model.QuizSubmission, error) {
	var ss []model.QuizSubmission
	query := r.DB.Preload("User").Where("status = ?", model.SubmissionStatusInReview)
	if quizID > 0 {
		query = query.Where("quiz_id = ?", quizID)
	}
	err := query.Order("submitted_at asc").Find(&ss).Error
	return ss, err
}

func (r *SubmissionRepository) FindAnswer(submissionID, questionID uint) (*model.QuizSubmissionAnswer, error) {
	var a model.QuizSubmissionAnswer
	err := r.DB.Where("submission_id = ? AND question_id = ?", submissionID, questionID).First(&a).Error
	return &a, err
}

func (r *SubmissionRepository) UpdateAnswer(a *model.QuizSubmissionAnswer) error {
	return r.DB.Save(a).Error
}

// CountUngraded 提交中仍为 ungraded 的答题数
func (r *SubmissionRepository) CountUngraded(submissionID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizSubmissionAnswer{}).
		Where("submission_id = ? AND verdict = ?", submissionID, scoring.VerdictUngraded).
		Count(&count).Error
	return count, err
}

func (r *SubmissionRepository) UpdateSubmission(s *model.QuizSubmission) error {
	return r.DB.Save(s).Error
}

func (r *SubmissionRepository) CountByQuiz(quizID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizSubmission{}).Where("quiz_id = ?", quizID).Count(&count).Error
	return count, err
}
