package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quiz_grading_backend/internal/model"
	"quiz_grading_backend/internal/repository"
	"quiz_grading_backend/internal/scoring"
	"quiz_grading_backend/internal/util"
	"quiz_grading_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	publishedQuizCacheKey = "quiz:published"
	publishedQuizCacheTTL = 5 * time.Minute
)

type QuizService struct {
	Repo    *repository.QuizRepository
	SubRepo *repository.SubmissionRepository
	Redis   *redis.Client
}

func NewQuizService(repo *repository.QuizRepository, subRepo *repository.SubmissionRepository, rdb *redis.Client) *QuizService {
	return &QuizService{Repo: repo, SubRepo: subRepo, Redis: rdb}
}

type QuizQuestionRequest struct {
	ID          uint            `json:"id"`
	Kind        scoring.Kind    `json:"kind" binding:"required"`
	Prompt      string          `json:"prompt" binding:"required"`
	Options     json.RawMessage `json:"options"`
	Answer      string          `json:"answer"`
	Points      int             `json:"points"`
	Order       int             `json:"order"`
	Explanation string          `json:"explanation"`
}

// toModel 请求转实体并校验评分配置，出题阶段尽早暴露配置错误
func (req QuizQuestionRequest) toModel(quizID uint) (*model.QuizQuestion, error) {
	q := &model.QuizQuestion{
		QuizID:      quizID,
		Kind:        req.Kind,
		Prompt:      req.Prompt,
		Options:     req.Options,
		Answer:      req.Answer,
		Points:      req.Points,
		Order:       req.Order,
		Explanation: req.Explanation,
	}
	if err := q.ToScoring().Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

type QuizRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	TimeLimit   *int                   `json:"timeLimit"`
	IsPublished *bool                  `json:"isPublished"`
	Questions   *[]QuizQuestionRequest `json:"questions"`
}

func (s *QuizService) CreateQuiz(creatorID uint, req QuizRequest) (*model.Quiz, error) {
	if req.Title == nil || *req.Title == "" {
		return nil, errors.New("title is required")
	}

	quiz := &model.Quiz{
		Title:     *req.Title,
		CreatorID: creatorID,
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = *req.TimeLimit
	}
	if req.IsPublished != nil && *req.IsPublished {
		quiz.IsPublished = true
		now := time.Now()
		quiz.PublishedAt = &now
	}

	if err := s.Repo.CreateQuiz(quiz); err != nil {
		return nil, err
	}

	if quiz.IsPublished {
		_ = s.Repo.UnpublishAllExcept(quiz.ID)
	}

	if req.Questions != nil {
		for _, qReq := range *req.Questions {
			q, err := qReq.toModel(quiz.ID)
			if err != nil {
				return nil, err
			}
			if err := s.Repo.CreateQuestion(q); err != nil {
				return nil, err
			}
		}
	}

	s.invalidatePublishedCache()
	return quiz, nil
}

func (s *QuizService) UpdateQuiz(quizID uint, req QuizRequest) (*model.Quiz, error) {
	quiz, err := s.Repo.FindQuizByID(quizID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = *req.TimeLimit
	}
	if req.IsPublished != nil {
		if *req.IsPublished && !quiz.IsPublished {
			now := time.Now()
			quiz.PublishedAt = &now
		}
		quiz.IsPublished = *req.IsPublished
	}

	if err := s.Repo.UpdateQuiz(quiz); err != nil {
		return nil, err
	}

	if quiz.IsPublished {
		_ = s.Repo.UnpublishAllExcept(quiz.ID)
	}

	if req.Questions != nil {
		// 已有提交的试卷题目不可变，避免已出分的结果失去依据
		count, err := s.SubRepo.CountByQuiz(quizID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, util.ErrQuizHasSubmissions
		}

		existingQs, _ := s.Repo.ListQuestions(quizID)
		existingMap := make(map[uint]*model.QuizQuestion)
		for i := range existingQs {
			existingMap[existingQs[i].ID] = &existingQs[i]
		}

		keep := make(map[uint]bool)
		for _, qReq := range *req.Questions {
			if qReq.ID != 0 {
				q, ok := existingMap[qReq.ID]
				if !ok {
					continue
				}
				updated, err := qReq.toModel(quizID)
				if err != nil {
					return nil, err
				}
				updated.BaseModel = q.BaseModel
				if err := s.Repo.UpdateQuestion(updated); err != nil {
					return nil, err
				}
				keep[q.ID] = true
			} else {
				q, err := qReq.toModel(quizID)
				if err != nil {
					return nil, err
				}
				if err := s.Repo.CreateQuestion(q); err != nil {
					return nil, err
				}
			}
		}

		for id := range existingMap {
			if !keep[id] {
				s.Repo.DeleteQuestion(id)
			}
		}
	}

	s.invalidatePublishedCache()
	return quiz, nil
}

func (s *QuizService) DeleteQuiz(quizID uint) error {
	if err := s.Repo.DeleteQuiz(quizID); err != nil {
		return err
	}
	s.invalidatePublishedCache()
	return nil
}

func (s *QuizService) GetQuiz(quizID uint) (*model.Quiz, []model.QuizQuestion, error) {
	quiz, err := s.Repo.FindQuizByID(quizID)
	if err != nil {
		return nil, nil, err
	}
	qs, err := s.Repo.ListQuestions(quizID)
	return quiz, qs, err
}

func (s *QuizService) ListQuizzes(page, limit int) ([]model.Quiz, int64, error) {
	return s.Repo.ListQuizzes(page, limit)
}

// StudentQuizQuestion 学生视图，不含标准答案和解析
type StudentQuizQuestion struct {
	ID      uint            `json:"id"`
	Kind    scoring.Kind    `json:"kind"`
	Prompt  string          `json:"prompt"`
	Options json.RawMessage `json:"options,omitempty"`
	Points  int             `json:"points"`
	Order   int             `json:"order"`
}

type StudentQuizView struct {
	ID            uint                  `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	TimeLimit     int                   `json:"timeLimit"`
	QuestionCount int                   `json:"questionCount"`
	Questions     []StudentQuizQuestion `json:"questions"`
}

// GetPublishedQuizForStudent 学生获取当前发布的试卷，结果带 Redis 缓存
func (s *QuizService) GetPublishedQuizForStudent(ctx context.Context) (*StudentQuizView, error) {
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, publishedQuizCacheKey).Bytes(); err == nil {
			var view StudentQuizView
			if err := json.Unmarshal(cached, &view); err == nil {
				return &view, nil
			}
		}
	}

	quiz, err := s.Repo.FindPublishedQuiz()
	if err != nil {
		return nil, util.ErrQuizNotPublished
	}

	qs, err := s.Repo.ListQuestions(quiz.ID)
	if err != nil {
		return nil, err
	}

	view := &StudentQuizView{
		ID:            quiz.ID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		TimeLimit:     quiz.TimeLimit,
		QuestionCount: len(qs),
		Questions:     make([]StudentQuizQuestion, len(qs)),
	}
	for i, q := range qs {
		view.Questions[i] = StudentQuizQuestion{
			ID:      q.ID,
			Kind:    q.Kind,
			Prompt:  q.Prompt,
			Options: q.Options,
			Points:  q.Points,
			Order:   q.Order,
		}
	}

	if s.Redis != nil {
		if data, err := json.Marshal(view); err == nil {
			if err := s.Redis.Set(ctx, publishedQuizCacheKey, data, publishedQuizCacheTTL).Err(); err != nil {
				logger.Log.Warn("failed to cache published quiz", zap.Error(err))
			}
		}
	}

	return view, nil
}

func (s *QuizService) invalidatePublishedCache() {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(context.Background(), publishedQuizCacheKey).Err(); err != nil {
		logger.Log.Warn("failed to invalidate published quiz cache", zap.Error(err))
	}
}
