package service

import (
	"sync"
	"time"

	"quiz_grading_backend/internal/model"
	"quiz_grading_backend/internal/scoring"
	"quiz_grading_backend/internal/util"
	"quiz_grading_backend/pkg/logger"
	"quiz_grading_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuizStore 评卷所需的试卷读取面
type QuizStore interface {
	FindQuizByID(id uint) (*model.Quiz, error)
	ListQuestions(quizID uint) ([]model.QuizQuestion, error)
}

// SubmissionStore 评卷结果的持久化面
type SubmissionStore interface {
	CreateWithAnswers(s *model.QuizSubmission, answers []model.QuizSubmissionAnswer) error
	FindByID(id uint) (*model.QuizSubmission, error)
	FindByUserAndQuiz(userID, quizID uint) (*model.QuizSubmission, error)
	ListByQuiz(quizID uint, page, limit int, status string) ([]model.QuizSubmission, int64, error)
	ListByUser(userID uint) ([]model.QuizSubmission, error)
	ListPendingReview(quizID uint) ([]model.QuizSubmission, error)
	FindAnswer(submissionID, questionID uint) (*model.QuizSubmissionAnswer, error)
	UpdateAnswer(a *model.QuizSubmissionAnswer) error
	CountUngraded(submissionID uint) (int64, error)
	UpdateSubmission(s *model.QuizSubmission) error
}

type GradingService struct {
	Quizzes     QuizStore
	Submissions SubmissionStore

	mu     sync.RWMutex
	engine *scoring.Engine
}

func NewGradingService(quizzes QuizStore, submissions SubmissionStore, engine *scoring.Engine) *GradingService {
	return &GradingService{
		Quizzes:     quizzes,
		Submissions: submissions,
		engine:      engine,
	}
}

// SetEngine 配置热更新时替换评分引擎（如调整简答题相似度阈值）
func (s *GradingService) SetEngine(engine *scoring.Engine) {
	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()
}

func (s *GradingService) grader() *scoring.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

type SubmittedAnswer struct {
	QuestionID    uint   `json:"questionId" binding:"required"`
	Answer        string `json:"answer"`
	AttachmentURL string `json:"attachmentUrl"`
}

type SubmitQuizRequest struct {
	Answers []SubmittedAnswer `json:"answers" binding:"required"`
}

// SubmitQuiz 提交并自动评分，每个用户每份试卷只评一次
func (s *GradingService) SubmitQuiz(userID, quizID uint, req SubmitQuizRequest) (*model.QuizSubmission, error) {
	quiz, err := s.Quizzes.FindQuizByID(quizID)
	if err != nil {
		return nil, util.ErrQuizNotFound
	}
	if !quiz.IsPublished {
		return nil, util.ErrQuizNotPublished
	}

	if existing, err := s.Submissions.FindByUserAndQuiz(userID, quizID); err == nil && existing != nil {
		return nil, util.ErrAlreadySubmitted
	}

	questions, err := s.Quizzes.ListQuestions(quizID)
	if err != nil {
		return nil, err
	}

	scoringQs := make([]scoring.Question, len(questions))
	known := make(map[uint]bool, len(questions))
	for i, q := range questions {
		scoringQs[i] = q.ToScoring()
		known[q.ID] = true
	}

	byQuestion := make(map[uint]SubmittedAnswer, len(req.Answers))
	for _, a := range req.Answers {
		if !known[a.QuestionID] {
			return nil, scoring.ErrUnknownQuestion
		}
		byQuestion[a.QuestionID] = a
	}

	// 按试卷题目全量配对，未作答的题按空答案评分，保证总分和待阅数不缩水
	subs := make([]scoring.Submission, len(questions))
	for i, q := range questions {
		subs[i] = scoring.Submission{QuestionID: q.ID, Answer: byQuestion[q.ID].Answer}
	}

	summary, err := s.grader().GradeAll(scoringQs, subs)
	if err != nil {
		return nil, err
	}

	status := model.SubmissionStatusGraded
	if summary.Ungraded > 0 {
		status = model.SubmissionStatusInReview
	}

	submission := &model.QuizSubmission{
		QuizID:         quizID,
		UserID:         userID,
		Status:         status,
		PointsEarned:   summary.PointsEarned,
		PointsPossible: summary.PointsPossible,
		Percentage:     summary.Percentage,
		UngradedCount:  summary.Ungraded,
		SubmittedAt:    time.Now(),
	}

	answers := make([]model.QuizSubmissionAnswer, len(summary.Results))
	for i, res := range summary.Results {
		answers[i] = model.QuizSubmissionAnswer{
			QuestionID:    res.QuestionID,
			Order:         i,
			UserAnswer:    byQuestion[res.QuestionID].Answer,
			Verdict:       res.Verdict,
			PointsAwarded: res.PointsAwarded,
			AttachmentURL: byQuestion[res.QuestionID].AttachmentURL,
		}
	}

	if err := s.Submissions.CreateWithAnswers(submission, answers); err != nil {
		return nil, err
	}

	monitoring.GradedSubmissions.WithLabelValues(status).Inc()
	logger.Log.Info("quiz submission graded",
		zap.Uint("quizId", quizID),
		zap.Uint("userId", userID),
		zap.Int("earned", summary.PointsEarned),
		zap.Int("possible", summary.PointsPossible),
		zap.Float64("percentage", summary.Percentage),
		zap.Int("ungraded", summary.Ungraded),
	)

	submission.Answers = answers
	return submission, nil
}

func (s *GradingService) GetSubmission(id uint) (*model.QuizSubmission, error) {
	sub, err := s.Submissions.FindByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrSubmissionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *GradingService) GetUserSubmissions(userID uint) ([]model.QuizSubmission, error) {
	return s.Submissions.ListByUser(userID)
}

func (s *GradingService) ListSubmissions(quizID uint, page, limit int, status string) ([]model.QuizSubmission, int64, error) {
	if status == "all" {
		status = ""
	}
	return s.Submissions.ListByQuiz(quizID, page, limit, status)
}

func (s *GradingService) ListPendingReview(quizID uint) ([]model.QuizSubmission, error) {
	return s.Submissions.ListPendingReview(quizID)
}

type EssayOverrideRequest struct {
	Points   int    `json:"points"`
	Feedback string `json:"feedback"`
}

// OverrideEssayScore 教师对主观题人工给分并重算提交汇总。
// 仅 essay 题可走该路径，给分不得超过题目分值
func (s *GradingService) OverrideEssayScore(graderID, submissionID, questionID uint, req EssayOverrideRequest) (*model.QuizSubmission, error) {
	submission, err := s.Submissions.FindByID(submissionID)
	if err != nil {
		return nil, util.ErrSubmissionNotFound
	}

	question, err := s.findQuestion(submission.QuizID, questionID)
	if err != nil {
		return nil, err
	}
	if question.Kind != scoring.KindEssay {
		return nil, util.ErrNotEssayQuestion
	}
	if req.Points < 0 || req.Points > question.Points {
		return nil, util.ErrScoreExceedsPoints
	}

	answer, err := s.Submissions.FindAnswer(submissionID, questionID)
	if err != nil {
		return nil, util.ErrAnswerNotFound
	}

	verdict := scoring.VerdictIncorrect
	if req.Points > 0 {
		verdict = scoring.VerdictCorrect
	}

	now := time.Now()
	answer.Verdict = verdict
	answer.PointsAwarded = req.Points
	answer.Feedback = req.Feedback
	answer.GraderID = &graderID
	answer.GradedAt = &now

	if err := s.Submissions.UpdateAnswer(answer); err != nil {
		return nil, err
	}

	return s.recomputeTotals(submissionID)
}

func (s *GradingService) findQuestion(quizID, questionID uint) (*model.QuizQuestion, error) {
	questions, err := s.Quizzes.ListQuestions(quizID)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		if questions[i].ID == questionID {
			return &questions[i], nil
		}
	}
	return nil, util.ErrAnswerNotFound
}

// recomputeTotals 人工评分后重算得分、得分率和状态
func (s *GradingService) recomputeTotals(submissionID uint) (*model.QuizSubmission, error) {
	submission, err := s.Submissions.FindByID(submissionID)
	if err != nil {
		return nil, err
	}

	earned := 0
	for _, a := range submission.Answers {
		earned += a.PointsAwarded
	}

	ungraded, err := s.Submissions.CountUngraded(submissionID)
	if err != nil {
		return nil, err
	}

	submission.PointsEarned = earned
	submission.UngradedCount = int(ungraded)
	submission.Percentage = 0
	if submission.PointsPossible > 0 {
		submission.Percentage = float64(earned) / float64(submission.PointsPossible) * 100
	}
	if ungraded == 0 {
		submission.Status = model.SubmissionStatusGraded
	} else {
		submission.Status = model.SubmissionStatusInReview
	}

	if err := s.Submissions.UpdateSubmission(submission); err != nil {
		return nil, err
	}
	return submission, nil
}
