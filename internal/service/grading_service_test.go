package service

import (
	"encoding/json"
	"testing"
	"time"

	"quiz_grading_backend/internal/model"
	"quiz_grading_backend/internal/scoring"
	"quiz_grading_backend/internal/util"
	"quiz_grading_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	m.Run()
}

type fakeQuizStore struct {
	quiz      *model.Quiz
	questions []model.QuizQuestion
}

func (f *fakeQuizStore) FindQuizByID(id uint) (*model.Quiz, error) {
	if f.quiz == nil || f.quiz.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.quiz, nil
}

func (f *fakeQuizStore) ListQuestions(quizID uint) ([]model.QuizQuestion, error) {
	return f.questions, nil
}

type fakeSubmissionStore struct {
	nextID  uint
	subs    map[uint]*model.QuizSubmission
	answers map[uint][]model.QuizSubmissionAnswer
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{
		subs:    make(map[uint]*model.QuizSubmission),
		answers: make(map[uint][]model.QuizSubmissionAnswer),
	}
}

func (f *fakeSubmissionStore) CreateWithAnswers(s *model.QuizSubmission, answers []model.QuizSubmissionAnswer) error {
	f.nextID++
	s.ID = f.nextID
	for i := range answers {
		answers[i].SubmissionID = s.ID
	}
	stored := *s
	f.subs[s.ID] = &stored
	f.answers[s.ID] = append([]model.QuizSubmissionAnswer(nil), answers...)
	return nil
}

func (f *fakeSubmissionStore) FindByID(id uint) (*model.QuizSubmission, error) {
	s, ok := f.subs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *s
	out.Answers = append([]model.QuizSubmissionAnswer(nil), f.answers[id]...)
	return &out, nil
}

func (f *fakeSubmissionStore) FindByUserAndQuiz(userID, quizID uint) (*model.QuizSubmission, error) {
	for _, s := range f.subs {
		if s.UserID == userID && s.QuizID == quizID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionStore) ListByQuiz(quizID uint, page, limit int, status string) ([]model.QuizSubmission, int64, error) {
	var out []model.QuizSubmission
	for _, s := range f.subs {
		if s.QuizID == quizID && (status == "" || s.Status == status) {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeSubmissionStore) ListByUser(userID uint) ([]model.QuizSubmission, error) {
	var out []model.QuizSubmission
	for _, s := range f.subs {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSubmissionStore) ListPendingReview(quizID uint) ([]model.QuizSubmission, error) {
	var out []model.QuizSubmission
	for _, s := range f.subs {
		if s.Status == model.SubmissionStatusInReview && (quizID == 0 || s.QuizID == quizID) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSubmissionStore) FindAnswer(submissionID, questionID uint) (*model.QuizSubmissionAnswer, error) {
	for _, a := range f.answers[submissionID] {
		if a.QuestionID == questionID {
			out := a
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionStore) UpdateAnswer(updated *model.QuizSubmissionAnswer) error {
	answers := f.answers[updated.SubmissionID]
	for i := range answers {
		if answers[i].QuestionID == updated.QuestionID {
			answers[i] = *updated
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeSubmissionStore) CountUngraded(submissionID uint) (int64, error) {
	var count int64
	for _, a := range f.answers[submissionID] {
		if a.Verdict == scoring.VerdictUngraded {
			count++
		}
	}
	return count, nil
}

func (f *fakeSubmissionStore) UpdateSubmission(s *model.QuizSubmission) error {
	stored := *s
	stored.Answers = nil
	f.subs[s.ID] = &stored
	return nil
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func newTestGradingService(t *testing.T) (*GradingService, *fakeQuizStore, *fakeSubmissionStore) {
	t.Helper()
	now := time.Now()
	quizzes := &fakeQuizStore{
		quiz: &model.Quiz{
			BaseModel:   model.BaseModel{ID: 1},
			Title:       "入门测验",
			IsPublished: true,
			PublishedAt: &now,
		},
		questions: []model.QuizQuestion{
			{
				BaseModel: model.BaseModel{ID: 1},
				QuizID:    1,
				Kind:      scoring.KindMultipleChoice,
				Prompt:    "哪个选项是正确的？",
				Options:   mustJSON(t, []string{"A", "B", "C", "D"}),
				Answer:    "B",
				Points:    3,
			},
			{
				BaseModel: model.BaseModel{ID: 2},
				QuizID:    1,
				Kind:      scoring.KindShortAnswer,
				Prompt:    "这门语言叫什么？",
				Answer:    "Python",
				Points:    7,
			},
			{
				BaseModel: model.BaseModel{ID: 3},
				QuizID:    1,
				Kind:      scoring.KindEssay,
				Prompt:    "谈谈你的学习计划",
				Points:    10,
			},
		},
	}
	submissions := newFakeSubmissionStore()
	svc := NewGradingService(quizzes, submissions, scoring.NewEngine())
	return svc, quizzes, submissions
}

func TestGradingService_SubmitQuiz(t *testing.T) {
	t.Run("GradesAndPersists", func(t *testing.T) {
		svc, _, _ := newTestGradingService(t)

		sub, err := svc.SubmitQuiz(42, 1, SubmitQuizRequest{
			Answers: []SubmittedAnswer{
				{QuestionID: 1, Answer: " b "},
				{QuestionID: 2, Answer: "pithon"},
				{QuestionID: 3, Answer: "我的计划是……"},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, 10, sub.PointsEarned)
		assert.Equal(t, 20, sub.PointsPossible)
		assert.InDelta(t, 50.0, sub.Percentage, 1e-9)
		assert.Equal(t, 1, sub.UngradedCount)
		assert.Equal(t, model.SubmissionStatusInReview, sub.Status)

		require.Len(t, sub.Answers, 3)
		assert.Equal(t, scoring.VerdictCorrect, sub.Answers[0].Verdict)
		assert.Equal(t, scoring.VerdictCorrect, sub.Answers[1].Verdict)
		assert.Equal(t, scoring.VerdictUngraded, sub.Answers[2].Verdict)
		// 顺序与试卷题目一致
		assert.Equal(t, uint(1), sub.Answers[0].QuestionID)
		assert.Equal(t, uint(2), sub.Answers[1].QuestionID)
		assert.Equal(t, uint(3), sub.Answers[2].QuestionID)
	})

	t.Run("NoEssayMeansImmediatelyGraded", func(t *testing.T) {
		svc, quizzes, _ := newTestGradingService(t)
		quizzes.questions = quizzes.questions[:2]

		sub, err := svc.SubmitQuiz(42, 1, SubmitQuizRequest{
			Answers: []SubmittedAnswer{
				{QuestionID: 1, Answer: "C"},
				{QuestionID: 2, Answer: "Python"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, model.SubmissionStatusGraded, sub.Status)
		assert.Equal(t, 7, sub.PointsEarned)
		assert.Equal(t, 10, sub.PointsPossible)
		assert.InDelta(t, 70.0, sub.Percentage, 1e-9)
	})

	t.Run("RejectsDuplicate", func(t *testing.T) {
		svc, _, _ := newTestGradingService(t)

		req := SubmitQuizRequest{Answers: []SubmittedAnswer{{QuestionID: 1, Answer: "B"}}}
		_, err := svc.SubmitQuiz(42, 1, req)
		require.NoError(t, err)

		_, err = svc.SubmitQuiz(42, 1, req)
		assert.ErrorIs(t, err, util.ErrAlreadySubmitted)
	})

	t.Run("RejectsUnpublished", func(t *testing.T) {
		svc, quizzes, _ := newTestGradingService(t)
		quizzes.quiz.IsPublished = false

		_, err := svc.SubmitQuiz(42, 1, SubmitQuizRequest{})
		assert.ErrorIs(t, err, util.ErrQuizNotPublished)
	})

	t.Run("UnknownQuizNotFound", func(t *testing.T) {
		svc, _, _ := newTestGradingService(t)

		_, err := svc.SubmitQuiz(42, 99, SubmitQuizRequest{})
		assert.ErrorIs(t, err, util.ErrQuizNotFound)
	})

	t.Run("ThresholdReloadAffectsShortAnswer", func(t *testing.T) {
		svc, _, _ := newTestGradingService(t)
		// 配置热更新走 SetEngine 替换评分引擎
		svc.SetEngine(scoring.NewEngine(scoring.WithThreshold(0.95)))

		sub, err := svc.SubmitQuiz(42, 1, SubmitQuizRequest{
			Answers: []SubmittedAnswer{
				{QuestionID: 1, Answer: "B"},
				{QuestionID: 2, Answer: "pithon"},
				{QuestionID: 3, Answer: "论述"},
			},
		})
		require.NoError(t, err)

		// pithon 相似度约 0.83，阈值收紧到 0.95 后不再判对
		assert.Equal(t, scoring.VerdictIncorrect, sub.Answers[1].Verdict)
		assert.Equal(t, 3, sub.PointsEarned)
	})

	t.Run("PartialSubmissionCountsAllQuestions", func(t *testing.T) {
		svc, _, _ := newTestGradingService(t)

		// 只答第一题，漏答的简答题计 0 分、漏答的主观题仍进入人工评阅
		sub, err := svc.SubmitQuiz(42, 1, SubmitQuizRequest{
			Answers: []SubmittedAnswer{{QuestionID: 1, Answer: "B"}},
		})
		require.NoError(t, err)

		assert.Equal(t, 3, sub.PointsEarned)
		assert.Equal(t, 20, sub.PointsPossible)
		assert.InDelta(t, 15.0, sub.Percentage, 1e-9)
		assert.Equal(t, 1, sub.UngradedCount)
		assert.Equal(t, model.SubmissionStatusInReview, sub.Status)

		require.Len(t, sub.Answers, 3)
		assert.Equal(t, scoring.VerdictCorrect, sub.Answers[0].Verdict)
		assert.Equal(t, scoring.VerdictIncorrect, sub.Answers[1].Verdict)
		assert.Empty(t, sub.Answers[1].UserAnswer)
		assert.Equal(t, scoring.VerdictUngraded, sub.Answers[2].Verdict)
	})

	t.Run("UnknownQuestionFailsBatch", func(t *testing.T) {
		svc, _, _ := newTestGradingService(t)

		_, err := svc.SubmitQuiz(42, 1, SubmitQuizRequest{
			Answers: []SubmittedAnswer{{QuestionID: 99, Answer: "B"}},
		})
		assert.ErrorIs(t, err, scoring.ErrUnknownQuestion)
	})
}

func TestGradingService_OverrideEssayScore(t *testing.T) {
	submit := func(t *testing.T, svc *GradingService) *model.QuizSubmission {
		t.Helper()
		sub, err := svc.SubmitQuiz(42, 1, SubmitQuizRequest{
			Answers: []SubmittedAnswer{
				{QuestionID: 1, Answer: "B"},
				{QuestionID: 2, Answer: "Python"},
				{QuestionID: 3, Answer: "长篇论述"},
			},
		})
		require.NoError(t, err)
		return sub
	}

	t.Run("RecomputesTotals", func(t *testing.T) {
		svc, _, _ := newTestGradingService(t)
		sub := submit(t, svc)

		updated, err := svc.OverrideEssayScore(7, sub.ID, 3, EssayOverrideRequest{Points: 8, Feedback: "论述较完整"})
		require.NoError(t, err)

		assert.Equal(t, 18, updated.PointsEarned)
		assert.Equal(t, 20, updated.PointsPossible)
		assert.InDelta(t, 90.0, updated.Percentage, 1e-9)
		assert.Zero(t, updated.UngradedCount)
		assert.Equal(t, model.SubmissionStatusGraded, updated.Status)
	})

	t.Run("ZeroPointsStillResolvesReview", func(t *testing.T) {
		svc, _, subs := newTestGradingService(t)
		sub := submit(t, svc)

		updated, err := svc.OverrideEssayScore(7, sub.ID, 3, EssayOverrideRequest{Points: 0})
		require.NoError(t, err)
		assert.Equal(t, model.SubmissionStatusGraded, updated.Status)

		a, err := subs.FindAnswer(sub.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, scoring.VerdictIncorrect, a.Verdict)
		require.NotNil(t, a.GraderID)
		assert.Equal(t, uint(7), *a.GraderID)
		assert.NotNil(t, a.GradedAt)
	})

	t.Run("RejectsOverMaxPoints", func(t *testing.T) {
		svc, _, _ := newTestGradingService(t)
		sub := submit(t, svc)

		_, err := svc.OverrideEssayScore(7, sub.ID, 3, EssayOverrideRequest{Points: 11})
		assert.ErrorIs(t, err, util.ErrScoreExceedsPoints)
	})

	t.Run("RejectsNonEssayQuestion", func(t *testing.T) {
		svc, _, _ := newTestGradingService(t)
		sub := submit(t, svc)

		_, err := svc.OverrideEssayScore(7, sub.ID, 1, EssayOverrideRequest{Points: 1})
		assert.ErrorIs(t, err, util.ErrNotEssayQuestion)
	})

	t.Run("UnknownSubmission", func(t *testing.T) {
		svc, _, _ := newTestGradingService(t)

		_, err := svc.OverrideEssayScore(7, 99, 3, EssayOverrideRequest{Points: 1})
		assert.ErrorIs(t, err, util.ErrSubmissionNotFound)
	})
}

func TestGradingService_ListPendingReview(t *testing.T) {
	svc, _, _ := newTestGradingService(t)

	_, err := svc.SubmitQuiz(42, 1, SubmitQuizRequest{
		Answers: []SubmittedAnswer{{QuestionID: 3, Answer: "论述"}},
	})
	require.NoError(t, err)

	pending, err := svc.ListPendingReview(1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, uint(42), pending[0].UserID)
}
