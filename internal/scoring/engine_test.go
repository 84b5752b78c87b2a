package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Grade_Choice(t *testing.T) {
	e := NewEngine()

	q := Question{ID: 1, Kind: KindMultipleChoice, Options: []string{"A", "B", "C", "D"}, Answer: "B", Points: 2}

	t.Run("ExactMatch", func(t *testing.T) {
		res, err := e.Grade(q, "B")
		require.NoError(t, err)
		assert.Equal(t, VerdictCorrect, res.Verdict)
		assert.Equal(t, 2, res.PointsAwarded)
	})

	t.Run("CaseAndWhitespaceInsensitive", func(t *testing.T) {
		res, err := e.Grade(q, "  b ")
		require.NoError(t, err)
		assert.Equal(t, VerdictCorrect, res.Verdict)
		assert.Equal(t, 2, res.PointsAwarded)
	})

	t.Run("WrongOption", func(t *testing.T) {
		res, err := e.Grade(q, "C")
		require.NoError(t, err)
		assert.Equal(t, VerdictIncorrect, res.Verdict)
		assert.Zero(t, res.PointsAwarded)
	})

	t.Run("AnswerOutsideOptionsIsIncorrectNotError", func(t *testing.T) {
		res, err := e.Grade(q, "E")
		require.NoError(t, err)
		assert.Equal(t, VerdictIncorrect, res.Verdict)
	})

	t.Run("EmptyAnswerIsIncorrectNotError", func(t *testing.T) {
		res, err := e.Grade(q, "   ")
		require.NoError(t, err)
		assert.Equal(t, VerdictIncorrect, res.Verdict)
	})

	t.Run("TrueFalse", func(t *testing.T) {
		tf := Question{ID: 2, Kind: KindTrueFalse, Answer: "True", Points: 1}
		res, err := e.Grade(tf, " true ")
		require.NoError(t, err)
		assert.Equal(t, VerdictCorrect, res.Verdict)
		assert.Equal(t, 1, res.PointsAwarded)
	})
}

func TestEngine_Grade_ShortAnswer(t *testing.T) {
	e := NewEngine()
	q := Question{ID: 3, Kind: KindShortAnswer, Answer: "Python", Points: 5}

	t.Run("CloseEnough", func(t *testing.T) {
		// "pithon" 与 "python" 编辑距离 1，相似度约 0.83
		res, err := e.Grade(q, "pithon")
		require.NoError(t, err)
		assert.Equal(t, VerdictCorrect, res.Verdict)
		assert.Equal(t, 5, res.PointsAwarded)
	})

	t.Run("TooFar", func(t *testing.T) {
		res, err := e.Grade(q, "Java")
		require.NoError(t, err)
		assert.Equal(t, VerdictIncorrect, res.Verdict)
		assert.Zero(t, res.PointsAwarded)
	})

	t.Run("CaseNormalizationSymmetry", func(t *testing.T) {
		upper, err := e.Grade(q, "Paris")
		require.NoError(t, err)
		lower, err := e.Grade(q, "paris")
		require.NoError(t, err)
		assert.Equal(t, upper.Verdict, lower.Verdict)
	})

	t.Run("ConfigurableThreshold", func(t *testing.T) {
		strict := NewEngine(WithThreshold(0.95))
		res, err := strict.Grade(q, "pithon")
		require.NoError(t, err)
		assert.Equal(t, VerdictIncorrect, res.Verdict)
	})

	t.Run("CustomSimilarity", func(t *testing.T) {
		always := NewEngine(WithSimilarity(func(a, b string) float64 { return 1 }))
		res, err := always.Grade(q, "whatever")
		require.NoError(t, err)
		assert.Equal(t, VerdictCorrect, res.Verdict)
	})
}

func TestEngine_Grade_Essay(t *testing.T) {
	e := NewEngine()
	q := Question{ID: 4, Kind: KindEssay, Prompt: "谈谈你对循环的理解", Points: 10}

	for _, answer := range []string{"", "完全正确的长篇论述", "nonsense"} {
		res, err := e.Grade(q, answer)
		require.NoError(t, err)
		assert.Equal(t, VerdictUngraded, res.Verdict)
		assert.Zero(t, res.PointsAwarded)
	}
}

func TestEngine_Grade_ConfigurationErrors(t *testing.T) {
	e := NewEngine()

	t.Run("MissingReferenceAnswer", func(t *testing.T) {
		q := Question{ID: 5, Kind: KindShortAnswer, Points: 5}
		_, err := e.Grade(q, "anything")
		assert.ErrorIs(t, err, ErrNoReferenceAnswer)
	})

	t.Run("NonPositivePoints", func(t *testing.T) {
		q := Question{ID: 6, Kind: KindTrueFalse, Answer: "True", Points: 0}
		_, err := e.Grade(q, "True")
		assert.ErrorIs(t, err, ErrInvalidPoints)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		q := Question{ID: 7, Kind: "matching", Answer: "x", Points: 1}
		_, err := e.Grade(q, "x")
		assert.ErrorIs(t, err, ErrInvalidKind)
	})

	t.Run("EssayNeedsNoReferenceAnswer", func(t *testing.T) {
		q := Question{ID: 8, Kind: KindEssay, Points: 3}
		_, err := e.Grade(q, "opinion")
		assert.NoError(t, err)
	})
}

func TestEngine_GradeAll(t *testing.T) {
	e := NewEngine()

	questions := []Question{
		{ID: 1, Kind: KindMultipleChoice, Answer: "B", Points: 3},
		{ID: 2, Kind: KindTrueFalse, Answer: "False", Points: 7},
	}

	t.Run("AggregatePercentage", func(t *testing.T) {
		subs := []Submission{
			{QuestionID: 1, Answer: "b"},    // 对，3 分
			{QuestionID: 2, Answer: "True"}, // 错
		}
		summary, err := e.GradeAll(questions, subs)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.PointsEarned)
		assert.Equal(t, 10, summary.PointsPossible)
		assert.InDelta(t, 30.0, summary.Percentage, 1e-9)
		assert.Zero(t, summary.Ungraded)
	})

	t.Run("OrderPreserved", func(t *testing.T) {
		subs := []Submission{
			{QuestionID: 2, Answer: "False"},
			{QuestionID: 1, Answer: "B"},
			{QuestionID: 2, Answer: "x"},
		}
		summary, err := e.GradeAll(questions, subs)
		require.NoError(t, err)
		require.Len(t, summary.Results, 3)
		assert.Equal(t, uint(2), summary.Results[0].QuestionID)
		assert.Equal(t, uint(1), summary.Results[1].QuestionID)
		assert.Equal(t, uint(2), summary.Results[2].QuestionID)
	})

	t.Run("ZeroPossibleIsZeroPercent", func(t *testing.T) {
		summary, err := e.GradeAll(questions, nil)
		require.NoError(t, err)
		assert.Zero(t, summary.PointsPossible)
		assert.Zero(t, summary.Percentage)
	})

	t.Run("UngradedCount", func(t *testing.T) {
		qs := append(questions, Question{ID: 3, Kind: KindEssay, Points: 10})
		subs := []Submission{
			{QuestionID: 1, Answer: "B"},
			{QuestionID: 3, Answer: "my essay"},
		}
		summary, err := e.GradeAll(qs, subs)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Ungraded)
		assert.Equal(t, 3, summary.PointsEarned)
		assert.Equal(t, 13, summary.PointsPossible)
	})

	t.Run("UnknownQuestionFailsBatch", func(t *testing.T) {
		subs := []Submission{{QuestionID: 99, Answer: "B"}}
		_, err := e.GradeAll(questions, subs)
		assert.ErrorIs(t, err, ErrUnknownQuestion)
	})

	t.Run("Idempotent", func(t *testing.T) {
		subs := []Submission{
			{QuestionID: 1, Answer: "b"},
			{QuestionID: 2, Answer: "false"},
		}
		first, err := e.GradeAll(questions, subs)
		require.NoError(t, err)
		second, err := e.GradeAll(questions, subs)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestSimilarity(t *testing.T) {
	t.Run("Identical", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("Paris", " paris "))
	})

	t.Run("Symmetric", func(t *testing.T) {
		assert.Equal(t, Similarity("python", "pithon"), Similarity("pithon", "python"))
	})

	t.Run("Range", func(t *testing.T) {
		s := Similarity("abc", "xyz")
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	})

	t.Run("KnownRatio", func(t *testing.T) {
		assert.InDelta(t, 5.0/6.0, Similarity("python", "pithon"), 1e-9)
	})

	t.Run("BothEmpty", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("", "  "))
	})
}
