package scoring

import (
	"errors"
	"fmt"
)

// Kind 题目类型
type Kind string

const (
	KindMultipleChoice Kind = "multiple_choice"
	KindTrueFalse      Kind = "true_false"
	KindShortAnswer    Kind = "short_answer"
	KindEssay          Kind = "essay"
)

func (k Kind) Valid() bool {
	switch k {
	case KindMultipleChoice, KindTrueFalse, KindShortAnswer, KindEssay:
		return true
	}
	return false
}

// RequiresAnswer 该类型是否必须配置标准答案
func (k Kind) RequiresAnswer() bool {
	return k != KindEssay
}

// Verdict 单题判定结果
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
	// VerdictUngraded 主观题待人工评分
	VerdictUngraded Verdict = "ungraded"
)

var (
	ErrInvalidKind       = errors.New("invalid question kind")
	ErrInvalidPoints     = errors.New("question points must be positive")
	ErrNoReferenceAnswer = errors.New("question has no reference answer")
	ErrUnknownQuestion   = errors.New("submission references unknown question")
)

// Question 评分引擎的题目输入，作答期间不可变
type Question struct {
	ID      uint
	Kind    Kind
	Prompt  string
	Options []string // 选择题选项
	Answer  string   // 标准答案，essay 类型可为空
	Points  int
}

// Validate 校验题目配置，配置错误属于出题数据问题，需要出题人修复
func (q Question) Validate() error {
	if !q.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, q.Kind)
	}
	if q.Points <= 0 {
		return fmt.Errorf("%w: question %d has %d", ErrInvalidPoints, q.ID, q.Points)
	}
	if q.Kind.RequiresAnswer() && normalize(q.Answer) == "" {
		return fmt.Errorf("%w: question %d (%s)", ErrNoReferenceAnswer, q.ID, q.Kind)
	}
	return nil
}

// Submission 一次作答
type Submission struct {
	QuestionID uint
	Answer     string
}

// Result 单题评分结果
type Result struct {
	QuestionID    uint
	Verdict       Verdict
	PointsAwarded int
}

// Summary 批量评分汇总
type Summary struct {
	Results        []Result
	PointsEarned   int
	PointsPossible int
	// Percentage 得分率，PointsPossible 为 0 时为 0
	Percentage float64
	// Ungraded 等待人工评分的主观题数量
	Ungraded int
}
