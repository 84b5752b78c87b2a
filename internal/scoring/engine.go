package scoring

// DefaultShortAnswerThreshold 简答题相似度及格线，策略值而非推导值
const DefaultShortAnswerThreshold = 0.8

// SimilarityFunc 文本相似度函数，要求对称且取值 [0,1]
type SimilarityFunc func(a, b string) float64

// Engine 无状态评分引擎，可被多个调用方并发使用
type Engine struct {
	threshold  float64
	similarity SimilarityFunc
}

type Option func(*Engine)

// WithThreshold 调整简答题相似度阈值
func WithThreshold(t float64) Option {
	return func(e *Engine) {
		if t > 0 && t <= 1 {
			e.threshold = t
		}
	}
}

// WithSimilarity 替换简答题相似度算法
func WithSimilarity(fn SimilarityFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.similarity = fn
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		threshold:  DefaultShortAnswerThreshold,
		similarity: Similarity,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Grade 对单题作答评分。空白或不在选项中的回答按答错处理，不算结构错误
func (e *Engine) Grade(q Question, answer string) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{QuestionID: q.ID, Verdict: VerdictIncorrect}

	switch q.Kind {
	case KindEssay:
		// 主观题一律待人工评分，不自动判对错
		res.Verdict = VerdictUngraded
		return res, nil

	case KindMultipleChoice, KindTrueFalse:
		if normalize(answer) != "" && normalize(answer) == normalize(q.Answer) {
			res.Verdict = VerdictCorrect
		}

	case KindShortAnswer:
		if normalize(answer) != "" && e.similarity(answer, q.Answer) >= e.threshold {
			res.Verdict = VerdictCorrect
		}
	}

	if res.Verdict == VerdictCorrect {
		res.PointsAwarded = q.Points
	}
	return res, nil
}

// GradeAll 按提交顺序逐题评分并汇总。引用了未知题目的作答视为结构错误
func (e *Engine) GradeAll(questions []Question, subs []Submission) (*Summary, error) {
	byID := make(map[uint]Question, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, err
		}
		byID[q.ID] = q
	}

	summary := &Summary{Results: make([]Result, 0, len(subs))}

	for _, sub := range subs {
		q, ok := byID[sub.QuestionID]
		if !ok {
			return nil, ErrUnknownQuestion
		}

		res, err := e.Grade(q, sub.Answer)
		if err != nil {
			return nil, err
		}

		summary.Results = append(summary.Results, res)
		summary.PointsPossible += q.Points
		summary.PointsEarned += res.PointsAwarded
		if res.Verdict == VerdictUngraded {
			summary.Ungraded++
		}
	}

	if summary.PointsPossible > 0 {
		summary.Percentage = float64(summary.PointsEarned) / float64(summary.PointsPossible) * 100
	}
	return summary, nil
}
