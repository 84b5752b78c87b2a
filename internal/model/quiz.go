package model

import (
	"encoding/json"
	"time"

	"quiz_grading_backend/internal/scoring"
)

// Quiz 一份试卷，题目创建后对已有提交不可变
// swagger:model Quiz
type Quiz struct {
	BaseModel
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	TimeLimit   int        `gorm:"default:0" json:"timeLimit"` // 分钟，0 表示不限时
	IsPublished bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatorID   uint       `gorm:"index;type:bigint unsigned" json:"creatorId"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizQuestion 试卷中的一道题
// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	QuizID      uint            `gorm:"index;type:bigint unsigned" json:"quizId"`
	Kind        scoring.Kind    `gorm:"size:50;not null" json:"kind"` // multiple_choice, true_false, short_answer, essay
	Prompt      string          `gorm:"type:text;not null" json:"prompt"`
	Options     json.RawMessage `gorm:"type:json" json:"options,omitempty"` // JSON: []string，仅选择题
	Answer      string          `gorm:"type:text" json:"answer"`            // 标准答案，essay 可为空
	Points      int             `gorm:"default:1" json:"points"`
	Order       int             `gorm:"default:0" json:"order"`
	Explanation string          `gorm:"type:text" json:"explanation"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// OptionList 解析选项 JSON，解析失败返回空列表
func (q *QuizQuestion) OptionList() []string {
	var opts []string
	if len(q.Options) > 0 {
		_ = json.Unmarshal(q.Options, &opts)
	}
	return opts
}

// ToScoring 转换为评分引擎的值类型
func (q *QuizQuestion) ToScoring() scoring.Question {
	return scoring.Question{
		ID:      q.ID,
		Kind:    q.Kind,
		Prompt:  q.Prompt,
		Options: q.OptionList(),
		Answer:  q.Answer,
		Points:  q.Points,
	}
}
