package model

import (
	"time"

	"quiz_grading_backend/internal/scoring"
)

const (
	// SubmissionStatusGraded 全部客观题，自动评分后即为最终结果
	SubmissionStatusGraded = "graded"
	// SubmissionStatusInReview 含主观题，等待教师人工评分
	SubmissionStatusInReview = "in_review"
)

// QuizSubmission 一次试卷提交，评分恰好发生一次
// swagger:model QuizSubmission
type QuizSubmission struct {
	BaseModel
	QuizID         uint                   `gorm:"index;type:bigint unsigned" json:"quizId"`
	UserID         uint                   `gorm:"index;type:bigint unsigned" json:"userId"`
	User           *User                  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status         string                 `gorm:"size:20;default:'graded'" json:"status"`
	PointsEarned   int                    `gorm:"default:0" json:"pointsEarned"`
	PointsPossible int                    `gorm:"default:0" json:"pointsPossible"`
	Percentage     float64                `gorm:"default:0" json:"percentage"`
	UngradedCount  int                    `gorm:"default:0" json:"ungradedCount"`
	SubmittedAt    time.Time              `json:"submittedAt"`
	Answers        []QuizSubmissionAnswer `gorm:"foreignKey:SubmissionID" json:"answers,omitempty"`
}

func (QuizSubmission) TableName() string {
	return "quiz_submissions"
}

// QuizSubmissionAnswer 单题作答记录，除主观题人工评分外不再变更
// swagger:model QuizSubmissionAnswer
type QuizSubmissionAnswer struct {
	BaseModel
	SubmissionID  uint            `gorm:"index;type:bigint unsigned" json:"submissionId"`
	QuestionID    uint            `gorm:"index;type:bigint unsigned" json:"questionId"`
	Order         int             `gorm:"default:0" json:"order"` // 保持提交顺序
	UserAnswer    string          `gorm:"type:text" json:"userAnswer"`
	Verdict       scoring.Verdict `gorm:"size:20;not null" json:"verdict"`
	PointsAwarded int             `gorm:"default:0" json:"pointsAwarded"`
	AttachmentURL string          `gorm:"size:512" json:"attachmentUrl,omitempty"` // 主观题附件
	GraderID      *uint           `gorm:"type:bigint unsigned" json:"graderId,omitempty"`
	GradedAt      *time.Time      `json:"gradedAt,omitempty"`
	Feedback      string          `gorm:"type:text" json:"feedback"`
}

func (QuizSubmissionAnswer) TableName() string {
	return "quiz_submission_answers"
}
