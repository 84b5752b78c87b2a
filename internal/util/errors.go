package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrQuizNotPublished   = errors.New("quiz not published or not accessible")
	ErrQuizHasSubmissions = errors.New("quiz already has submissions, questions are immutable")
	ErrAlreadySubmitted   = errors.New("quiz already submitted")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAnswerNotFound     = errors.New("answer record not found")
	ErrNotEssayQuestion   = errors.New("manual grading is only for essay questions")
	ErrScoreExceedsPoints = errors.New("awarded points exceed question points")
)
