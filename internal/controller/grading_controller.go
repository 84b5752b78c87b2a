package controller

import (
	"strconv"

	"quiz_grading_backend/internal/model"
	"quiz_grading_backend/internal/service"
	"quiz_grading_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GradingController struct {
	Service *service.GradingService
	Storage *service.StorageService
}

func NewGradingController(svc *service.GradingService, storage *service.StorageService) *GradingController {
	return &GradingController{Service: svc, Storage: storage}
}

// @Summary 提交试卷并自动评分
// @Tags 答题
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "试卷ID"
// @Param body body service.SubmitQuizRequest true "作答内容"
// @Success 201 {object} util.Response
// @Router /api/quizzes/{id}/submit [post]
func (c *GradingController) SubmitQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	quizID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req service.SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	submission, err := c.Service.SubmitQuiz(user.UserID, uint(quizID), req)
	if err != nil {
		switch err {
		case util.ErrQuizNotFound:
			util.NotFound(ctx)
		case util.ErrQuizNotPublished:
			util.Forbidden(ctx)
		case util.ErrAlreadySubmitted:
			util.Conflict(ctx, err.Error())
		default:
			util.BadRequest(ctx, err.Error())
		}
		return
	}

	util.Created(ctx, submission)
}

// @Summary 我的提交记录
// @Tags 答题
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/my/submissions [get]
func (c *GradingController) GetMySubmissions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	submissions, err := c.Service.GetUserSubmissions(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, submissions)
}

// @Summary 提交详情
// @Tags 答题
// @Produce json
// @Security BearerAuth
// @Param id path int true "提交ID"
// @Success 200 {object} util.Response
// @Router /api/submissions/{id} [get]
func (c *GradingController) GetSubmission(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid submission id")
		return
	}

	submission, err := c.Service.GetSubmission(uint(id))
	if err != nil {
		util.NotFound(ctx)
		return
	}

	// 学生只能看自己的提交
	if user.Role == model.Student && submission.UserID != user.UserID {
		util.Forbidden(ctx)
		return
	}

	util.Success(ctx, submission)
}

// @Summary 主观题附件上传
// @Tags 答题
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "附件"
// @Success 200 {object} util.Response
// @Router /api/submissions/attachments [post]
func (c *GradingController) UploadEssayAttachment(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	url, err := c.Storage.UploadEssayAttachment(
		ctx.Request.Context(),
		user.UserID,
		fileHeader.Filename,
		file,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"url": url})
}

// @Summary 提交列表（按试卷）
// @Tags 评分
// @Produce json
// @Security BearerAuth
// @Param id path int true "试卷ID"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Param status query string false "graded / in_review / all"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{id}/submissions [get]
func (c *GradingController) ListSubmissions(ctx *gin.Context) {
	quizID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	status := ctx.DefaultQuery("status", "all")

	submissions, total, err := c.Service.ListSubmissions(uint(quizID), page, limit, status)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  submissions,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary 列出待人工评分的提交
// @Tags 评分
// @Produce json
// @Security BearerAuth
// @Param quizId query int false "试卷ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/submissions/pending-review [get]
func (c *GradingController) ListPendingReview(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Query("quizId"))

	submissions, err := c.Service.ListPendingReview(quizID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, submissions)
}

// @Summary 教师对主观题人工评分
// @Tags 评分
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "提交ID"
// @Param questionId path int true "题目ID"
// @Param body body service.EssayOverrideRequest true "评分"
// @Success 200 {object} util.Response
// @Router /api/teacher/submissions/{id}/questions/{questionId}/grade [post]
func (c *GradingController) OverrideEssayScore(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	submissionID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid submission id")
		return
	}
	questionID, err := strconv.Atoi(ctx.Param("questionId"))
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	var req service.EssayOverrideRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	submission, err := c.Service.OverrideEssayScore(user.UserID, uint(submissionID), uint(questionID), req)
	if err != nil {
		switch err {
		case util.ErrSubmissionNotFound, util.ErrAnswerNotFound:
			util.NotFound(ctx)
		case util.ErrNotEssayQuestion, util.ErrScoreExceedsPoints:
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, submission)
}
