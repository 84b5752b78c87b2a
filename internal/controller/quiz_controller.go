package controller

import (
	"strconv"

	"quiz_grading_backend/internal/service"
	"quiz_grading_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	Service *service.QuizService
}

func NewQuizController(svc *service.QuizService) *QuizController {
	return &QuizController{Service: svc}
}

// @Summary 创建试卷
// @Tags 试卷管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuizRequest true "试卷信息"
// @Success 201 {object} util.Response
// @Router /api/teacher/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.CreateQuiz(user.UserID, req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Created(ctx, quiz)
}

// @Summary 试卷列表
// @Tags 试卷管理
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	quizzes, total, err := c.Service.ListQuizzes(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  quizzes,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary 试卷详情（含标准答案）
// @Tags 试卷管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	quiz, questions, err := c.Service.GetQuiz(uint(id))
	if err != nil {
		util.NotFound(ctx)
		return
	}

	util.Success(ctx, gin.H{"quiz": quiz, "questions": questions})
}

// @Summary 更新试卷
// @Tags 试卷管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "试卷ID"
// @Param body body service.QuizRequest true "试卷信息"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.UpdateQuiz(uint(id), req)
	if err != nil {
		if err == util.ErrQuizHasSubmissions {
			util.Conflict(ctx, err.Error())
			return
		}
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Success(ctx, quiz)
}

// @Summary 删除试卷
// @Tags 试卷管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	if err := c.Service.DeleteQuiz(uint(id)); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"deleted": true})
}

// @Summary 学生获取当前发布的试卷
// @Tags 答题
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/quizzes/published [get]
func (c *QuizController) GetPublishedQuiz(ctx *gin.Context) {
	view, err := c.Service.GetPublishedQuizForStudent(ctx.Request.Context())
	if err != nil {
		util.NotFound(ctx)
		return
	}

	util.Success(ctx, view)
}
