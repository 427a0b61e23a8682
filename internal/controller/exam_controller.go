package controller

import (
	"strconv"

	"uni_exam_backend/internal/service"
	"uni_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ExamController 考试目录（学生视角）
type ExamController struct {
	ExamService *service.ExamService
}

func NewExamController(examService *service.ExamService) *ExamController {
	return &ExamController{ExamService: examService}
}

// @Summary 考试列表
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /api/exams [get]
func (c *ExamController) ListExams(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	exams, total, err := c.ExamService.ListExams(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  exams,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary 即将开始的考试
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param limit query int false "数量上限"
// @Success 200 {object} util.Response
// @Router /api/exams/upcoming [get]
func (c *ExamController) UpcomingExams(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	exams, err := c.ExamService.UpcomingExams(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, exams)
}

// @Summary 考试详情
// @Description 题目内容仅在作答窗口内返回
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/exams/{id} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	examID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	exam, err := c.ExamService.GetExam(examID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}
