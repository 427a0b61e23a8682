package controller

import (
	"uni_exam_backend/internal/service"
	"uni_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// TeacherController 教师端：考试与题目管理、参考答案维护、复核
type TeacherController struct {
	ExamService *service.ExamService
	Results     *service.ResultsService
	Proctor     *service.ProctorService
	Submission  *service.SubmissionService
}

func NewTeacherController(examService *service.ExamService, results *service.ResultsService, proctor *service.ProctorService, submission *service.SubmissionService) *TeacherController {
	return &TeacherController{
		ExamService: examService,
		Results:     results,
		Proctor:     proctor,
		Submission:  submission,
	}
}

// @Summary 创建考试
// @Tags 教师
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ExamInput true "考试信息"
// @Success 201 {object} util.Response
// @Router /api/teacher/exams [post]
func (c *TeacherController) CreateExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	var input service.ExamInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !input.EndTime.After(input.StartTime) {
		util.BadRequest(ctx, "endTime must be after startTime")
		return
	}

	exam, err := c.ExamService.CreateExam(user.UserID, &input)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, exam)
}

// @Summary 我创建的考试
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/teacher/exams [get]
func (c *TeacherController) MyExams(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	exams, err := c.ExamService.ListByCreator(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, exams)
}

// @Summary 更新考试
// @Tags 教师
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Param body body service.ExamInput true "考试信息"
// @Success 200 {object} util.Response
// @Router /api/teacher/exams/{id} [put]
func (c *TeacherController) UpdateExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	examID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}
	var input service.ExamInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exam, err := c.ExamService.UpdateExam(examID, user.UserID, &input)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// @Summary 删除考试
// @Description 已有报名记录的考试拒绝删除
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/exams/{id} [delete]
func (c *TeacherController) DeleteExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	examID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	if err := c.ExamService.DeleteExam(examID, user.UserID); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// @Summary 调整重考策略
// @Tags 教师
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Param body body object true "{allowRetakes, maxRetakes}"
// @Success 200 {object} util.Response
// @Router /api/teacher/exams/{id}/retake-policy [put]
func (c *TeacherController) SetRetakePolicy(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	examID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}
	var body struct {
		AllowRetakes bool `json:"allowRetakes"`
		MaxRetakes   int  `json:"maxRetakes"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exam, err := c.ExamService.SetRetakePolicy(examID, user.UserID, body.AllowRetakes, body.MaxRetakes)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// @Summary 添加题目
// @Tags 教师
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Param body body service.QuestionInput true "题目"
// @Success 201 {object} util.Response
// @Router /api/teacher/exams/{id}/questions [post]
func (c *TeacherController) AddQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	examID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}
	var input service.QuestionInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.ExamService.AddQuestion(examID, user.UserID, &input)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// @Summary 更新题目
// @Tags 教师
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "题目ID"
// @Param body body service.QuestionInput true "题目"
// @Success 200 {object} util.Response
// @Router /api/teacher/questions/{questionId} [put]
func (c *TeacherController) UpdateQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	questionID, err := util.ParseID(ctx.Param("questionId"))
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}
	var input service.QuestionInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.ExamService.UpdateQuestion(questionID, user.UserID, &input)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// @Summary 删除题目
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/questions/{questionId} [delete]
func (c *TeacherController) DeleteQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	questionID, err := util.ParseID(ctx.Param("questionId"))
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	if err := c.ExamService.DeleteQuestion(questionID, user.UserID); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// @Summary 设置参考答案
// @Tags 教师
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "题目ID"
// @Param body body service.TemplateInput true "参考答案与关键词"
// @Success 200 {object} util.Response
// @Router /api/teacher/questions/{questionId}/template [put]
func (c *TeacherController) SetTemplate(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	questionID, err := util.ParseID(ctx.Param("questionId"))
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}
	var input service.TemplateInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	template, err := c.ExamService.SetTemplate(questionID, user.UserID, &input)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, template)
}

// @Summary 考试的参考答案列表
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/exams/{id}/templates [get]
func (c *TeacherController) Templates(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	examID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	templates, err := c.ExamService.TemplatesByExam(examID, user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, templates)
}

// @Summary 考试统计
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/exams/{id}/stats [get]
func (c *TeacherController) Stats(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	examID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	stats, err := c.ExamService.Stats(examID, user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// @Summary 考试的参与记录
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/exams/{id}/participants [get]
func (c *TeacherController) Participants(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	examID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	participants, err := c.ExamService.Participants(examID, user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, participants)
}

// @Summary 待复核的参与记录
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/exams/{id}/pending-review [get]
func (c *TeacherController) PendingReview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	examID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	attempts, err := c.Results.PendingReview(examID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// @Summary 复核并定稿成绩
// @Description 改判题目分数并把 attempt 推进到 reviewed 终态
// @Tags 教师
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param participantId path int true "参与记录ID"
// @Param body body object true "{adjustments: [{questionId, score}]}"
// @Success 200 {object} util.Response
// @Router /api/teacher/participants/{participantId}/review [post]
func (c *TeacherController) Review(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	participantID, err := util.ParseID(ctx.Param("participantId"))
	if err != nil {
		util.BadRequest(ctx, "invalid participant id")
		return
	}
	var body struct {
		Adjustments []service.ScoreAdjustment `json:"adjustments"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	participant, err := c.Results.Review(participantID, user.UserID, body.Adjustments)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, participant)
}

// @Summary 参与记录的监考事件流水
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param participantId path int true "参与记录ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/participants/{participantId}/events [get]
func (c *TeacherController) ProctorEvents(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	participantID, err := util.ParseID(ctx.Param("participantId"))
	if err != nil {
		util.BadRequest(ctx, "invalid participant id")
		return
	}

	events, err := c.Proctor.Events(participantID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, events)
}

// @Summary 参与记录的答案（教师视角）
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param participantId path int true "参与记录ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/participants/{participantId}/answers [get]
func (c *TeacherController) ParticipantAnswers(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	participantID, err := util.ParseID(ctx.Param("participantId"))
	if err != nil {
		util.BadRequest(ctx, "invalid participant id")
		return
	}

	answers, err := c.Submission.Answers(participantID, user.UserID, user.Role)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, answers)
}
