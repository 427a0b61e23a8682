package controller

import (
	"errors"
	"net/http"

	"uni_exam_backend/internal/service"
	"uni_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AttemptController 学生端 attempt 生命周期：报名、开考、作答、
// 监考上报、完成与成绩查询
type AttemptController struct {
	Registrar  *service.RegistrarService
	Submission *service.SubmissionService
	Proctor    *service.ProctorService
	Completion *service.CompletionService
	Grading    *service.GradingService
	Results    *service.ResultsService
}

func NewAttemptController(
	registrar *service.RegistrarService,
	submission *service.SubmissionService,
	proctor *service.ProctorService,
	completion *service.CompletionService,
	grading *service.GradingService,
	results *service.ResultsService,
) *AttemptController {
	return &AttemptController{
		Registrar:  registrar,
		Submission: submission,
		Proctor:    proctor,
		Completion: completion,
		Grading:    grading,
		Results:    results,
	}
}

// respondServiceError 把服务层哨兵错误映射为响应码
func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrExamNotFound),
		errors.Is(err, util.ErrAttemptNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrAnswerNotFound),
		errors.Is(err, util.ErrTemplateNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrOngoingAttemptExists),
		errors.Is(err, util.ErrRetakesDisallowed),
		errors.Is(err, util.ErrMaxAttemptsReached),
		errors.Is(err, util.ErrExamHasAttempts):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrExamNotStarted),
		errors.Is(err, util.ErrExamWindowClosed),
		errors.Is(err, util.ErrAttemptNotActive),
		errors.Is(err, util.ErrInvalidTransition),
		errors.Is(err, util.ErrAttemptNotCompleted):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrGradingUnavailable):
		util.ServiceUnavailable(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// @Summary 报名考试
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 201 {object} util.Response
// @Router /api/exams/{id}/register [post]
func (c *AttemptController) Register(ctx *gin.Context) {
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

	result, err := c.Registrar.Register(examID, user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

// @Summary 开始考试
// @Description 把报名记录推进到作答状态并开始计时
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/exams/{id}/start [post]
func (c *AttemptController) Start(ctx *gin.Context) {
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

	participant, err := c.Registrar.Start(examID, user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, participant)
}

// @Summary 名额使用情况
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/exams/{id}/attempts [get]
func (c *AttemptController) AttemptsInfo(ctx *gin.Context) {
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

	info, err := c.Registrar.AttemptsInfo(examID, user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, info)
}

// @Summary 我的考试记录
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/exams/history [get]
func (c *AttemptController) History(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attempts, err := c.Registrar.History(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// @Summary 提交单题答案
// @Description 同一题重复提交覆盖旧答案，临近时限时返回提醒
// @Tags 作答
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "参与记录ID"
// @Param questionId path int true "题目ID"
// @Param body body object true "{content}"
// @Success 200 {object} util.Response
// @Router /api/exams/{id}/answer/{questionId} [post]
func (c *AttemptController) SubmitAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	participantID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid participant id")
		return
	}
	questionID, err := util.ParseID(ctx.Param("questionId"))
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	receipt, err := c.Submission.Submit(participantID, questionID, user.UserID, body.Content)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, receipt)
}

// @Summary 已提交的答案
// @Tags 作答
// @Produce json
// @Security BearerAuth
// @Param participantId path int true "参与记录ID"
// @Success 200 {object} util.Response
// @Router /api/participants/{participantId}/answers [get]
func (c *AttemptController) Answers(ctx *gin.Context) {
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

type proctorEventRequest struct {
	EventID string `json:"eventId"`
}

// @Summary 上报全屏退出违规
// @Description 违规计数自增并重新派生扣分，eventId 用于重试去重
// @Tags 监考
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "参与记录ID"
// @Success 200 {object} util.Response
// @Router /api/exams/{id}/fullscreen-exit [post]
func (c *AttemptController) FullscreenExit(ctx *gin.Context) {
	c.recordProctorEvent(ctx, c.Proctor.RecordFullscreenExit)
}

// @Summary 上报回到全屏
// @Tags 监考
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "参与记录ID"
// @Success 200 {object} util.Response
// @Router /api/exams/{id}/fullscreen-return [post]
func (c *AttemptController) FullscreenReturn(ctx *gin.Context) {
	c.recordProctorEvent(ctx, c.Proctor.RecordFullscreenReturn)
}

// @Summary 上报切屏
// @Tags 监考
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "参与记录ID"
// @Success 200 {object} util.Response
// @Router /api/exams/{id}/tab-switch [post]
func (c *AttemptController) TabSwitch(ctx *gin.Context) {
	c.recordProctorEvent(ctx, c.Proctor.RecordTabSwitch)
}

func (c *AttemptController) recordProctorEvent(ctx *gin.Context, record func(participantID, studentID uint, eventID string) (*service.ViolationState, error)) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	participantID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid participant id")
		return
	}
	var body proctorEventRequest
	// 允许空 body，老客户端不带 eventId
	_ = ctx.ShouldBindJSON(&body)

	state, err := record(participantID, user.UserID, body.EventID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

type completeRequest struct {
	Penalties *service.ClientPenaltyReport `json:"penalties"`
}

// @Summary 完成考试
// @Description 评分、按违规扣分、同步教务系统并落库
// @Tags 考试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "参与记录ID"
// @Success 200 {object} util.Response
// @Router /api/exams/{id}/complete [post]
func (c *AttemptController) Complete(ctx *gin.Context) {
	c.complete(ctx, ctx.Param("id"))
}

// CompleteByParticipant 兼容旧客户端的完成路由，participantId 放在独立段
// @Summary 完成考试（旧路由）
// @Tags 考试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param participantId path int true "参与记录ID"
// @Success 200 {object} util.Response
// @Router /api/participants/{participantId}/complete [post]
func (c *AttemptController) CompleteByParticipant(ctx *gin.Context) {
	c.complete(ctx, ctx.Param("participantId"))
}

func (c *AttemptController) complete(ctx *gin.Context, participantParam string) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	participantID, err := util.ParseID(participantParam)
	if err != nil {
		util.BadRequest(ctx, "invalid participant id")
		return
	}
	var body completeRequest
	_ = ctx.ShouldBindJSON(&body)

	result, err := c.Completion.Complete(participantID, user.UserID, body.Penalties)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

type gradeRequest struct {
	ParticipantID uint   `json:"participantId"`
	Answer        string `json:"answer"`
}

// @Summary 单题评分预览
// @Description 对已提交或随请求携带的答案即时评分，不落库
// @Tags 评分
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/exams/{id}/questions/{questionId}/grade [post]
func (c *AttemptController) GradeAnswer(ctx *gin.Context) {
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
	questionID, err := util.ParseID(ctx.Param("questionId"))
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}
	var body gradeRequest
	// 允许空 body，此时为已提交的答案评分
	_ = ctx.ShouldBindJSON(&body)
	participantID := body.ParticipantID
	if p := ctx.Param("participantId"); p != "" {
		if id, err := util.ParseID(p); err == nil {
			participantID = id
		}
	}

	breakdown, err := c.Grading.GradeSubmitted(examID, participantID, questionID, body.Answer)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, breakdown)
}

// @Summary 查询成绩
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param id path int true "参与记录ID"
// @Success 200 {object} util.Response
// @Router /api/exams/{id}/results [get]
func (c *AttemptController) FetchResults(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	participantID, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid participant id")
		return
	}

	results, err := c.Results.FetchResults(participantID, user.UserID, user.Role)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, results)
}
