package controller

import (
	"errors"

	"ielts_edu_backend/internal/repository"
	"ielts_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PaperController struct {
	ReadingRepo   *repository.ReadingRepository
	ListeningRepo *repository.ListeningRepository
}

func NewPaperController(readingRepo *repository.ReadingRepository, listeningRepo *repository.ListeningRepository) *PaperController {
	return &PaperController{ReadingRepo: readingRepo, ListeningRepo: listeningRepo}
}

// ListReading godoc
// @Summary 阅读试卷列表
// @Tags 试卷
// @Produce json
// @Security BearerAuth
// @Param type query string false "academic | general"
// @Param status query string false "draft | published"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /api/papers/reading [get]
func (c *PaperController) ListReading(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx.Query("page"), ctx.Query("limit"))
	papers, total, err := c.ReadingRepo.ListPapers(ctx.Request.Context(), ctx.Query("type"), ctx.Query("status"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"papers": papers,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetReading godoc
// @Summary 阅读试卷详情
// @Description 返回整卷结构：文章按序号排序，题目按题号排序
// @Tags 试卷
// @Produce json
// @Security BearerAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=model.ReadingPaper}
// @Failure 404 {object} util.Response "试卷不存在"
// @Router /api/papers/reading/{id} [get]
func (c *PaperController) GetReading(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid paper id")
		return
	}

	paper, err := c.ReadingRepo.FindPaperByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, paper)
}

// ListListening godoc
// @Summary 听力测试列表
// @Tags 试卷
// @Produce json
// @Security BearerAuth
// @Param type query string false "测试类型"
// @Param status query string false "draft | published"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /api/papers/listening [get]
func (c *PaperController) ListListening(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx.Query("page"), ctx.Query("limit"))
	tests, total, err := c.ListeningRepo.ListTests(ctx.Request.Context(), ctx.Query("type"), ctx.Query("status"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"tests": tests,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetListening godoc
// @Summary 听力测试详情
// @Tags 试卷
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response{data=model.ListeningTest}
// @Failure 404 {object} util.Response "测试不存在"
// @Router /api/papers/listening/{id} [get]
func (c *PaperController) GetListening(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid test id")
		return
	}

	test, err := c.ListeningRepo.FindTestByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, test)
}
