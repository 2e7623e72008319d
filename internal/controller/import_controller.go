package controller

import (
	"errors"
	"io"
	"net/http"

	"ielts_edu_backend/internal/importer"
	"ielts_edu_backend/internal/service"
	"ielts_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ImportController struct {
	ImportService  *service.ImportService
	AIService      *service.AIService
	ExtractService *service.ExtractService
	ExportService  *service.ExportService
	MaxUploadMB    int64
}

func NewImportController(importService *service.ImportService, aiService *service.AIService, extractService *service.ExtractService, exportService *service.ExportService, maxUploadMB int64) *ImportController {
	return &ImportController{
		ImportService:  importService,
		AIService:      aiService,
		ExtractService: extractService,
		ExportService:  exportService,
		MaxUploadMB:    maxUploadMB,
	}
}

// limitBody 按配置上限截断 multipart 请求体，超限时 MultipartForm 返回错误
func (c *ImportController) limitBody(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.MaxUploadMB<<20)
}

// ParseRequest 原始文本解析请求
type ParseRequest struct {
	RawText string `json:"raw_text" binding:"required"`
}

// NormalizeRequest AI 规范化请求，prompt 可选，缺省用内置提示词
type NormalizeRequest struct {
	RawText string `json:"raw_text" binding:"required"`
	Prompt  string `json:"prompt"`
}

// UndoRequest 撤销入库请求
type UndoRequest struct {
	QuestionIDs []uint `json:"question_ids" binding:"required"`
}

// Parse godoc
// @Summary 启发式解析阅读原文
// @Description 将粘贴的试卷原始文本解析为结构化草稿，永不报错，解析不出的字段留空
// @Tags 导入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ParseRequest true "原始文本"
// @Success 200 {object} util.Response{data=importer.Paper}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/admin/import/reading/parse [post]
func (c *ImportController) Parse(ctx *gin.Context) {
	var req ParseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, importer.Parse(req.RawText))
}

// Normalize godoc
// @Summary AI 规范化原始文本
// @Description 调用大模型将原始文本转为草稿 JSON，相同输入命中缓存直接返回
// @Tags 导入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body NormalizeRequest true "原始文本与可选提示词"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 502 {object} util.Response "上游 AI 服务不可用"
// @Router /api/admin/import/reading/normalize [post]
func (c *ImportController) Normalize(ctx *gin.Context) {
	var req NormalizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	content, err := c.AIService.Normalize(ctx.Request.Context(), req.RawText, req.Prompt)
	if err != nil {
		util.BadGateway(ctx, err.Error())
		return
	}
	util.Success(ctx, gin.H{"content": content})
}

// Validate godoc
// @Summary 校验阅读草稿
// @Description 对草稿做结构校验，返回全部错误而非首个错误
// @Tags 导入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body importer.Paper true "阅读草稿"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/admin/import/reading/validate [post]
func (c *ImportController) Validate(ctx *gin.Context) {
	var draft importer.Paper
	if err := ctx.ShouldBindJSON(&draft); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	errs := importer.Validate(&draft)
	util.Success(ctx, gin.H{
		"valid":  len(errs) == 0,
		"errors": errs,
	})
}

// Upload godoc
// @Summary 阅读草稿入库
// @Description 校验通过后逐条入库，中途失败自动回滚已插入数据
// @Tags 导入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body importer.Paper true "阅读草稿"
// @Success 201 {object} util.Response{data=service.ImportResult}
// @Failure 400 {object} util.Response "草稿校验失败"
// @Failure 409 {object} util.Response "试卷标题重复"
// @Failure 500 {object} util.Response "入库失败（已回滚）"
// @Router /api/admin/import/reading/upload [post]
func (c *ImportController) Upload(ctx *gin.Context) {
	var draft importer.Paper
	if err := ctx.ShouldBindJSON(&draft); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.ImportService.ImportReading(ctx.Request.Context(), user.UserID, &draft, nil)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrDuplicatePaperTitle):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrDraftInvalid):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, result)
}

// UploadGrid godoc
// @Summary 从表格 CSV 导入阅读草稿
// @Description 接收表格视图导出的 CSV，重建草稿后按正常入库流程处理
// @Tags 导入
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV 文件"
// @Param title formData string true "试卷标题"
// @Param type formData string true "试卷类型 academic | general"
// @Success 201 {object} util.Response{data=service.ImportResult}
// @Failure 400 {object} util.Response "CSV 格式错误或草稿校验失败"
// @Failure 409 {object} util.Response "试卷标题重复"
// @Router /api/admin/import/reading/upload-grid [post]
func (c *ImportController) UploadGrid(ctx *gin.Context) {
	c.limitBody(ctx)
	fh, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	title := ctx.PostForm("title")
	if title == "" {
		util.BadRequest(ctx, "title is required")
		return
	}
	// CSV 列契约里没有试卷级字段，标题和类型随表单带上
	paperType := ctx.PostForm("type")
	if paperType != "academic" && paperType != "general" {
		util.BadRequest(ctx, "type must be academic or general")
		return
	}

	f, err := fh.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer f.Close()

	rows, err := importer.ReadCSV(f)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	draft := importer.FromGrid(rows)
	draft.Title = title
	draft.Type = paperType

	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.ImportService.ImportReading(ctx.Request.Context(), user.UserID, draft, nil)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrDuplicatePaperTitle):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrDraftInvalid):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, result)
}

// Undo godoc
// @Summary 撤销最近一次导入的题目
// @Description 按入库时返回的题目ID列表删除题目，只删题目不动试卷和文章
// @Tags 导入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UndoRequest true "待删除的题目ID列表"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/admin/import/reading/undo [post]
func (c *ImportController) Undo(ctx *gin.Context) {
	var req UndoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ImportService.UndoReadingQuestions(ctx.Request.Context(), req.QuestionIDs); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": len(req.QuestionIDs)})
}

// Extract godoc
// @Summary 从 PDF/图片提取文本
// @Description 多文件顺序提取并拼接，单个文件失败不中断，错误随结果返回
// @Tags 导入
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param files formData file true "PDF 或图片文件，可多个"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "未携带文件"
// @Router /api/admin/import/extract [post]
func (c *ImportController) Extract(ctx *gin.Context) {
	c.limitBody(ctx)
	form, err := ctx.MultipartForm()
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		util.BadRequest(ctx, "no files uploaded")
		return
	}

	text, details := c.ExtractService.ExtractFiles(ctx.Request.Context(), files)
	util.Success(ctx, gin.H{
		"text":  text,
		"files": details,
	})
}

// Export godoc
// @Summary 导出阅读草稿
// @Description 将草稿导出为 json/csv/xlsx 文件下载
// @Tags 导入
// @Accept json
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "导出格式 json|csv|xlsx，默认 json"
// @Param body body importer.Paper true "阅读草稿"
// @Success 200 {file} file
// @Failure 400 {object} util.Response "不支持的格式"
// @Router /api/admin/import/reading/export [post]
func (c *ImportController) Export(ctx *gin.Context) {
	var draft importer.Paper
	if err := ctx.ShouldBindJSON(&draft); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	format := ctx.DefaultQuery("format", "json")
	var write func(io.Writer, *importer.Paper) error
	switch format {
	case "json":
		write = c.ExportService.WriteJSON
	case "csv":
		write = c.ExportService.WriteCSV
	case "xlsx":
		write = c.ExportService.WriteXLSX
	default:
		util.BadRequest(ctx, "unsupported format: "+format)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+service.ExportFilename("reading", format)+`"`)
	ctx.Header("Content-Type", service.ContentType(format))
	if err := write(ctx.Writer, &draft); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
}

// Logs godoc
// @Summary 查询导入日志
// @Tags 导入
// @Produce json
// @Security BearerAuth
// @Param kind query string false "reading | listening，缺省为全部"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /api/admin/import/logs [get]
func (c *ImportController) Logs(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx.Query("page"), ctx.Query("limit"))
	logs, total, err := c.ImportService.ListLogs(ctx.Request.Context(), ctx.Query("kind"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"logs":  logs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}
