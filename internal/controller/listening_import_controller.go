package controller

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"ielts_edu_backend/internal/importer"
	"ielts_edu_backend/internal/service"
	"ielts_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ListeningImportController struct {
	ImportService  *service.ImportService
	StorageService *service.StorageService
}

func NewListeningImportController(importService *service.ImportService, storageService *service.StorageService) *ListeningImportController {
	return &ListeningImportController{
		ImportService:  importService,
		StorageService: storageService,
	}
}

// Parse godoc
// @Summary 启发式解析听力原文
// @Description Section 标记切块，其余规则与阅读解析一致
// @Tags 听力导入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ParseRequest true "原始文本"
// @Success 200 {object} util.Response{data=importer.ListeningTest}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/admin/import/listening/parse [post]
func (c *ListeningImportController) Parse(ctx *gin.Context) {
	var req ParseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, importer.ParseListening(req.RawText))
}

// Validate godoc
// @Summary 校验听力草稿
// @Tags 听力导入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body importer.ListeningTest true "听力草稿"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/admin/import/listening/validate [post]
func (c *ListeningImportController) Validate(ctx *gin.Context) {
	var draft importer.ListeningTest
	if err := ctx.ShouldBindJSON(&draft); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	errs := importer.ValidateListening(&draft)
	util.Success(ctx, gin.H{
		"valid":  len(errs) == 0,
		"errors": errs,
	})
}

// Upload godoc
// @Summary 听力草稿入库
// @Tags 听力导入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body importer.ListeningTest true "听力草稿"
// @Success 201 {object} util.Response{data=service.ImportResult}
// @Failure 400 {object} util.Response "草稿校验失败"
// @Failure 409 {object} util.Response "测试标题重复"
// @Router /api/admin/import/listening/upload [post]
func (c *ListeningImportController) Upload(ctx *gin.Context) {
	var draft importer.ListeningTest
	if err := ctx.ShouldBindJSON(&draft); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.ImportService.ImportListening(ctx.Request.Context(), user.UserID, &draft, nil)
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
// @Summary 撤销最近一次听力导入的题目
// @Tags 听力导入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UndoRequest true "待删除的题目ID列表"
// @Success 200 {object} util.Response
// @Router /api/admin/import/listening/undo [post]
func (c *ListeningImportController) Undo(ctx *gin.Context) {
	var req UndoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ImportService.UndoListeningQuestions(ctx.Request.Context(), req.QuestionIDs); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": len(req.QuestionIDs)})
}

// UploadAudio godoc
// @Summary 上传听力音频
// @Description 音频落盘探测时长后上传存储，成功后更新测试的音频地址与时长
// @Tags 听力导入
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "听力测试ID"
// @Param file formData file true "音频文件 mp3/wav/m4a/ogg"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "文件类型不支持"
// @Router /api/admin/import/listening/{id}/audio [post]
func (c *ListeningImportController) UploadAudio(ctx *gin.Context) {
	testID := util.MustParseUint(ctx.Param("id"))
	if testID == 0 {
		util.BadRequest(ctx, "invalid test id")
		return
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	ext := filepath.Ext(fh.Filename)
	if !util.IsAllowedAudioExt(ext) {
		util.BadRequest(ctx, "unsupported audio format: "+ext)
		return
	}

	// ffprobe 需要本地路径，先落临时文件
	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("listening_%d_%d%s", testID, time.Now().UnixNano(), ext))
	if err := ctx.SaveUploadedFile(fh, tmpPath); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer os.Remove(tmpPath)

	info, err := util.GetAudioInfo(tmpPath)
	if err != nil {
		util.BadRequest(ctx, "cannot probe audio: "+err.Error())
		return
	}

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	objectName := fmt.Sprintf("listening/%d/audio%s", testID, ext)
	url, err := c.StorageService.UploadFile(ctx.Request.Context(), objectName, tmpPath, contentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	if err := c.ImportService.UpdateListeningAudio(ctx.Request.Context(), testID, url, info.Duration); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"audio_url": url,
		"duration":  info.Duration,
	})
}
