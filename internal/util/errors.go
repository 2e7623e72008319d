package util

import "errors"

var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrEmailRegistered     = errors.New("该邮箱已被注册")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrDuplicatePaperTitle = errors.New("paper title already exists")
	ErrDraftInvalid        = errors.New("draft failed validation")
	ErrExtraction          = errors.New("extraction failed")
	ErrPaperNotFound       = errors.New("paper not found")
)
