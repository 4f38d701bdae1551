package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"property-listing/internal/domain"
	apperrors "property-listing/pkg/errors"
)

// Models AutoMigrate 用
func Models() []any {
	return []any{&domain.User{}, &domain.Property{}, &domain.FavoriteMark{}}
}

// mapErr 把 gorm/驱动错误翻译成业务码
func mapErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, err, what+" not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.CodeRemoteUnavailable, err, what)
	case isDupKey(err):
		return apperrors.Wrap(apperrors.CodeConflict, err, what+" already exists")
	}
	return apperrors.Wrap(apperrors.CodeInternal, err, what)
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 没开 TranslateError 时只能看文本
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
