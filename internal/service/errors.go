package service

import (
	"errors"

	"github.com/quiniela/platform/internal/domain"
)

// upstream wraps a store or provider failure unless it already carries a kind.
func upstream(msg string, err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return domain.ErrUpstream(msg, err)
}
