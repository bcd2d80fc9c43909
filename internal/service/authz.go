package service

import (
	"anoa.com/titlereview/internal/policy"
	"anoa.com/titlereview/pkg/apperror"
)

// authorize maps a policy decision to the error the boundary turns into
// 401 (anonymous) or 403 (authenticated but unprivileged).
func authorize(d policy.Decision) error {
	switch d {
	case policy.Allow:
		return nil
	case policy.DenyAuthRequired:
		return apperror.ErrUnauthorized
	default:
		return apperror.ErrForbidden
	}
}
