package application

import (
	"github.com/wms-platform/putwall-service/internal/domain"
	"github.com/wms-platform/putwall-service/pkg/errors"
)

// ErrorRules map domain errors to API errors. Order matters: capacity and
// concurrency are checked before the broader state and argument errors.
func ErrorRules() []errors.Rule {
	return []errors.Rule{
		{Target: domain.ErrCapacityExceeded, Build: func(err error) *errors.AppError {
			return errors.ErrCapacityExceeded(err.Error())
		}},
		{Target: domain.ErrConcurrentModification, Build: func(error) *errors.AppError {
			return errors.ErrConflict("put wall was modified concurrently, retry the request")
		}},
		{Target: domain.ErrNotFound, Build: func(err error) *errors.AppError {
			return errors.NewAppError(errors.CodeNotFound, err.Error(), 404)
		}},
		{Target: domain.ErrInvalidState, Build: func(err error) *errors.AppError {
			return errors.ErrInvalidState(err.Error())
		}},
		{Target: domain.ErrInvalidArgument, Build: func(err error) *errors.AppError {
			return errors.ErrValidation(err.Error())
		}},
	}
}

// ToAppError maps err with ErrorRules
func ToAppError(err error) *errors.AppError {
	return errors.Map(err, ErrorRules()...)
}
