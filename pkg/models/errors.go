package models

import (
	"errors"

	apperrors "go-realtone/internal/errors"
)

// NewErrorResponse renders an error for the wire; non-AppErrors become internal errors
func NewErrorResponse(err error) ErrorResponse {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return ErrorResponse{
			Error:   string(appErr.Type),
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}
	return ErrorResponse{
		Error:   string(apperrors.ErrorTypeInternal),
		Message: err.Error(),
	}
}
