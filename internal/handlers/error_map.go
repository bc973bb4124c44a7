package handlers

import (
	"net/http"

	"bakery-system/internal/apperror"
	"bakery-system/internal/logger"
)

func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error, internalMessage string) {
	status := 0
	switch {
	case apperror.Is(err, apperror.KindNotFound):
		status = http.StatusNotFound
	case apperror.Is(err, apperror.KindValidation):
		status = http.StatusBadRequest
	case apperror.Is(err, apperror.KindConflict):
		status = http.StatusConflict
	default:
		if log != nil {
			log.WithError(err).Error(internalMessage)
		}
		writeErrorResponse(w, http.StatusInternalServerError, internalMessage)
		return
	}

	writeJSONResponse(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
		Code:    apperror.CodeOf(err),
	})
}
