package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Cheertaboi/delivery-order-service/internal/api/middleware"
	"github.com/Cheertaboi/delivery-order-service/internal/service"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service rejections to their status; anything else is a 500
// whose detail stays in the log.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var oe *service.OrderError
	if errors.As(err, &oe) {
		writeJSON(w, oe.HTTPStatus(), errorResponse{Message: oe.Message, Code: oe.Code()})
		return
	}
	log.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error", Code: "internal_error"})
}

func writeBadRequest(w http.ResponseWriter, format string, args ...any) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Message: fmt.Sprintf(format, args...),
		Code:    string(service.KindValidation),
	})
}

// decodeBody reads a single JSON document of bounded size into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}
