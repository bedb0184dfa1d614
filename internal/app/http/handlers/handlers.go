package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/config"
	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/app/service"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type Handlers struct {
	Svc         *service.Service
	Cfg         config.Config
	Log         zerolog.Logger
	CatalogSize int
	validate    *validator.Validate
}

func New(svc *service.Service, cfg config.Config, catalogSize int, log zerolog.Logger) *Handlers {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &Handlers{
		Svc:         svc,
		Cfg:         cfg,
		Log:         log,
		CatalogSize: catalogSize,
		validate:    v,
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, map[string]any{
		"error": errorBody{Code: code, Message: message, Details: details},
	})
}

// decode reads a JSON body into dst and validates it. On failure the error
// response has already been written.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "validation_failed", "request validation failed", fieldErrors(verrs))
			return false
		}
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return false
	}
	return true
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		field = strings.TrimPrefix(field, "QuoteOptions.")
		if fe.Param() != "" {
			out[field] = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		} else {
			out[field] = fe.Tag()
		}
	}
	return out
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
