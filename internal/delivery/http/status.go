package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/democratize-technology/open-food-facts/internal/apierr"
)

// kindStatus maps error kinds to HTTP status codes. API failures pass
// the upstream status through instead.
var kindStatus = map[apierr.Kind]int{
	apierr.TypeMismatch:        http.StatusBadRequest,
	apierr.FormatInvalid:       http.StatusBadRequest,
	apierr.MissingInput:        http.StatusBadRequest,
	apierr.SizeExceeded:        http.StatusRequestEntityTooLarge,
	apierr.ContentMismatch:     http.StatusUnsupportedMediaType,
	apierr.InsecureTransport:   http.StatusInternalServerError,
	apierr.CredentialsRequired: http.StatusServiceUnavailable,
	apierr.Network:             http.StatusBadGateway,
	apierr.InvalidResponse:     http.StatusBadGateway,
}

// writeError renders a structured failure as a JSON response, keeping
// the kind and exact message visible to callers.
func writeError(c *gin.Context, err error) {
	kind := apierr.KindOf(err)

	status := http.StatusInternalServerError
	if kind == apierr.API {
		status = apierr.StatusOf(err)
		if status == 0 {
			status = http.StatusBadGateway
		}
	} else if s, ok := kindStatus[kind]; ok {
		status = s
	}

	body := gin.H{"error": err.Error()}
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		body = gin.H{"kind": string(apiErr.Kind), "message": apiErr.Message}
		if apiErr.Detail != "" {
			body["detail"] = apiErr.Detail
		}
		if apiErr.StatusCode != 0 {
			body["status"] = apiErr.StatusCode
		}
	}
	c.JSON(status, body)
}
