package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/modhearth/modhearth/internal/core/registry"
	"github.com/modhearth/modhearth/internal/server/middleware"
)

// errorBody is the JSON error envelope for the dashboard API.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// HandleError maps access-layer failures onto dashboard-facing HTTP
// responses. Upstream credential problems surface as gateway errors
// with reconfiguration guidance; they are never the caller's fault.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	code := "upstream_error"
	message := "the mod registry returned an unexpected response"

	var (
		authErr      *registry.AuthenticationError
		forbiddenErr *registry.ForbiddenError
		notFoundErr  *registry.NotFoundError
		rateErr      *registry.RateLimitError
		timeoutErr   *registry.TimeoutError
		networkErr   *registry.NetworkError
		apiErr       *registry.APIError
		badReqErr    *BadRequestError
	)

	switch {
	case errors.As(err, &badReqErr):
		status = http.StatusBadRequest
		code = "bad_request"
		message = badReqErr.Message
	case errors.As(err, &authErr):
		status = http.StatusBadGateway
		code = "registry_auth"
		message = "the registry rejected the configured API key; reconfigure the credential"
	case errors.As(err, &forbiddenErr):
		status = http.StatusBadGateway
		code = "registry_forbidden"
		message = "the configured API key lacks access to this registry resource; reconfigure the credential"
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
		code = "not_found"
		message = "the requested mod was not found in the registry"
	case errors.As(err, &rateErr):
		status = http.StatusServiceUnavailable
		code = "registry_rate_limited"
		message = "the mod registry is rate limiting requests; try again shortly"
		if rateErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rateErr.RetryAfter.Seconds())))
		}
	case errors.As(err, &timeoutErr):
		status = http.StatusGatewayTimeout
		code = "registry_timeout"
		message = "the mod registry did not respond in time; try again shortly"
	case errors.As(err, &networkErr):
		status = http.StatusBadGateway
		code = "registry_unreachable"
		message = "the mod registry could not be reached; try again shortly"
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
		code = "registry_error"
		message = fmt.Sprintf("the mod registry returned an error (status %d)", apiErr.StatusCode)
	}

	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetRequestID(r.Context()),
	}})
}

// BadRequestError marks a client-side validation failure.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
