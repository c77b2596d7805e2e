package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

// ErrDiscarded is returned when a result arrives after its view was left
var ErrDiscarded = errors.New("result discarded: view is no longer active")

type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	RedirectTo string `json:"redirect_to"`
}

// decodeError turns a non-2xx response into a typed application error
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorBody
	_ = json.Unmarshal(raw, &body)

	message := body.Error
	if message == "" {
		message = body.Message
	}
	if message == "" {
		message = fmt.Sprintf("api returned status %d", resp.StatusCode)
	}

	errType := apperrors.ErrorType(body.Code)
	if errType == "" {
		errType = typeForStatus(resp.StatusCode)
	}
	if errType == apperrors.ErrorTypeTransport {
		return apperrors.NewTransportError(message, fmt.Errorf("status %d", resp.StatusCode))
	}
	return &apperrors.AppError{Type: errType, Message: message, RedirectTo: body.RedirectTo}
}

func typeForStatus(status int) apperrors.ErrorType {
	switch {
	case status == http.StatusBadRequest:
		return apperrors.ErrorTypeValidation
	case status == http.StatusUnauthorized:
		return apperrors.ErrorTypeAuthentication
	case status == http.StatusForbidden:
		return apperrors.ErrorTypeAuthorization
	case status == http.StatusNotFound:
		return apperrors.ErrorTypeNotFound
	case status == http.StatusConflict:
		return apperrors.ErrorTypeConflict
	case status == http.StatusUnprocessableEntity:
		return apperrors.ErrorTypeLocationUnavailable
	case status == http.StatusTooManyRequests:
		return apperrors.ErrorTypeRateLimited
	case status >= http.StatusInternalServerError:
		return apperrors.ErrorTypeTransport
	}
	return apperrors.ErrorTypeInternal
}

// retryable reports whether a read is worth repeating
func retryable(err error) bool {
	return apperrors.IsType(err, apperrors.ErrorTypeTransport)
}
