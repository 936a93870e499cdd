package common

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestOperationError_MatchesKindAndCause(t *testing.T) {
	cause := errors.New("smtp: connection refused")
	err := Wrap("deliver invoice", ErrDeliveryFailure, cause)

	assert.ErrorIs(t, err, ErrDeliveryFailure)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRenderFailure)
	assert.Equal(t, "deliver invoice: delivery failure: smtp: connection refused", err.Error())
}

func TestWrap_NilError(t *testing.T) {
	assert.NoError(t, Wrap("noop", ErrNotFound, nil))
}

func TestInvalidState_Message(t *testing.T) {
	err := InvalidState("scheduled invoice %s is %s", "abc", "executed")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "is executed")
}

func TestValidationError_IsValidation(t *testing.T) {
	err := Validation("email", "is required")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "email: is required", err.Error())
}

func TestSendServiceError_StatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", NotFound("firm"), http.StatusNotFound},
		{"invalid state", InvalidState("invoice is paid"), http.StatusConflict},
		{"validation", Validation("num_users", "must be positive"), http.StatusBadRequest},
		{"delivery", Wrap("deliver", ErrDeliveryFailure, errors.New("boom")), http.StatusBadGateway},
		{"other", errors.New("db down"), http.StatusInternalServerError},
	}

	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			assert.NoError(t, SendServiceError(c, "firm", tc.err))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-01", "schedule_date")
	assert.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, 1, d.Day())

	_, err = ParseDate("01/03/2026", "schedule_date")
	assert.ErrorIs(t, err, ErrValidation)
}
