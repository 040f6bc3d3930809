package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

var errGone = errors.New("httpx_test: gone")

func respond(t *testing.T, err error) (*http.Response, ProblemDetail) {
	t.Helper()
	rec := httptest.NewRecorder()
	RespondError(rec, err)
	resp := rec.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })
	var detail ProblemDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	return resp, detail
}

func TestRespondErrorUsesRegisteredStatus(t *testing.T) {
	RegisterStatus(errGone, http.StatusGone, "Gone")

	resp, detail := respond(t, fmt.Errorf("%w: row 7", errGone))
	require.Equal(t, http.StatusGone, resp.StatusCode)
	require.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
	require.Equal(t, "Gone", detail.Title)
	require.Contains(t, detail.Detail, "row 7")
}

func TestRespondErrorHidesUnregisteredErrors(t *testing.T) {
	resp, detail := respond(t, errors.New("pq: connection refused"))
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Empty(t, detail.Detail)
}

func TestRespondErrorMapsValidationErrors(t *testing.T) {
	type payload struct {
		Name string `validate:"required"`
	}
	err := validator.New().Struct(payload{})
	require.Error(t, err)

	resp, detail := respond(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Validation Failed", detail.Title)
}
