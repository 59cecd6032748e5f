package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessResponse(t *testing.T) {
	result := map[string]int{"remaining": 9}
	resp := SuccessResponse(result)

	assert.True(t, resp.Success)
	assert.Equal(t, result, resp.Result)
	assert.Empty(t, resp.Errors)
	assert.Empty(t, resp.Messages)
}

func TestErrorResponse(t *testing.T) {
	resp := ErrorResponse(9429, "daily edit limit reached")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Result)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 9429, resp.Errors[0].Code)
	assert.Equal(t, "daily edit limit reached", resp.Errors[0].Message)
	assert.Nil(t, resp.Errors[0].Source)
	assert.Empty(t, resp.Messages)
}

func TestFieldErrorsResponse(t *testing.T) {
	resp := FieldErrorsResponse(9400, map[string]string{"/days": "must be at least 1"})

	assert.False(t, resp.Success)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "must be at least 1", resp.Errors[0].Message)
	require.NotNil(t, resp.Errors[0].Source)
	assert.Equal(t, "/days", resp.Errors[0].Source.Pointer)
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, SuccessResponse(map[string]string{"hello": "world"}))

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var decoded Response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&decoded))
	assert.True(t, decoded.Success)
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		code   int
	}{
		{"BadRequest", func(w http.ResponseWriter) { BadRequest(w, "x") }, http.StatusBadRequest, 9400},
		{"Unauthorized", Unauthorized, http.StatusUnauthorized, 9401},
		{"Forbidden", func(w http.ResponseWriter) { Forbidden(w, "x") }, http.StatusForbidden, 9403},
		{"NotFound", func(w http.ResponseWriter) { NotFound(w, "x") }, http.StatusNotFound, 9404},
		{"Conflict", func(w http.ResponseWriter) { Conflict(w, "x") }, http.StatusConflict, 9409},
		{"TooLarge", func(w http.ResponseWriter) { TooLarge(w, "x") }, http.StatusRequestEntityTooLarge, 9413},
		{"UnsupportedMediaType", func(w http.ResponseWriter) { UnsupportedMediaType(w, "x") }, http.StatusUnsupportedMediaType, 9415},
		{"UnprocessableEntity", func(w http.ResponseWriter) { UnprocessableEntity(w, "x") }, http.StatusUnprocessableEntity, 9422},
		{"TooManyRequests", func(w http.ResponseWriter) { TooManyRequests(w, "x") }, http.StatusTooManyRequests, 9429},
		{"InternalError", InternalError, http.StatusInternalServerError, 9500},
		{"ServiceUnavailable", func(w http.ResponseWriter) { ServiceUnavailable(w, "x") }, http.StatusServiceUnavailable, 9503},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			assert.Equal(t, tt.status, w.Code)

			var resp Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.False(t, resp.Success)
			require.Len(t, resp.Errors, 1)
			assert.Equal(t, tt.code, resp.Errors[0].Code)
		})
	}
}

func TestErrorResponseJSONStructure(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusUnauthorized, ErrorResponse(9401, "Authentication required"))

	var raw map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&raw))

	assert.Nil(t, raw["result"])
	assert.Equal(t, false, raw["success"])

	errs, ok := raw["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, errs, 1)

	errObj, ok := errs[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(9401), errObj["code"])
	assert.Equal(t, "Authentication required", errObj["message"])
	_, hasSource := errObj["source"]
	assert.False(t, hasSource)
}
