package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	SendBadRequest(c, "bad id")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error ErrorResponse `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bad id", body.Error.Message)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	SendSuccess(c, http.StatusAccepted, gin.H{"id": 1})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"data": {"id": 1}}`, rec.Body.String())
}
