package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/repository/metadata"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/server/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Routes(t *testing.T) {
	logging.SetDefaultConfig(logging.GenerateTestConfig(t))
	require.Nil(t, metadata.Init(metadata.GenerateTestConfig()))

	s := New(&Config{Host: "127.0.0.1", Port: 0, DebugMode: true})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test/coffee", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp common.Resp
	require.Nil(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, common.CodeSuccess, resp.Code)
	assert.Equal(t, "success", resp.Msg)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/listrun", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/nothing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
