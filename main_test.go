package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// 未连上 mongo 之前 healthz 必须报 503，负载均衡才会扣住流量。
func TestHealthzNotReadyWithoutMongo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", handlerHealthz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d before mongo is ready", w.Code, http.StatusServiceUnavailable)
	}
}
