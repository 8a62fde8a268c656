package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestAccessLog はステータスコードに応じたログレベルを検証する。
func TestAccessLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
	}{
		{name: "2xxはinfo", status: http.StatusOK, wantLevel: zapcore.InfoLevel},
		{name: "4xxはwarn", status: http.StatusNotFound, wantLevel: zapcore.WarnLevel},
		{name: "5xxはerror", status: http.StatusInternalServerError, wantLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			router := gin.New()
			router.Use(RequestID(), AccessLog(zap.New(core)))
			router.GET("/test", func(c *gin.Context) {
				c.Set(contextKeyUserID, "user-1")
				c.Status(tt.status)
			})

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test?page=2", nil))

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("ログ件数 = %d, want 1", len(entries))
			}
			if entries[0].Level != tt.wantLevel {
				t.Errorf("Level = %v, want %v", entries[0].Level, tt.wantLevel)
			}
			fields := entries[0].ContextMap()
			if fields["query"] != "page=2" {
				t.Errorf("query = %v, want page=2", fields["query"])
			}
			if fields["user_id"] != "user-1" {
				t.Errorf("user_id = %v, want user-1", fields["user_id"])
			}
			if fields["status"] != int64(tt.status) {
				t.Errorf("status = %v, want %d", fields["status"], tt.status)
			}
		})
	}
}
