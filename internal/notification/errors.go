package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	notificationdb "github.com/nao1215/notifyhub/internal/notification/db"
	"github.com/nao1215/notifyhub/pkg/middleware"
)

var (
	// errForbidden は他ユーザーの通知を操作しようとしたことを表す。
	errForbidden = errors.New("この通知を操作する権限がありません")
	// errInvalidPage は存在しないページを要求したことを表す。
	errInvalidPage = errors.New("無効なページです")
)

// ValidationError はリクエストの検証エラー。Fieldsはフィールド名から理由への対応。
type ValidationError struct {
	Fields map[string]string
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for name, reason := range e.Fields {
		parts = append(parts, name+": "+reason)
	}
	return "入力値が不正です: " + strings.Join(parts, ", ")
}

// fail はエラーの種類に応じたHTTPレスポンスを返す。想定外のエラーは500としてログに残す。
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "入力値が不正です", "fields": verr.Fields})
	case errors.Is(err, errInvalidPage):
		c.JSON(http.StatusNotFound, gin.H{"error": errInvalidPage.Error()})
	case errors.Is(err, notificationdb.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notificationdb.ErrNotFound.Error()})
	case errors.Is(err, errForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": errForbidden.Error()})
	case errors.Is(err, notificationdb.ErrMissingScope):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
	default:
		s.log.Error("リクエストの処理に失敗しました",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "内部サーバーエラーが発生しました"})
	}
}

// bindingError はginのバインドエラーをフィールド単位のValidationErrorに変換する。
func bindingError(err error) *ValidationError {
	fields := make(map[string]string)

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			fields[fe.Field()] = validationReason(fe)
		}
	case errors.As(err, &typeErr):
		name := typeErr.Field
		if name == "" {
			name = "body"
		}
		fields[name] = fmt.Sprintf("型が不正です（期待する型: %s）", typeErr.Type)
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		fields["body"] = "JSONとして解釈できません"
	default:
		fields["body"] = err.Error()
	}
	return &ValidationError{Fields: fields}
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必須です"
	case "min":
		return fmt.Sprintf("%s件以上指定してください", fe.Param())
	case "oneof":
		return fmt.Sprintf("%s のいずれかを指定してください", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s の検証に失敗しました", fe.Tag())
	}
}
