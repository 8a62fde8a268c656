package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	notificationdb "github.com/nao1215/notifyhub/internal/notification/db"
	"github.com/nao1215/notifyhub/pkg/event"
	"github.com/nao1215/notifyhub/pkg/httpclient"
	"github.com/nao1215/notifyhub/pkg/middleware"
)

// requireUser は認証済みユーザーIDを返す。取得できない場合は401を返してfalse。
func requireUser(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
		return "", false
	}
	return userID, true
}

// loadOwned はパスのIDで通知を取得し、所有者を確認する。
// 存在しない場合は404、他ユーザーの通知は403を返してfalse。
func (s *Server) loadOwned(c *gin.Context, userID string) (notificationdb.Notification, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.fail(c, notificationdb.ErrNotFound)
		return notificationdb.Notification{}, false
	}

	n, err := s.queries.GetNotificationByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return notificationdb.Notification{}, false
	}
	if n.Recipient != userID {
		s.fail(c, errForbidden)
		return notificationdb.Notification{}, false
	}
	return n, true
}

// changed は状態遷移の後処理（メトリクス、イベント送信）を行う。
// 未読件数キャッシュは版数で管理するため、ここでは破棄しない。
func (s *Server) changed(c *gin.Context, eventType event.Type, operation, userID string, ids []int64, count int64) {
	ctx := c.Request.Context()
	s.metrics.ObserveTransition(operation, count)
	s.publisher.Publish(httpclient.WithRequestID(ctx, middleware.GetRequestID(c)), eventType, event.StateChangedData{
		UserID:          userID,
		NotificationIDs: ids,
		Operation:       operation,
		Count:           count,
	})
}

// handleList は絞り込み・ページングした通知一覧を簡易表示で返すハンドラ。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		p, err := s.paginate(c, parseFilter(c, userID))
		if err != nil {
			s.fail(c, err)
			return
		}
		r, err := s.newRefRenderer(c.Request.Context(), p.rows)
		if err != nil {
			s.fail(c, err)
			return
		}

		c.JSON(http.StatusOK, newPageResponse(c, p, r.summaries(p.rows, s.now())))
	}
}

// handleListUnread は未読通知の一覧を詳細表示で返すハンドラ。
// unread_onlyの指定は無視し、常に未読のみを返す。
func (s *Server) handleListUnread() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		p, err := s.paginate(c, parseFilter(c, userID).WithUnread(true))
		if err != nil {
			s.fail(c, err)
			return
		}
		r, err := s.newRefRenderer(c.Request.Context(), p.rows)
		if err != nil {
			s.fail(c, err)
			return
		}

		c.JSON(http.StatusOK, newPageResponse(c, p, r.details(p.rows, s.now())))
	}
}

// handleUnreadCount は未読件数を返すハンドラ。
// 絞り込みが無い場合だけ、受信者の通知の版数をキーにキャッシュを使う。
func (s *Server) handleUnreadCount() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		f := parseFilter(c, userID).WithUnread(true)
		if f.Level != "" || f.Verb != "" {
			count, err := s.queries.CountNotifications(ctx, f)
			if err != nil {
				s.fail(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"unread_count": count})
			return
		}

		// 版数は件数より先に読む。間に変更が入っても、保存した件数は古い版のキーに残るだけ。
		version, err := s.queries.InboxVersion(ctx, userID)
		if err != nil {
			s.fail(c, err)
			return
		}
		if count, hit := s.cache.Get(ctx, userID, version); hit {
			c.JSON(http.StatusOK, gin.H{"unread_count": count})
			return
		}

		count, err := s.queries.CountNotifications(ctx, f)
		if err != nil {
			s.fail(c, err)
			return
		}
		s.cache.Set(ctx, userID, version, count)

		c.JSON(http.StatusOK, gin.H{"unread_count": count})
	}
}

// handleGet は通知1件を詳細表示で返すハンドラ。
func (s *Server) handleGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		n, ok := s.loadOwned(c, userID)
		if !ok {
			return
		}
		s.respondDetail(c, n)
	}
}

func (s *Server) respondDetail(c *gin.Context, n notificationdb.Notification) {
	r, err := s.newRefRenderer(c.Request.Context(), []notificationdb.Notification{n})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r.detail(n, s.now()))
}

// patchRequest は部分更新リクエストのJSON構造。ここに無いフィールドは無視する。
type patchRequest struct {
	Unread      *bool           `json:"unread"`
	Verb        *string         `json:"verb"`
	Description *string         `json:"description"`
	Level       *string         `json:"level"`
	Data        json.RawMessage `json:"data"`
}

// toPatch はリクエストを検証してストアの更新内容に変換する。
func (req patchRequest) toPatch() (notificationdb.Patch, error) {
	fields := make(map[string]string)
	if req.Verb != nil && *req.Verb == "" {
		fields["verb"] = "空にはできません"
	}
	if req.Level != nil && !Level(*req.Level).Valid() {
		fields["level"] = "info, success, warning, error のいずれかを指定してください"
	}
	if req.Data != nil && string(req.Data) != "null" {
		var obj map[string]any
		if err := json.Unmarshal(req.Data, &obj); err != nil {
			fields["data"] = "JSONオブジェクトを指定してください"
		}
	}
	if len(fields) > 0 {
		return notificationdb.Patch{}, &ValidationError{Fields: fields}
	}
	return notificationdb.Patch{
		Unread:      req.Unread,
		Verb:        req.Verb,
		Description: req.Description,
		Level:       req.Level,
		Data:        req.Data,
	}, nil
}

// handleUpdate は通知を部分更新するハンドラ。既読状態の変更を先に適用する。
func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		n, ok := s.loadOwned(c, userID)
		if !ok {
			return
		}

		// 空のボディは変更なしとして扱う
		var req patchRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			s.fail(c, bindingError(err))
			return
		}
		patch, err := req.toPatch()
		if err != nil {
			s.fail(c, err)
			return
		}

		updated, err := s.queries.UpdateNotification(c.Request.Context(), userID, n.ID, patch)
		if err != nil {
			s.fail(c, err)
			return
		}

		if !sameContent(n, updated) {
			eventType, operation := event.TypeNotificationUpdated, "update"
			if updated.Unread != n.Unread {
				eventType, operation = transitionEvent(updated.Unread)
			}
			s.changed(c, eventType, operation, userID, []int64{n.ID}, 1)
		}

		s.respondDetail(c, updated)
	}
}

// sameContent は更新可能なフィールドがすべて等しい場合にtrueを返す。
func sameContent(a, b notificationdb.Notification) bool {
	return a.Unread == b.Unread &&
		a.Verb == b.Verb &&
		a.Level == b.Level &&
		equalStrPtr(a.Description, b.Description) &&
		equalStrPtr(a.Data, b.Data)
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// transitionEvent は遷移先の既読状態に対応するイベント種別と操作名を返す。
func transitionEvent(unread bool) (event.Type, string) {
	if unread {
		return event.TypeNotificationUnread, "mark_unread"
	}
	return event.TypeNotificationRead, "mark_read"
}

// handleDelete は通知を削除するハンドラ。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		n, ok := s.loadOwned(c, userID)
		if !ok {
			return
		}

		deleted, err := s.queries.DeleteNotification(c.Request.Context(), userID, n.ID)
		if err != nil {
			s.fail(c, err)
			return
		}
		if deleted {
			s.changed(c, event.TypeNotificationDeleted, "delete", userID, []int64{n.ID}, 1)
		}

		c.Status(http.StatusNoContent)
	}
}

// handleMark は通知1件を既読または未読にするハンドラ。すでにその状態なら何もしない。
func (s *Server) handleMark(unread bool) gin.HandlerFunc {
	message := "通知を既読にしました"
	if unread {
		message = "通知を未読にしました"
	}

	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		n, ok := s.loadOwned(c, userID)
		if !ok {
			return
		}

		changed, err := s.queries.SetUnread(c.Request.Context(), userID, n.ID, unread)
		if err != nil {
			s.fail(c, err)
			return
		}
		if changed {
			eventType, operation := transitionEvent(unread)
			s.changed(c, eventType, operation, userID, []int64{n.ID}, 1)
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
	}
}

// handleMarkAll は絞り込み条件に一致する通知をまとめて既読または未読にするハンドラ。
// 実際に状態が変わった件数を返す。
func (s *Server) handleMarkAll(unread bool) gin.HandlerFunc {
	format := "%d件の通知を既読にしました"
	if unread {
		format = "%d件の通知を未読にしました"
	}

	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		count, err := s.queries.MarkAll(c.Request.Context(), parseFilter(c, userID), unread)
		if err != nil {
			s.fail(c, err)
			return
		}
		if count > 0 {
			eventType, operation := transitionEvent(unread)
			s.changed(c, eventType, operation+"_all", userID, nil, count)
		}

		c.JSON(http.StatusOK, gin.H{
			"message":      fmt.Sprintf(format, count),
			"marked_count": count,
		})
	}
}

// bulkActionRequest は一括操作リクエストのJSON構造。
type bulkActionRequest struct {
	NotificationIDs []int64 `json:"notification_ids" binding:"required,min=1"`
	Action          string  `json:"action" binding:"required,oneof=mark_read mark_unread delete"`
}

// handleBulkAction は指定IDのうち自分の通知にだけ操作を適用するハンドラ。
// 自分の通知が1件も含まれない場合は404。
func (s *Server) handleBulkAction() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req bulkActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.fail(c, bindingError(err))
			return
		}

		action := notificationdb.BulkAction(req.Action)
		affected, err := s.queries.BulkAction(c.Request.Context(), userID, req.NotificationIDs, action)
		if err != nil {
			s.fail(c, err)
			return
		}

		count := int64(len(affected))
		var eventType event.Type
		var message string
		switch action {
		case notificationdb.BulkMarkRead:
			eventType, message = event.TypeNotificationRead, fmt.Sprintf("%d件の通知を既読にしました", count)
		case notificationdb.BulkMarkUnread:
			eventType, message = event.TypeNotificationUnread, fmt.Sprintf("%d件の通知を未読にしました", count)
		case notificationdb.BulkDelete:
			eventType, message = event.TypeNotificationDeleted, fmt.Sprintf("%d件の通知を削除しました", count)
		}
		s.changed(c, eventType, "bulk_"+req.Action, userID, affected, count)

		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"message":        message,
			"affected_count": count,
		})
	}
}

// handleLevels は重要度の一覧を返すハンドラ。
func (s *Server) handleLevels() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"levels": levelResponses()})
	}
}
