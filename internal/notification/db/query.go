package notificationdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const notificationColumns = `id, recipient,
	actor_type, actor_id, actor_repr,
	target_type, target_id, target_repr,
	action_object_type, action_object_id, action_object_repr,
	verb, description, level, unread, public, timestamp, data`

// ListNotifications はフィルタに一致する通知を新しい順に取得する。
func (q *Queries) ListNotifications(ctx context.Context, f Filter, limit, offset int) ([]Notification, error) {
	where, args, err := f.where()
	if err != nil {
		return nil, err
	}

	query := "SELECT " + notificationColumns + " FROM notifications WHERE " + where +
		" ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	notifications := []Notification{}
	if err := q.db.SelectContext(ctx, &notifications, q.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗: %w", err)
	}
	return notifications, nil
}

// CountNotifications はフィルタに一致する通知の件数を返す。
func (q *Queries) CountNotifications(ctx context.Context, f Filter) (int64, error) {
	where, args, err := f.where()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := q.db.GetContext(ctx, &count, q.db.Rebind("SELECT COUNT(*) FROM notifications WHERE "+where), args...); err != nil {
		return 0, fmt.Errorf("通知件数の取得に失敗: %w", err)
	}
	return count, nil
}

// InboxVersion は受信者の通知の版数を返す。
// 版数は通知の追加・更新・削除のたびにトリガーで増える。通知が一度も無い受信者は0。
func (q *Queries) InboxVersion(ctx context.Context, recipient string) (int64, error) {
	if recipient == "" {
		return 0, ErrMissingScope
	}

	var version int64
	err := q.db.GetContext(ctx, &version, q.db.Rebind("SELECT version FROM inbox_versions WHERE recipient = ?"), recipient)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("版数の取得に失敗: %w", err)
	}
	return version, nil
}

// GetNotificationByID はIDで通知を取得する。受信者による絞り込みは行わない。
// 所有者の確認は呼び出し側で行う。
func (q *Queries) GetNotificationByID(ctx context.Context, id int64) (Notification, error) {
	return getNotification(ctx, q.db, id)
}

// queryer は *sqlx.DB と *sqlx.Tx の共通部分。
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func getNotification(ctx context.Context, db queryer, id int64) (Notification, error) {
	var n Notification
	query := db.Rebind("SELECT " + notificationColumns + " FROM notifications WHERE id = ?")
	if err := sqlx.GetContext(ctx, db, &n, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, fmt.Errorf("通知の取得に失敗: %w", err)
	}
	return n, nil
}

// SetUnread は受信者の通知1件の既読状態を変更する。
// すでに目的の状態であれば何もせず、戻り値はfalseになる。
func (q *Queries) SetUnread(ctx context.Context, recipient string, id int64, unread bool) (bool, error) {
	if recipient == "" {
		return false, ErrMissingScope
	}
	result, err := q.db.ExecContext(ctx,
		q.db.Rebind("UPDATE notifications SET unread = ? WHERE id = ? AND recipient = ? AND unread <> ?"),
		unread, id, recipient, unread,
	)
	if err != nil {
		return false, fmt.Errorf("既読状態の更新に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	return rows > 0, nil
}

// UpdateNotification は通知を部分更新し、更新後の行を返す。
// 既読状態の変更を先に適用し、その後に他のフィールドを更新する。全体で1トランザクション。
func (q *Queries) UpdateNotification(ctx context.Context, recipient string, id int64, p Patch) (Notification, error) {
	if recipient == "" {
		return Notification{}, ErrMissingScope
	}
	if p.Empty() {
		n, err := q.GetNotificationByID(ctx, id)
		if err != nil {
			return Notification{}, err
		}
		if n.Recipient != recipient {
			return Notification{}, ErrNotFound
		}
		return n, nil
	}

	tx, err := q.db.BeginTxx(ctx, nil)
	if err != nil {
		return Notification{}, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if p.Unread != nil {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind("UPDATE notifications SET unread = ? WHERE id = ? AND recipient = ? AND unread <> ?"),
			*p.Unread, id, recipient, *p.Unread,
		); err != nil {
			return Notification{}, fmt.Errorf("既読状態の更新に失敗: %w", err)
		}
	}

	var sets []string
	var args []any
	if p.Verb != nil {
		sets = append(sets, "verb = ?")
		args = append(args, *p.Verb)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Level != nil {
		sets = append(sets, "level = ?")
		args = append(args, *p.Level)
	}
	if p.Data != nil {
		sets = append(sets, "data = ?")
		if string(p.Data) == "null" {
			args = append(args, nil)
		} else {
			args = append(args, string(p.Data))
		}
	}
	if len(sets) > 0 {
		query := "UPDATE notifications SET " + strings.Join(sets, ", ") + " WHERE id = ? AND recipient = ?"
		args = append(args, id, recipient)
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return Notification{}, fmt.Errorf("通知の更新に失敗: %w", err)
		}
	}

	n, err := getNotification(ctx, tx, id)
	if err != nil {
		return Notification{}, err
	}
	if n.Recipient != recipient {
		return Notification{}, ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return Notification{}, fmt.Errorf("コミットに失敗: %w", err)
	}
	return n, nil
}

// DeleteNotification は受信者の通知1件を削除する。削除した場合にtrueを返す。
func (q *Queries) DeleteNotification(ctx context.Context, recipient string, id int64) (bool, error) {
	if recipient == "" {
		return false, ErrMissingScope
	}
	result, err := q.db.ExecContext(ctx,
		q.db.Rebind("DELETE FROM notifications WHERE id = ? AND recipient = ?"),
		id, recipient,
	)
	if err != nil {
		return false, fmt.Errorf("通知の削除に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return rows > 0, nil
}

// MarkAll はフィルタに一致する通知をまとめて既読または未読にする。
// 状態が実際に変わった件数を返す。
func (q *Queries) MarkAll(ctx context.Context, f Filter, unread bool) (int64, error) {
	where, args, err := f.where()
	if err != nil {
		return 0, err
	}

	query := "UPDATE notifications SET unread = ? WHERE " + where + " AND unread = ?"
	args = append([]any{unread}, args...)
	args = append(args, !unread)

	result, err := q.db.ExecContext(ctx, q.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("一括更新に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	return rows, nil
}

// BulkAction は指定IDのうち受信者が所有する通知にだけ操作を適用する。
// 対象となった通知のIDを昇順で返す。1件も所有していない場合は ErrNotFound。
func (q *Queries) BulkAction(ctx context.Context, recipient string, ids []int64, action BulkAction) ([]int64, error) {
	if recipient == "" {
		return nil, ErrMissingScope
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}

	var stmt string
	var stmtArgs []any
	switch action {
	case BulkMarkRead:
		stmt, stmtArgs = "UPDATE notifications SET unread = ? WHERE recipient = ? AND id IN (?)", []any{false}
	case BulkMarkUnread:
		stmt, stmtArgs = "UPDATE notifications SET unread = ? WHERE recipient = ? AND id IN (?)", []any{true}
	case BulkDelete:
		stmt = "DELETE FROM notifications WHERE recipient = ? AND id IN (?)"
	default:
		return nil, fmt.Errorf("不明な一括操作です: %s", action)
	}

	tx, err := q.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query, args, err := sqlx.In("SELECT id FROM notifications WHERE recipient = ? AND id IN (?) ORDER BY id", recipient, ids)
	if err != nil {
		return nil, fmt.Errorf("クエリの組み立てに失敗: %w", err)
	}
	owned := []int64{}
	if err := tx.SelectContext(ctx, &owned, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("対象通知の取得に失敗: %w", err)
	}
	if len(owned) == 0 {
		return nil, ErrNotFound
	}

	stmtArgs = append(stmtArgs, recipient, owned)
	query, args, err = sqlx.In(stmt, stmtArgs...)
	if err != nil {
		return nil, fmt.Errorf("クエリの組み立てに失敗: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("一括操作に失敗: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return owned, nil
}

// LookupUsernames はユーザーIDからユーザー名への対応をまとめて取得する。
// 存在しないIDは結果に含まれない。
func (q *Queries) LookupUsernames(ctx context.Context, ids []string) (map[string]string, error) {
	usernames := make(map[string]string, len(ids))
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return usernames, nil
	}

	query, args, err := sqlx.In("SELECT id, username FROM users WHERE id IN (?)", unique)
	if err != nil {
		return nil, fmt.Errorf("クエリの組み立てに失敗: %w", err)
	}
	var rows []struct {
		ID       string `db:"id"`
		Username string `db:"username"`
	}
	if err := q.db.SelectContext(ctx, &rows, q.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("ユーザー名の取得に失敗: %w", err)
	}
	for _, r := range rows {
		usernames[r.ID] = r.Username
	}
	return usernames, nil
}

// CreateNotification は通知を1件作成し、採番されたIDを返す。
func (q *Queries) CreateNotification(ctx context.Context, p CreateNotificationParams) (int64, error) {
	if p.Recipient == "" {
		return 0, ErrMissingScope
	}
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	level := p.Level
	if level == "" {
		level = "info"
	}
	var data any
	if p.Data != nil && string(p.Data) != "null" {
		data = string(p.Data)
	}

	actorType, actorID, actorRepr := referenceColumns(p.Actor)
	targetType, targetID, targetRepr := referenceColumns(p.Target)
	objType, objID, objRepr := referenceColumns(p.ActionObject)

	var id int64
	err := q.db.GetContext(ctx, &id, q.db.Rebind(`
		INSERT INTO notifications (
			recipient,
			actor_type, actor_id, actor_repr,
			target_type, target_id, target_repr,
			action_object_type, action_object_id, action_object_repr,
			verb, description, level, unread, public, timestamp, data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		p.Recipient,
		actorType, actorID, actorRepr,
		targetType, targetID, targetRepr,
		objType, objID, objRepr,
		p.Verb, nullString(p.Description), level, p.Unread, p.Public, ts.UTC(), data,
	)
	if err != nil {
		return 0, fmt.Errorf("通知の作成に失敗: %w", err)
	}
	return id, nil
}

// UpsertUser はユーザー名を登録または更新する。
func (q *Queries) UpsertUser(ctx context.Context, id, username string) error {
	_, err := q.db.ExecContext(ctx, q.db.Rebind(`
		INSERT INTO users (id, username) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET username = excluded.username`),
		id, username,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの登録に失敗: %w", err)
	}
	return nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func referenceColumns(ref *Reference) (typ, id, repr any) {
	if ref == nil {
		return nil, nil, nil
	}
	return ref.Type, ref.ID, ref.Repr
}
