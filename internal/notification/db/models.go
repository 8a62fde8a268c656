package notificationdb

import (
	"encoding/json"
	"time"
)

// Notification は通知テーブルの1行。
type Notification struct {
	ID        int64  `db:"id"`
	Recipient string `db:"recipient"`

	ActorType *string `db:"actor_type"`
	ActorID   *string `db:"actor_id"`
	ActorRepr *string `db:"actor_repr"`

	TargetType *string `db:"target_type"`
	TargetID   *string `db:"target_id"`
	TargetRepr *string `db:"target_repr"`

	ActionObjectType *string `db:"action_object_type"`
	ActionObjectID   *string `db:"action_object_id"`
	ActionObjectRepr *string `db:"action_object_repr"`

	Verb        string    `db:"verb"`
	Description *string   `db:"description"`
	Level       string    `db:"level"`
	Unread      bool      `db:"unread"`
	Public      bool      `db:"public"`
	Timestamp   time.Time `db:"timestamp"`
	Data        *string   `db:"data"`
}

// Reference は任意の種類のエンティティへの参照（型タグ、ID、表示用文字列のキャッシュ）。
type Reference struct {
	Type string
	ID   string
	Repr string
}

// Actor は通知の発生元への参照を返す。未設定の場合はnil。
func (n *Notification) Actor() *Reference {
	return newReference(n.ActorType, n.ActorID, n.ActorRepr)
}

// Target は通知の対象への参照を返す。未設定の場合はnil。
func (n *Notification) Target() *Reference {
	return newReference(n.TargetType, n.TargetID, n.TargetRepr)
}

// ActionObject は操作で生成・変更されたオブジェクトへの参照を返す。未設定の場合はnil。
func (n *Notification) ActionObject() *Reference {
	return newReference(n.ActionObjectType, n.ActionObjectID, n.ActionObjectRepr)
}

// DataJSON はdata列をJSONとして返す。未設定の場合はnil。
func (n *Notification) DataJSON() json.RawMessage {
	if n.Data == nil || *n.Data == "" {
		return nil
	}
	return json.RawMessage(*n.Data)
}

func newReference(typ, id, repr *string) *Reference {
	if typ == nil || id == nil {
		return nil
	}
	ref := &Reference{Type: *typ, ID: *id}
	if repr != nil {
		ref.Repr = *repr
	}
	return ref
}

// BulkAction は一括操作の種類。
type BulkAction string

const (
	// BulkMarkRead は既読化。
	BulkMarkRead BulkAction = "mark_read"
	// BulkMarkUnread は未読化。
	BulkMarkUnread BulkAction = "mark_unread"
	// BulkDelete は削除。
	BulkDelete BulkAction = "delete"
)

// Patch は部分更新の内容。nilのフィールドは変更しない。
type Patch struct {
	Unread      *bool
	Verb        *string
	Description *string
	Level       *string
	// Data はJSON値。nilは変更なし、"null" はNULLに設定する。
	Data json.RawMessage
}

// Empty は変更内容が無い場合にtrueを返す。
func (p Patch) Empty() bool {
	return p.Unread == nil && p.Verb == nil && p.Description == nil && p.Level == nil && p.Data == nil
}

// CreateNotificationParams は通知作成時のパラメータ。
// 通知の生成は外部のプロデューサーが担うため、主にプロデューサー側とテストから使用する。
type CreateNotificationParams struct {
	Recipient    string
	Actor        *Reference
	Target       *Reference
	ActionObject *Reference
	Verb         string
	Description  *string
	Level        string
	Unread       bool
	Public       bool
	// Timestamp がゼロ値の場合は現在時刻を使う。
	Timestamp time.Time
	Data      json.RawMessage
}
