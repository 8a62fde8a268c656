// Package event は通知の状態変更を表すドメインイベントを定義する。
//
// 既読・未読・削除などの状態遷移が成功した後に生成され、
// 外部のEvent Storeへ追記される。
package event

import (
	"encoding/json"
	"time"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

// AggregateTypeNotificationInbox は受信者単位の通知一覧を表す。
// 一括操作は複数の通知にまたがるため、集約は受信者の受信箱とする。
const AggregateTypeNotificationInbox AggregateType = "NotificationInbox"

// Type はイベントの種類を表す。
type Type string

const (
	// TypeNotificationRead は通知が既読になったことを表す。
	TypeNotificationRead Type = "NotificationRead"
	// TypeNotificationUnread は通知が未読に戻されたことを表す。
	TypeNotificationUnread Type = "NotificationUnread"
	// TypeNotificationUpdated は部分更新で通知の内容が変更されたことを表す。
	TypeNotificationUpdated Type = "NotificationUpdated"
	// TypeNotificationDeleted は通知が削除されたことを表す。
	TypeNotificationDeleted Type = "NotificationDeleted"
)

// Event は永続化される不変のイベントレコード。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// AggregateID は対象集約の識別子。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象集約の種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// StateChangedData は通知の状態遷移イベントのデータ。
type StateChangedData struct {
	// UserID は操作を行った受信者のID。
	UserID string `json:"user_id"`
	// NotificationIDs は変更対象の通知ID。全件操作の場合は空。
	NotificationIDs []int64 `json:"notification_ids,omitempty"`
	// Operation はAPI上の操作名（mark_read, bulk_action など）。
	Operation string `json:"operation"`
	// Count は実際に変更された通知の件数。
	Count int64 `json:"count"`
}
