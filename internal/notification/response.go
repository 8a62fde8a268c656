package notification

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	notificationdb "github.com/nao1215/notifyhub/internal/notification/db"
)

// referenceResponse は参照のJSON表現。
type referenceResponse struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Str  string `json:"str"`
}

// notificationResponse は通知の詳細表示。
type notificationResponse struct {
	ID                int64              `json:"id"`
	Recipient         string             `json:"recipient"`
	RecipientUsername string             `json:"recipient_username"`
	Actor             *referenceResponse `json:"actor"`
	Verb              string             `json:"verb"`
	Description       *string            `json:"description"`
	Target            *referenceResponse `json:"target"`
	ActionObject      *referenceResponse `json:"action_object"`
	Level             string             `json:"level"`
	Unread            bool               `json:"unread"`
	Public            bool               `json:"public"`
	Timestamp         time.Time          `json:"timestamp"`
	// TimestampISO はRFC3339形式の作成日時。
	TimestampISO string `json:"timestamp_iso"`
	// TimeSince は作成からの経過時間。リクエストごとに計算する。
	TimeSince string          `json:"time_since"`
	Data      json.RawMessage `json:"data"`
}

// notificationSummary は一覧用の簡易表示。
type notificationSummary struct {
	ID        int64     `json:"id"`
	ActorStr  *string   `json:"actor_str"`
	Verb      string    `json:"verb"`
	Level     string    `json:"level"`
	Unread    bool      `json:"unread"`
	Timestamp time.Time `json:"timestamp"`
	TimeSince string    `json:"time_since"`
}

// timeSince は経過時間を "3 hours" のような文字列で返す。
func timeSince(ts, now time.Time) string {
	return strings.TrimSpace(humanize.RelTime(ts, now, "", ""))
}

func (r *refRenderer) detail(n notificationdb.Notification, now time.Time) notificationResponse {
	return notificationResponse{
		ID:                n.ID,
		Recipient:         n.Recipient,
		RecipientUsername: r.username(n.Recipient),
		Actor:             r.reference(n.Actor()),
		Verb:              n.Verb,
		Description:       n.Description,
		Target:            r.reference(n.Target()),
		ActionObject:      r.reference(n.ActionObject()),
		Level:             n.Level,
		Unread:            n.Unread,
		Public:            n.Public,
		Timestamp:         n.Timestamp.UTC(),
		TimestampISO:      n.Timestamp.UTC().Format(time.RFC3339),
		TimeSince:         timeSince(n.Timestamp, now),
		Data:              n.DataJSON(),
	}
}

func (r *refRenderer) summary(n notificationdb.Notification, now time.Time) notificationSummary {
	return notificationSummary{
		ID:        n.ID,
		ActorStr:  r.strPtr(n.Actor()),
		Verb:      n.Verb,
		Level:     n.Level,
		Unread:    n.Unread,
		Timestamp: n.Timestamp.UTC(),
		TimeSince: timeSince(n.Timestamp, now),
	}
}

func (r *refRenderer) details(ns []notificationdb.Notification, now time.Time) []notificationResponse {
	out := make([]notificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, r.detail(n, now))
	}
	return out
}

func (r *refRenderer) summaries(ns []notificationdb.Notification, now time.Time) []notificationSummary {
	out := make([]notificationSummary, 0, len(ns))
	for _, n := range ns {
		out = append(out, r.summary(n, now))
	}
	return out
}
