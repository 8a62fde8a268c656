package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/nao1215/notifyhub/pkg/event"
	"github.com/nao1215/notifyhub/pkg/httpclient"
)

// Publisher は状態遷移のドメインイベントを外部へ送信する。
// 送信の失敗は呼び出し元に返さない。
type Publisher interface {
	Publish(ctx context.Context, eventType event.Type, data event.StateChangedData)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, event.Type, event.StateChangedData) {}

// eventsPath はEvent Storeのイベント追記API。
const eventsPath = "/api/v1/events"

// EventStorePublisher はEvent StoreへHTTPでイベントを追記する Publisher。
type EventStorePublisher struct {
	client *httpclient.Client
	log    *zap.Logger
}

// NewEventStorePublisher は新しいEventStorePublisherを生成する。
func NewEventStorePublisher(client *httpclient.Client, log *zap.Logger) *EventStorePublisher {
	return &EventStorePublisher{client: client, log: log}
}

// Publish はイベントを生成してEvent Storeに送信する。失敗はログに記録するだけ。
func (p *EventStorePublisher) Publish(ctx context.Context, eventType event.Type, data event.StateChangedData) {
	ev, err := event.New(event.InboxAggregateID(data.UserID), event.AggregateTypeNotificationInbox, eventType, data)
	if err != nil {
		p.log.Warn("イベントの生成に失敗しました", zap.String("event_type", string(eventType)), zap.Error(err))
		return
	}

	ctx = httpclient.WithUserID(ctx, data.UserID)
	if err := p.client.PostJSON(ctx, eventsPath, ev, nil); err != nil {
		// イベント送信に失敗しても状態遷移自体は成功として扱う
		p.log.Warn("イベントの送信に失敗しました",
			zap.String("event_id", ev.ID),
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
	}
}
