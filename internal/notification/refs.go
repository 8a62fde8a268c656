package notification

import (
	"context"
	"fmt"

	notificationdb "github.com/nao1215/notifyhub/internal/notification/db"
)

// userRefType はユーザーを指す参照の型タグ。
const userRefType = "user"

// Resolver は特定の型タグを持つ参照の表示用文字列を解決する。
type Resolver interface {
	// DisplayName はレスポンスのtypeに表示する名前。
	DisplayName() string
	// Resolve はIDから表示用文字列への対応をまとめて返す。
	// 結果に含まれないIDはキャッシュ済みの表示用文字列で代替する。
	Resolve(ctx context.Context, ids []string) (map[string]string, error)
}

// Resolvers は型タグから Resolver への対応。
type Resolvers map[string]Resolver

// userResolver はユーザー名をusersテーブルから解決する。
type userResolver struct {
	queries *notificationdb.Queries
}

func (userResolver) DisplayName() string { return "User" }

func (r userResolver) Resolve(ctx context.Context, ids []string) (map[string]string, error) {
	return r.queries.LookupUsernames(ctx, ids)
}

// refRenderer は1レスポンス分の参照をまとめて解決した結果を保持する。
// 型ごとに1回だけ問い合わせるため、行ごとのクエリは発生しない。
type refRenderer struct {
	resolvers Resolvers
	labels    map[string]map[string]string
}

// newRefRenderer は通知群に含まれる参照と受信者を型ごとに集めて解決する。
func (s *Server) newRefRenderer(ctx context.Context, notifications []notificationdb.Notification) (*refRenderer, error) {
	ids := make(map[string][]string)
	add := func(ref *notificationdb.Reference) {
		if ref != nil {
			ids[ref.Type] = append(ids[ref.Type], ref.ID)
		}
	}
	for i := range notifications {
		n := &notifications[i]
		ids[userRefType] = append(ids[userRefType], n.Recipient)
		add(n.Actor())
		add(n.Target())
		add(n.ActionObject())
	}

	r := &refRenderer{resolvers: s.resolvers, labels: make(map[string]map[string]string, len(ids))}
	for typ, typIDs := range ids {
		resolver, ok := s.resolvers[typ]
		if !ok {
			continue
		}
		labels, err := resolver.Resolve(ctx, typIDs)
		if err != nil {
			return nil, fmt.Errorf("参照 %s の解決に失敗: %w", typ, err)
		}
		r.labels[typ] = labels
	}
	return r, nil
}

// reference は参照をレスポンス形式に変換する。未設定の場合はnil。
func (r *refRenderer) reference(ref *notificationdb.Reference) *referenceResponse {
	if ref == nil {
		return nil
	}
	return &referenceResponse{
		ID:   ref.ID,
		Type: r.typeName(ref.Type),
		Str:  r.str(ref),
	}
}

// strPtr は参照の表示用文字列を返す。未設定の場合はnil。
func (r *refRenderer) strPtr(ref *notificationdb.Reference) *string {
	if ref == nil {
		return nil
	}
	s := r.str(ref)
	return &s
}

func (r *refRenderer) str(ref *notificationdb.Reference) string {
	if label, ok := r.labels[ref.Type][ref.ID]; ok {
		return label
	}
	return ref.Repr
}

func (r *refRenderer) typeName(typ string) string {
	if resolver, ok := r.resolvers[typ]; ok {
		return resolver.DisplayName()
	}
	return typ
}

// username は受信者のユーザー名を返す。登録されていない場合は空文字列。
func (r *refRenderer) username(userID string) string {
	return r.labels[userRefType][userID]
}
