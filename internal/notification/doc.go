// Package notification は通知管理APIの内部実装を提供する。
//
// 認証済みユーザーが自分宛ての通知を一覧・絞り込み・ページングし、
// 既読・未読・削除を単体または一括で行う。通知の生成は外部のプロデューサーが担い、
// このパッケージは受信者の立場からの参照と状態遷移だけを扱う。
//
// すべての操作はJWTから得た受信者IDでスコープされる。
// ID指定の操作では、存在しない通知は404、他ユーザーの通知は403として区別する。
package notification
