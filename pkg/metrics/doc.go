// Package metrics はPrometheus形式のメトリクスを提供する。
//
// HTTPリクエスト数やレイテンシ、通知の状態遷移件数を収集し、
// /metrics エンドポイントから公開する。
package metrics
