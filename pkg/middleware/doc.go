// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// JWT認証、リクエストID付与、zapによるアクセスログ、パニックリカバリ、
// CORS、Prometheusメトリクス収集を含む。
package middleware
