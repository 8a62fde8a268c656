// Package httpclient は他サービスへJSONでHTTP通信を行うクライアントを提供する。
//
// 通知の状態変更イベントをEvent Storeへ追記する際に使用する。
// 呼び出し元のユーザーIDとリクエストIDをヘッダーで伝播する。
package httpclient
