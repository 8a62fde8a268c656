// Package logger はzapベースの構造化ロガーを提供する。
//
// 本番環境ではJSON形式、開発環境では人間が読みやすいコンソール形式で出力する。
// 標準のlogパッケージの出力もzapへリダイレクトする。
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New は指定されたログレベルでzapロガーを生成する。
// levelが空文字列の場合はinfoレベルを使用する。
func New(level string, development bool) (*zap.Logger, error) {
	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.Encoding = "json"
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.MessageKey = "message"
	}

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.Set(level); err != nil {
			return nil, fmt.Errorf("ログレベル %q が不正です: %w", level, err)
		}
	}
	config.Level.SetLevel(lvl)

	log, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("ロガーの構築に失敗: %w", err)
	}
	return log, nil
}

// Install はロガーをzapのグローバルロガーに設定し、標準logの出力もリダイレクトする。
// 戻り値の関数を呼ぶと元の状態に戻る。
func Install(log *zap.Logger) func() {
	restoreGlobals := zap.ReplaceGlobals(log)
	restoreStdLog := zap.RedirectStdLog(log)
	return func() {
		restoreStdLog()
		restoreGlobals()
	}
}
