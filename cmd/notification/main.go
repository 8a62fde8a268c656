// 通知管理APIのエントリポイント。
// 認証済みユーザーが自分宛ての通知を一覧・既読管理・削除するREST APIを提供する。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nao1215/notifyhub/internal/config"
	"github.com/nao1215/notifyhub/internal/notification"
	"github.com/nao1215/notifyhub/pkg/logger"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "設定ファイルのパス（YAML/TOML/JSON）")
	pflag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	restore := logger.Install(zl)
	defer restore()
	defer func() { _ = zl.Sync() }()

	server, err := notification.NewServer(cfg, zl)
	if err != nil {
		zl.Fatal("通知サーバーの初期化に失敗", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zl.Info("通知サービスを起動します", zap.String("port", cfg.Server.Port), zap.String("driver", cfg.Database.Driver))
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			zl.Error("通知サービスの起動に失敗", zap.Error(err))
		}
	case <-ctx.Done():
		zl.Info("シャットダウンを開始します")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("シャットダウンに失敗", zap.Error(err))
		return
	}
	zl.Info("通知サービスを停止しました")
}
