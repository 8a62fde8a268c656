// 開発用のJWTを発行するコマンド。
// 通知管理APIを手元で叩くためのトークンを標準出力に書き出す。
//
//	go run ./cmd/devtoken --user user-1 --username alice
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/nao1215/notifyhub/internal/config"
	"github.com/nao1215/notifyhub/pkg/middleware"
)

func main() {
	userID := pflag.StringP("user", "u", "", "トークンに埋め込むユーザーID（必須）")
	username := pflag.String("username", "", "表示用のユーザー名")
	ttl := pflag.Duration("ttl", 24*time.Hour, "有効期間")
	configFile := pflag.StringP("config", "c", "", "設定ファイルのパス")
	pflag.Parse()

	if *userID == "" {
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	token, err := middleware.GenerateJWT(cfg.Auth.JWTSecret, *userID, *username, *ttl)
	if err != nil {
		log.Fatalf("トークンの発行に失敗: %v", err)
	}
	fmt.Println(token)
}
