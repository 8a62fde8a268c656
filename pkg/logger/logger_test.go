package logger

import (
	"log"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestNew はNew関数を検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("本番設定でロガーを生成できること", func(t *testing.T) {
		t.Parallel()

		l, err := New("", false)
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}
		if !l.Core().Enabled(zapcore.InfoLevel) {
			t.Error("infoレベルが有効になっていない")
		}
		if l.Core().Enabled(zapcore.DebugLevel) {
			t.Error("デフォルトでdebugレベルが有効になっている")
		}
	})

	t.Run("指定したログレベルが反映されること", func(t *testing.T) {
		t.Parallel()

		l, err := New("debug", true)
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Error("debugレベルが有効になっていない")
		}
	})

	t.Run("不正なログレベルはエラーになること", func(t *testing.T) {
		t.Parallel()

		if _, err := New("verbose", false); err == nil {
			t.Error("不正なログレベルでエラーが返らなかった")
		}
	})
}

// TestInstall はグローバルロガーへの設定を検証する。
// グローバル状態を変更するため並列実行しない。
func TestInstall(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Install(zap.New(core))
	defer restore()

	zap.L().Info("グローバルロガー経由")
	log.Print("標準log経由")

	if got := logs.Len(); got != 2 {
		t.Fatalf("ログ件数 = %d, want 2", got)
	}
	if msg := logs.All()[0].Message; msg != "グローバルロガー経由" {
		t.Errorf("message = %q, want %q", msg, "グローバルロガー経由")
	}
}
