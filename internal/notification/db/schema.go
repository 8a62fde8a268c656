package notificationdb

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/nao1215/notifyhub/pkg/migration"
)

//go:embed migrations
var migrations embed.FS

// Migrate は接続先の方言に合わせたマイグレーションを適用する。
func Migrate(ctx context.Context, db *sqlx.DB, log *zap.Logger) error {
	if _, err := migration.Run(ctx, db, migrations, "migrations/"+Dialect(db), log); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
