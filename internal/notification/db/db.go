// Package notificationdb は通知テーブルへのクエリを提供する。
//
// SQLite（modernc.org/sqlite）とPostgreSQL（pgx）の両方をsqlx経由で扱う。
// クエリは ? プレースホルダで記述し、ドライバに合わせてRebindする。
// 一覧・集計・一括更新はすべて受信者によるスコープ付きのFilterを必須とする。
package notificationdb

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQLドライバ（"pgx"）
)

// SQLiteのLOWERはASCIIしか変換しないため、Unicode対応の fold_case を登録する。
// PostgreSQLではマイグレーションで同名の関数を定義する。
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("fold_case", 1, foldCase)
}

func foldCase(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

var (
	// ErrNotFound は対象の通知が存在しないことを表す。
	ErrNotFound = errors.New("通知が見つかりません")
	// ErrMissingScope は受信者の指定が無いクエリを組み立てようとしたことを表す。
	ErrMissingScope = errors.New("受信者が指定されていないクエリは実行できません")
)

// Queries は通知テーブルに対するクエリ実行オブジェクト。
type Queries struct {
	db *sqlx.DB
}

// New は新しいQueriesを生成する。
func New(db *sqlx.DB) *Queries {
	return &Queries{db: db}
}

// Open は指定ドライバでデータベースに接続する。
// driverは "sqlite" または "pgx"。
func Open(driver, dsn string, maxOpenConns int) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}
	return db, nil
}

// Dialect はマイグレーションの選択に使うSQL方言名を返す。
func Dialect(db *sqlx.DB) string {
	if db.DriverName() == "pgx" {
		return "postgres"
	}
	return "sqlite"
}
