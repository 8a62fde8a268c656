package notificationdb

import (
	"strings"
)

// Filter は通知一覧の絞り込み条件。
// Recipientは必須で、空の場合はどのクエリも ErrMissingScope で失敗する。
type Filter struct {
	// Recipient は通知の受信者ID。
	Recipient string
	// Unread はnilなら既読状態で絞り込まない。
	Unread *bool
	// Level は完全一致で絞り込む。空なら絞り込まない。
	Level string
	// Verb は大文字小文字を区別しない部分一致で絞り込む。空なら絞り込まない。
	Verb string
}

// Scope は受信者のみを条件とするFilterを返す。
func Scope(recipient string) Filter {
	return Filter{Recipient: recipient}
}

// WithUnread は既読状態の条件を上書きしたFilterを返す。
func (f Filter) WithUnread(unread bool) Filter {
	f.Unread = &unread
	return f
}

// where はWHERE句（WHEREキーワードを除く）と引数を組み立てる。
func (f Filter) where() (string, []any, error) {
	if f.Recipient == "" {
		return "", nil, ErrMissingScope
	}

	conditions := []string{"recipient = ?"}
	args := []any{f.Recipient}

	if f.Unread != nil {
		conditions = append(conditions, "unread = ?")
		args = append(args, *f.Unread)
	}
	if f.Level != "" {
		conditions = append(conditions, "level = ?")
		args = append(args, f.Level)
	}
	if f.Verb != "" {
		conditions = append(conditions, `fold_case(verb) LIKE fold_case(?) ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.Verb)+"%")
	}

	return strings.Join(conditions, " AND "), args, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike はLIKEパターンのワイルドカードをエスケープする。
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
