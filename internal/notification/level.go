package notification

import "strings"

// Level は通知の重要度。
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// levels は表示順に並べた重要度の一覧。
var levels = []Level{LevelInfo, LevelSuccess, LevelWarning, LevelError}

// Valid は定義済みの重要度であればtrueを返す。
func (l Level) Valid() bool {
	for _, v := range levels {
		if v == l {
			return true
		}
	}
	return false
}

// Label は先頭を大文字にした表示名を返す。
func (l Level) Label() string {
	if l == "" {
		return ""
	}
	s := string(l)
	return strings.ToUpper(s[:1]) + s[1:]
}

// levelResponse はレベル一覧APIの要素。
type levelResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func levelResponses() []levelResponse {
	out := make([]levelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, levelResponse{Value: string(l), Label: l.Label()})
	}
	return out
}
