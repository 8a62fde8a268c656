package notification

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	notificationdb "github.com/nao1215/notifyhub/internal/notification/db"
)

const (
	// defaultPageSize はpage_size未指定時の件数。
	defaultPageSize = 20
	// maxPageSize はpage_sizeの上限。超えた値は上限に丸める。
	maxPageSize = 100
)

// parseFilter はクエリパラメータから受信者スコープ付きのFilterを組み立てる。
func parseFilter(c *gin.Context, userID string) notificationdb.Filter {
	f := notificationdb.Scope(userID)
	if unread, ok := parseUnreadOnly(c.Query("unread_only")); ok {
		f = f.WithUnread(unread)
	}
	f.Level = c.Query("level")
	f.Verb = c.Query("verb")
	return f
}

// parseUnreadOnly はunread_onlyの値を解釈する。
// true/1 は未読のみ、false/0 は既読のみ。それ以外は絞り込まない。
func parseUnreadOnly(v string) (unread bool, ok bool) {
	switch strings.ToLower(v) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}

// parsePageSize はpage_sizeを解釈する。不正な値は既定値、上限超過は上限に丸める。
func parsePageSize(v string) int {
	size, err := strconv.Atoi(v)
	if err != nil || size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

// parsePageNumber はpageを解釈する。未指定は1ページ目。
func parsePageNumber(v string) (int, error) {
	if v == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errInvalidPage
	}
	return n, nil
}

// page は1ページ分の取得結果。
type page struct {
	rows   []notificationdb.Notification
	count  int64
	number int
	size   int
}

func (p page) hasNext() bool {
	return int64(p.number*p.size) < p.count
}

// paginate はフィルタに一致する通知のうち、リクエストされたページを取得する。
// 1ページ目は結果が空でも有効。それ以外で範囲外のページは errInvalidPage。
func (s *Server) paginate(c *gin.Context, f notificationdb.Filter) (page, error) {
	ctx := c.Request.Context()
	number, err := parsePageNumber(c.Query("page"))
	if err != nil {
		return page{}, err
	}
	size := parsePageSize(c.Query("page_size"))

	count, err := s.queries.CountNotifications(ctx, f)
	if err != nil {
		return page{}, err
	}
	offset := (number - 1) * size
	if number > 1 && int64(offset) >= count {
		return page{}, errInvalidPage
	}

	rows, err := s.queries.ListNotifications(ctx, f, size, offset)
	if err != nil {
		return page{}, err
	}
	return page{rows: rows, count: count, number: number, size: size}, nil
}

// pageURL はリクエストURLのpageだけを差し替えた絶対URLを返す。
// 1ページ目はpageパラメータを取り除く。
func pageURL(c *gin.Context, number int) *string {
	u := *c.Request.URL
	q := u.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	u.Host = c.Request.Host
	u.Scheme = "http"
	if c.Request.TLS != nil {
		u.Scheme = "https"
	} else if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		u.Scheme = proto
	}
	link := u.String()
	return &link
}

// pageResponse はページングされた一覧のレスポンス。
type pageResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func newPageResponse[T any](c *gin.Context, p page, results []T) pageResponse[T] {
	resp := pageResponse[T]{Count: p.count, Results: results}
	if p.hasNext() {
		resp.Next = pageURL(c, p.number+1)
	}
	if p.number > 1 {
		resp.Previous = pageURL(c, p.number-1)
	}
	return resp
}
