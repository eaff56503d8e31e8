package workers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/width"
)

// Worker: 打刻対象の従業員（テナント = subdomain）
type Worker struct {
	ID           uint64
	Tenant       string
	Name         string
	Username     string
	BadgeCode    string
	DepartmentID uint64
	Photo        string
	FaceEncoding []float64 // 未登録なら nil
}

func (w Worker) Enrolled() bool { return len(w.FaceEncoding) > 0 }

type Department struct {
	ID     uint64
	Tenant string
	Name   string
}

type FacePhoto struct {
	ID  uint64
	URL string
}

// ErrBadEncoding: face_encoding 列が数値配列として読めない
var ErrBadEncoding = errors.New("stored face encoding is not a numeric array")

// DB行（face_encoding は JSON 配列 or NULL）
type workerRow struct {
	ID           uint64
	Tenant       string
	Name         string
	Username     sql.NullString
	BadgeCode    sql.NullString
	DepartmentID sql.NullInt64
	Photo        sql.NullString
	FaceEncoding []byte
}

func (r workerRow) toModel() (Worker, error) {
	w := Worker{
		ID:           r.ID,
		Tenant:       r.Tenant,
		Name:         r.Name,
		Username:     r.Username.String,
		BadgeCode:    r.BadgeCode.String,
		DepartmentID: uint64(r.DepartmentID.Int64),
		Photo:        r.Photo.String,
	}
	if len(r.FaceEncoding) > 0 && string(r.FaceEncoding) != "null" {
		if err := json.Unmarshal(r.FaceEncoding, &w.FaceEncoding); err != nil {
			w.FaceEncoding = nil
			return w, fmt.Errorf("%w: %v", ErrBadEncoding, err)
		}
	}
	return w, nil
}

// NormalizeBadge: 全角で届いたバッジコードを半角に寄せて前後の空白を落とす
// (IME 有効のままキーボードウェッジ型リーダーで読むと全角になる)
func NormalizeBadge(s string) string {
	return strings.TrimSpace(width.Narrow.String(s))
}
