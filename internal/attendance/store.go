package attendance

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"CipherGate-backend/internal/platform/db"
)

// ErrSeqConflict: 同じ従業員への打刻が並行して先に書かれた
var ErrSeqConflict = errors.New("attendance sequence conflict")

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const selectCols = `
	id, ulid, seq, worker_id, subdomain,
	name, username, rfid, photo, department_id, department_name,
	date, time, presence, method, confidence,
	latitude, longitude, accuracy, location_verified, distance_from_work,
	is_missed_out_punch, created_at`

// Latest: (subdomain, worker) の最新1件。無ければ nil
func (s *Store) Latest(ctx context.Context, tenant string, workerID uint64) (*Attendance, error) {
	var r attendanceRow
	err := s.db.QueryRowContext(ctx, `SELECT `+selectCols+`
	FROM attendances
	WHERE subdomain = ? AND worker_id = ?
	ORDER BY seq DESC
	LIMIT 1`, tenant, workerID).Scan(r.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a := r.toModel()
	return &a, nil
}

// Append: afterSeq の直後に recs を順に追記する（compare-and-append）。
// UNIQUE(subdomain, worker_id, seq) に当たったら ErrSeqConflict で全体を取り消す
func (s *Store) Append(ctx context.Context, afterSeq uint64, recs ...*Attendance) error {
	const q = `
	INSERT INTO attendances
	(ulid, seq, worker_id, subdomain, name, username, rfid, photo, department_id, department_name,
	 date, time, presence, method, confidence,
	 latitude, longitude, accuracy, location_verified, distance_from_work,
	 is_missed_out_punch, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		for i, a := range recs {
			a.Seq = afterSeq + uint64(i) + 1

			var lat, lon, acc, verified, dist any
			if a.Location != nil {
				lat, lon, verified = a.Location.Latitude, a.Location.Longitude, a.Location.Verified
				acc, dist = floatOrNil(a.Location.Accuracy), floatOrNil(a.Location.DistanceFromWork)
			}

			res, err := tx.ExecContext(ctx, q,
				a.ULID, a.Seq, a.WorkerID, a.Tenant,
				a.Name, strOrNil(a.Username), strOrNil(a.BadgeCode), strOrNil(a.Photo),
				a.DepartmentID, a.DepartmentName,
				a.Date, a.Time, a.Presence, string(a.Method), floatOrNil(a.Confidence),
				lat, lon, acc, verified, dist,
				a.IsMissedOutPunch, a.CreatedAt.UTC(),
			)
			if err != nil {
				return err
			}
			id, _ := res.LastInsertId()
			a.ID = uint64(id)
		}
		return nil
	})
	if db.IsDuplicateKey(err) {
		return ErrSeqConflict
	}
	return err
}

// List: subdomain 必須、rfid は任意。動的 WHERE + ORDER + LIMIT/OFFSET
func (s *Store) List(ctx context.Context, q ListQuery) ([]Attendance, int64, error) {
	var (
		buf    bytes.Buffer
		args   []any
		wheres = []string{"subdomain = ?"}
	)
	args = append(args, q.Tenant)
	if q.BadgeCode != nil && *q.BadgeCode != "" {
		wheres = append(wheres, "rfid = ?")
		args = append(args, *q.BadgeCode)
	}
	where := " WHERE " + strings.Join(wheres, " AND ")

	buf.WriteString(`SELECT ` + selectCols + ` FROM attendances`)
	buf.WriteString(where)

	switch q.Sort {
	case SortCreatedAtAsc:
		buf.WriteString(" ORDER BY created_at ASC, id ASC")
	default:
		buf.WriteString(" ORDER BY created_at DESC, id DESC")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	buf.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	// 一覧と件数を同じスナップショットから取る
	var (
		out   []Attendance
		total int64
	)
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		rows, err := tx.QueryContext(ctx, buf.String(), args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var r attendanceRow
			if err := rows.Scan(r.scanArgs()...); err != nil {
				return err
			}
			out = append(out, r.toModel())
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendances"+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ===== helpers =====

func strOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
