package workers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"

	"CipherGate-backend/internal/platform/db"
)

// ErrAmbiguousBadge: 同じ rfid が複数テナントに登録されている
var ErrAmbiguousBadge = errors.New("badge registered in more than one tenant")

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const workerCols = `id, subdomain, name, username, rfid, department_id, photo, face_encoding`

func scanWorker(sc interface{ Scan(...any) error }) (Worker, error) {
	var r workerRow
	if err := sc.Scan(&r.ID, &r.Tenant, &r.Name, &r.Username, &r.BadgeCode, &r.DepartmentID, &r.Photo, &r.FaceEncoding); err != nil {
		return Worker{}, err
	}
	// ErrBadEncoding の時も ID 等は埋まった Worker を返す
	return r.toModel()
}

// 見つからなければ nil, nil。顔データが壊れた行は未登録として返す
func (s *Store) queryOne(ctx context.Context, q string, args ...any) (*Worker, error) {
	w, err := scanWorker(s.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if errors.Is(err, ErrBadEncoding) {
		log.Printf("[WARN] worker %d (%s): %v", w.ID, w.Tenant, err)
		return &w, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) ByBadge(ctx context.Context, tenant, badge string) (*Worker, error) {
	return s.queryOne(ctx, `SELECT `+workerCols+` FROM workers WHERE subdomain = ? AND rfid = ? LIMIT 1`, tenant, badge)
}

// ByBadgeGlobal: テナント無し RFID 端末用。
// スキーマ上 rfid は全体で UNIQUE だが、2件返ったら ErrAmbiguousBadge
func (s *Store) ByBadgeGlobal(ctx context.Context, badge string) (*Worker, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+workerCols+` FROM workers WHERE rfid = ? ORDER BY id LIMIT 2`, badge)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return singleBadgeHolder(rows)
}

func singleBadgeHolder(rows rowIter) (*Worker, error) {
	var found []Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil && !errors.Is(err, ErrBadEncoding) {
			return nil, err
		}
		found = append(found, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return &found[0], nil
	default:
		return nil, ErrAmbiguousBadge
	}
}

func (s *Store) ByID(ctx context.Context, tenant string, id uint64) (*Worker, error) {
	return s.queryOne(ctx, `SELECT `+workerCols+` FROM workers WHERE subdomain = ? AND id = ?`, tenant, id)
}

// EnrolledByTenant: 顔データ登録済みの従業員のみ
func (s *Store) EnrolledByTenant(ctx context.Context, tenant string) ([]Worker, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT `+workerCols+`
	FROM workers
	WHERE subdomain = ? AND face_encoding IS NOT NULL
	ORDER BY id`, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEnrolled(rows, tenant)
}

type rowIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// collectEnrolled: 顔データの壊れた行はログに残して飛ばす
func collectEnrolled(rows rowIter, tenant string) ([]Worker, error) {
	var out []Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if errors.Is(err, ErrBadEncoding) {
			log.Printf("[WARN] skipping worker %d (%s): %v", w.ID, tenant, err)
			continue
		}
		if err != nil {
			return nil, err
		}
		if w.Enrolled() {
			out = append(out, w)
		}
	}
	return out, rows.Err()
}

func (s *Store) Department(ctx context.Context, id uint64) (*Department, error) {
	var d Department
	err := s.db.QueryRowContext(ctx, `SELECT id, subdomain, name FROM departments WHERE id = ?`, id).
		Scan(&d.ID, &d.Tenant, &d.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func listFacePhotos(ctx context.Context, q db.DBTX, workerID uint64) ([]FacePhoto, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, url FROM worker_face_photos WHERE worker_id = ? ORDER BY id`, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FacePhoto
	for rows.Next() {
		var p FacePhoto
		if err := rows.Scan(&p.ID, &p.URL); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AddFacePhoto: 写真を追加し、有効な顔データを最新のものに差し替える。戻り値は登録枚数
func (s *Store) AddFacePhoto(ctx context.Context, workerID uint64, url string, encoding []float64) (int, error) {
	enc, err := json.Marshal(encoding)
	if err != nil {
		return 0, err
	}
	var count int
	err = db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO worker_face_photos (worker_id, url) VALUES (?, ?)`, workerID, url); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE workers SET face_encoding = ? WHERE id = ?`, enc, workerID); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM worker_face_photos WHERE worker_id = ?`, workerID).Scan(&count)
	})
	return count, err
}

// ClearFace: 写真と顔データをまとめて消す。消した写真の URL を返す
func (s *Store) ClearFace(ctx context.Context, workerID uint64) ([]string, error) {
	var urls []string
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		photos, err := listFacePhotos(ctx, tx, workerID)
		if err != nil {
			return err
		}
		for _, p := range photos {
			urls = append(urls, p.URL)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM worker_face_photos WHERE worker_id = ?`, workerID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE workers SET face_encoding = NULL WHERE id = ?`, workerID)
		return err
	})
	return urls, err
}

var ErrPhotoIndex = errors.New("invalid photo index")

// DeleteFacePhoto: index 番目（登録順）の写真を消す。最後の1枚なら顔データも消す
func (s *Store) DeleteFacePhoto(ctx context.Context, workerID uint64, index int) (string, int, error) {
	var (
		url       string
		remaining int
	)
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		photos, err := listFacePhotos(ctx, tx, workerID)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(photos) {
			return ErrPhotoIndex
		}
		url = photos[index].URL
		if _, err := tx.ExecContext(ctx, `DELETE FROM worker_face_photos WHERE id = ?`, photos[index].ID); err != nil {
			return err
		}
		remaining = len(photos) - 1
		if remaining == 0 {
			_, err = tx.ExecContext(ctx, `UPDATE workers SET face_encoding = NULL WHERE id = ?`, workerID)
		}
		return err
	})
	return url, remaining, err
}
