package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"CipherGate-backend/internal/face"
	"CipherGate-backend/internal/platform/apierr"
	"CipherGate-backend/internal/platform/auth"
	"CipherGate-backend/internal/settings"
	"CipherGate-backend/internal/workers"
)

// ===== インターフェース群 =====

// Repository: 打刻記録の永続化（*Store が実装）
type Repository interface {
	Latest(ctx context.Context, tenant string, workerID uint64) (*Attendance, error)
	Append(ctx context.Context, afterSeq uint64, recs ...*Attendance) error
	List(ctx context.Context, q ListQuery) ([]Attendance, int64, error)
}

// Directory: 従業員・部署の参照（*workers.Store が実装）
type Directory interface {
	ByBadge(ctx context.Context, tenant, badge string) (*workers.Worker, error)
	ByBadgeGlobal(ctx context.Context, badge string) (*workers.Worker, error)
	ByID(ctx context.Context, tenant string, id uint64) (*workers.Worker, error)
	EnrolledByTenant(ctx context.Context, tenant string) ([]workers.Worker, error)
	Department(ctx context.Context, id uint64) (*workers.Department, error)
}

// LocationSettings: 勤務地設定の参照（*settings.Store が実装）
type LocationSettings interface {
	Get(ctx context.Context, tenant string) (*settings.WorkLocation, error)
}

// ===== Service本体 =====

type Service struct {
	repo      Repository
	dir       Directory
	locations LocationSettings
	encoder   face.Encoder
	loc       *time.Location
	clock     Clock
	id        IDGen
	resolve   func(last *Attendance, today string) Decision
}

func NewService(repo Repository, dir Directory, locations LocationSettings, enc face.Encoder, loc *time.Location) *Service {
	return &Service{
		repo:      repo,
		dir:       dir,
		locations: locations,
		encoder:   enc,
		loc:       loc,
		clock:     realClock{},
		id:        ulidGen{},
		resolve:   Resolve,
	}
}

const mainTenant = "main"

func requireTenant(tenant string) error {
	if tenant == "" || tenant == mainTenant {
		return apierr.ErrUnauthenticated("Company name is missing, login again")
	}
	return nil
}

// ===== 打刻共通処理 =====

// punchTarget: 打刻する本人と付帯情報
type punchTarget struct {
	tenant     string
	worker     *workers.Worker
	dept       *workers.Department
	method     Method
	confidence *float64
	location   *Location

	// クールダウン通過後、書き込み直前に行う最終確認
	finalCheck func() error
}

// record: クールダウン → IN/OUT 判定（必要なら打刻漏れ補完）→ 追記
func (s *Service) record(ctx context.Context, t punchTarget) (Attendance, error) {
	// 判定は必ずこの時点の最新記録で行う
	last, err := s.repo.Latest(ctx, t.tenant, t.worker.ID)
	if err != nil {
		return Attendance{}, err
	}
	now := s.clock.Now()
	if err := CheckCooldown(last, now); err != nil {
		return Attendance{}, err
	}
	if t.finalCheck != nil {
		if err := t.finalCheck(); err != nil {
			return Attendance{}, err
		}
	}

	dec := s.resolve(last, businessDate(now, s.loc))

	var recs []*Attendance
	if dec.NeedsBackfill() {
		bf, err := s.backfillFor(last, now)
		if err != nil {
			return Attendance{}, err
		}
		recs = append(recs, bf)
	}

	idStr, err := s.id.New()
	if err != nil {
		return Attendance{}, err
	}
	a := &Attendance{
		ULID:           idStr,
		WorkerID:       t.worker.ID,
		Tenant:         t.tenant,
		Name:           t.worker.Name,
		Username:       t.worker.Username,
		BadgeCode:      t.worker.BadgeCode,
		Photo:          t.worker.Photo,
		DepartmentID:   t.dept.ID,
		DepartmentName: t.dept.Name,
		Date:           businessDate(now, s.loc),
		Time:           businessTime(now, s.loc),
		Presence:       dec.Presence,
		Method:         t.method,
		Confidence:     t.confidence,
		Location:       t.location,
		CreatedAt:      now,
	}
	recs = append(recs, a)

	var afterSeq uint64
	if last != nil {
		afterSeq = last.Seq
	}
	if err := s.repo.Append(ctx, afterSeq, recs...); err != nil {
		if errors.Is(err, ErrSeqConflict) {
			return Attendance{}, apierr.ErrConflict("another punch was recorded at the same time, please retry")
		}
		return Attendance{}, err
	}

	if dec.NeedsBackfill() {
		log.Printf("[INFO] auto-generated OUT for %s on %s due to missed punch", t.worker.Name, dec.BackfillDate)
	}
	return *a, nil
}

// backfillFor: 直前の記録の当日分を 19:00 の OUT で閉じる記録を作る
func (s *Service) backfillFor(last *Attendance, now time.Time) (*Attendance, error) {
	idStr, err := s.id.New()
	if err != nil {
		return nil, err
	}
	return &Attendance{
		ULID:             idStr,
		WorkerID:         last.WorkerID,
		Tenant:           last.Tenant,
		Name:             last.Name,
		Username:         last.Username,
		BadgeCode:        last.BadgeCode,
		Photo:            last.Photo,
		DepartmentID:     last.DepartmentID,
		DepartmentName:   last.DepartmentName,
		Date:             last.Date,
		Time:             MissedOutTime,
		Presence:         false,
		Method:           last.Method,
		IsMissedOutPunch: true,
		CreatedAt:        now,
	}, nil
}

func greeting(name string, presence bool) string {
	if presence {
		return fmt.Sprintf("Welcome %s! Attendance marked as IN", name)
	}
	return fmt.Sprintf("Goodbye %s! Attendance marked as OUT", name)
}

func (s *Service) department(ctx context.Context, w *workers.Worker) (*workers.Department, error) {
	d, err := s.dir.Department(ctx, w.DepartmentID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apierr.ErrNotFound("Department not found")
	}
	return d, nil
}

// ===== バッジ打刻 =====

// BadgePunch: PUT /attendance（テナント指定あり）
func (s *Service) BadgePunch(ctx context.Context, req BadgePunchRequest) (PunchResponse, error) {
	if err := requireTenant(req.Subdomain); err != nil {
		return PunchResponse{}, err
	}
	badge := workers.NormalizeBadge(req.RFID)
	if badge == "" {
		return PunchResponse{}, apierr.ErrUnauthenticated("RFID is required")
	}
	w, err := s.dir.ByBadge(ctx, req.Subdomain, badge)
	if err != nil {
		return PunchResponse{}, err
	}
	if w == nil {
		return PunchResponse{}, apierr.ErrNotFound("Worker not found")
	}
	return s.badgePunch(ctx, req.Subdomain, w)
}

// RFIDPunch: POST /attendance/rfid（据え置き端末用、テナントは従業員から引く）
func (s *Service) RFIDPunch(ctx context.Context, req RFIDPunchRequest) (PunchResponse, error) {
	badge := workers.NormalizeBadge(req.RFID)
	if badge == "" {
		return PunchResponse{}, apierr.ErrUnauthenticated("RFID is required")
	}
	w, err := s.dir.ByBadgeGlobal(ctx, badge)
	if errors.Is(err, workers.ErrAmbiguousBadge) {
		log.Printf("[WARN] badge %s is registered in more than one company", badge)
		return PunchResponse{}, apierr.ErrConflict("This RFID is registered to more than one company").
			WithSuggestion("Ask an administrator to reassign the badge")
	}
	if err != nil {
		return PunchResponse{}, err
	}
	if w == nil {
		return PunchResponse{}, apierr.ErrNotFound("Worker not found")
	}
	return s.badgePunch(ctx, w.Tenant, w)
}

func (s *Service) badgePunch(ctx context.Context, tenant string, w *workers.Worker) (PunchResponse, error) {
	dept, err := s.department(ctx, w)
	if err != nil {
		return PunchResponse{}, err
	}
	a, err := s.record(ctx, punchTarget{tenant: tenant, worker: w, dept: dept, method: MethodRFID})
	if err != nil {
		return PunchResponse{}, err
	}
	return PunchResponse{Message: greeting(w.Name, a.Presence), Attendance: a.toDTO()}, nil
}

// ===== 顔認証打刻 =====

type FacePunchInput struct {
	Tenant    string
	Principal auth.Principal
	ImagePath string
	Latitude  *float64
	Longitude *float64
	Accuracy  *float64
}

func (in FacePunchInput) hasCoordinates() bool { return in.Latitude != nil && in.Longitude != nil }

// FacePunch: POST /attendance/face
func (s *Service) FacePunch(ctx context.Context, in FacePunchInput) (PunchResponse, error) {
	if err := requireTenant(in.Tenant); err != nil {
		return PunchResponse{}, err
	}
	isWorker := in.Principal.IsWorker()

	// 1. 位置確認（従業員本人が座標を送ってきた時だけ。admin は対象外）
	geo := GeofenceResult{Verified: true}
	if isWorker && in.hasCoordinates() {
		geo = s.verifyLocation(ctx, in.Tenant, in.Latitude, in.Longitude)
		if !geo.Verified {
			e := apierr.ErrForbidden(geo.Message).WithDistance(geo.Distance)
			e.LocationError = true
			return PunchResponse{}, e
		}
	}

	// 2. 照合対象
	cands, err := s.candidates(ctx, in)
	if err != nil {
		return PunchResponse{}, err
	}

	// 3. 特徴量の抽出と照合
	probe, err := s.encode(ctx, in.ImagePath)
	if err != nil {
		return PunchResponse{}, err
	}
	m, err := face.Identify(probe, cands)
	if err != nil {
		return PunchResponse{}, matchError(err, m)
	}

	// 4. 照合結果の従業員を取り直す
	w, err := s.dir.ByID(ctx, in.Tenant, m.Candidate.ID)
	if err != nil {
		return PunchResponse{}, err
	}
	if w == nil {
		return PunchResponse{}, apierr.ErrNotFound("Matched worker not found in database")
	}
	dept, err := s.department(ctx, w)
	if err != nil {
		return PunchResponse{}, err
	}

	// 5. 本人以外の打刻は拒否
	if isWorker && in.Principal.ID != strconv.FormatUint(w.ID, 10) {
		log.Printf("[WARN] SECURITY ALERT: worker %s attempted to mark attendance as %s (id=%d)", in.Principal.ID, w.Name, w.ID)
		return PunchResponse{}, apierr.ErrForbidden("Security verification failed. You can only mark your own attendance.").UnsavedFace()
	}

	conf := face.Round3(m.Confidence)
	target := punchTarget{
		tenant:     in.Tenant,
		worker:     w,
		dept:       dept,
		method:     MethodFace,
		confidence: &conf,
		finalCheck: func() error {
			if face.Verified(m.Confidence) {
				return nil
			}
			log.Printf("[WARN] SECURITY ALERT: final verification failed for %s, confidence %.3f", w.Name, m.Confidence)
			return apierr.ErrNotFound("Face verification failed in final security check.").
				WithSuggestion("Please try again with better lighting and positioning.").
				UnsavedFace()
		},
	}
	if in.hasCoordinates() {
		target.location = &Location{
			Latitude:         *in.Latitude,
			Longitude:        *in.Longitude,
			Accuracy:         in.Accuracy,
			Verified:         isWorker && geo.Verified,
			DistanceFromWork: geo.Distance,
		}
	}

	a, err := s.record(ctx, target)
	if err != nil {
		return PunchResponse{}, err
	}
	log.Printf("[INFO] face punch: %s (tenant=%s, confidence=%.3f, in=%v)", w.Name, in.Tenant, conf, a.Presence)

	return PunchResponse{
		Message:    greeting(w.Name, a.Presence),
		Attendance: a.toDTO(),
		Worker:     &WorkerSummary{Name: w.Name, Department: dept.Name, Photo: w.Photo},
		Confidence: &conf,
	}, nil
}

// candidates: worker は自分の顔データのみ、admin はテナント全員
func (s *Service) candidates(ctx context.Context, in FacePunchInput) ([]face.Candidate, error) {
	if in.Principal.IsWorker() {
		id, err := strconv.ParseUint(in.Principal.ID, 10, 64)
		if err != nil {
			return nil, apierr.ErrUnauthenticated("invalid user id")
		}
		w, err := s.dir.ByID(ctx, in.Tenant, id)
		if err != nil {
			return nil, err
		}
		if w == nil || !w.Enrolled() {
			return nil, apierr.ErrNotFound("Worker face data not found. Please contact administrator to enroll your face.").UnsavedFace()
		}
		return []face.Candidate{{ID: w.ID, Name: w.Name, Encoding: w.FaceEncoding}}, nil
	}

	ws, err := s.dir.EnrolledByTenant(ctx, in.Tenant)
	if err != nil {
		return nil, err
	}
	if len(ws) == 0 {
		return nil, apierr.ErrNotFound("No workers with face encodings found for this company")
	}
	out := make([]face.Candidate, 0, len(ws))
	for i := range ws {
		out = append(out, face.Candidate{ID: ws[i].ID, Name: ws[i].Name, Encoding: ws[i].FaceEncoding})
	}
	return out, nil
}

func (s *Service) encode(ctx context.Context, imagePath string) ([]float64, error) {
	probe, err := s.encoder.Encode(ctx, imagePath)
	if err != nil {
		var ee *face.EncodeError
		if errors.As(err, &ee) {
			return nil, apierr.ErrInvalid(ee.Message)
		}
		return nil, fmt.Errorf("face encoding: %w", err)
	}
	switch err := face.ValidateEncoding(probe, face.MinProbeVariance); {
	case errors.Is(err, face.ErrLowQuality):
		return nil, apierr.ErrInvalid("Low quality face encoding detected. Please ensure good lighting and try again.").
			WithSuggestion("Try adjusting your position or lighting for better recognition.")
	case err != nil:
		return nil, apierr.ErrInvalid("Invalid face encoding generated. Please try again.")
	}
	return probe, nil
}

// matchError: 照合エラーを利用者向けの応答に変換する
func matchError(err error, m face.Match) error {
	switch {
	case errors.Is(err, face.ErrUnregistered):
		log.Printf("[WARN] unregistered face detected")
		return apierr.ErrNotFound("Unregistered face detected. Face not enrolled in the system.").
			WithSuggestion("Contact your administrator to enroll your face for attendance marking.").
			UnsavedFace()
	case errors.Is(err, face.ErrInsufficientMargin):
		log.Printf("[WARN] face match rejected, insufficient margin: %s %.3f", m.Candidate.Name, m.Confidence)
		return apierr.ErrNotFound("Face verification failed. Confidence level is too low for secure identification.").
			WithSuggestion("Please ensure good lighting and proper face positioning. If problem persists, contact administrator.").
			WithReason("Insufficient confidence for reliable face recognition").
			WithConfidence(face.Round3(m.Confidence)).
			UnsavedFace()
	case errors.Is(err, face.ErrNotRecognized):
		return apierr.ErrNotFound("Face verification failed. This face is not recognized as a registered employee.").
			WithSuggestion("If you are a registered employee, please try again with better lighting or positioning.").
			WithConfidence(face.Round3(m.Confidence)).
			UnsavedFace()
	case errors.Is(err, face.ErrInvalidEncoding), errors.Is(err, face.ErrLowQuality):
		return apierr.ErrInvalid("Invalid face encoding generated. Please try again.")
	}
	return err
}

// ===== 位置確認 =====

// verifyLocation: 設定の取得に失敗した場合は通す（打刻を止めない）
func (s *Service) verifyLocation(ctx context.Context, tenant string, lat, lon *float64) GeofenceResult {
	if lat == nil || lon == nil {
		return EvaluateGeofence(lat, lon, nil)
	}
	wl, err := s.locations.Get(ctx, tenant)
	if err != nil {
		log.Printf("[WARN] location verification error (tenant=%s): %v", tenant, err)
		return GeofenceResult{Verified: true, Message: locationErrorMessage}
	}
	res := EvaluateGeofence(lat, lon, wl)
	if res.Message == locationErrorMessage {
		log.Printf("[WARN] location verification error (tenant=%s): non-finite distance", tenant)
	}
	return res
}

// CheckLocation: POST /attendance/check-location（打刻前の事前確認）
func (s *Service) CheckLocation(ctx context.Context, p auth.Principal, req CheckLocationRequest) (CheckLocationResponse, error) {
	if !p.IsWorker() {
		return CheckLocationResponse{}, apierr.ErrForbidden("Only workers can check location for attendance").WithAllowed(false)
	}
	res := s.verifyLocation(ctx, req.Subdomain, req.Latitude, req.Longitude)
	if !res.Verified {
		return CheckLocationResponse{}, apierr.ErrForbidden(res.Message).WithAllowed(false).WithDistance(res.Distance)
	}
	return CheckLocationResponse{Message: "Location verified successfully", Allowed: true, Distance: res.Distance}, nil
}

// ===== 一覧 =====

// List: GET /attendance（テナント全体）
func (s *Service) List(ctx context.Context, q ListQuery) (ListResponse, error) {
	if err := requireTenant(q.Tenant); err != nil {
		return ListResponse{}, err
	}
	return s.list(ctx, q, "Attendance data retrieved successfully")
}

// ListByWorker: GET /attendance/worker（rfid 指定）
func (s *Service) ListByWorker(ctx context.Context, q ListQuery) (ListResponse, error) {
	if err := requireTenant(q.Tenant); err != nil {
		return ListResponse{}, err
	}
	if q.BadgeCode == nil || workers.NormalizeBadge(*q.BadgeCode) == "" {
		return ListResponse{}, apierr.ErrUnauthenticated("RFID is required")
	}
	badge := workers.NormalizeBadge(*q.BadgeCode)
	q.BadgeCode = &badge
	return s.list(ctx, q, "Worker attendance data retrieved successfully")
}

func (s *Service) list(ctx context.Context, q ListQuery, msg string) (ListResponse, error) {
	if q.Sort == "" {
		q.Sort = DefaultSort
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}

	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return ListResponse{}, err
	}
	out := make([]AttendanceResponse, 0, len(rows))
	for i := 0; i < len(rows); i++ {
		out = append(out, rows[i].toDTO())
	}
	return ListResponse{Message: msg, Attendance: out, Total: total}, nil
}
