package attendance

import (
	"database/sql"
	"time"
)

type Method string

const (
	MethodRFID Method = "rfid"
	MethodFace Method = "face_recognition"
)

type Location struct {
	Latitude         float64
	Longitude        float64
	Accuracy         *float64
	Verified         bool
	DistanceFromWork *float64
}

// Attendance: 打刻1件。作成後は変更しない
type Attendance struct {
	ID       uint64
	ULID     string
	Seq      uint64 // (subdomain, worker_id) ごとの連番
	WorkerID uint64
	Tenant   string

	// 打刻時点の従業員・部署情報のスナップショット
	Name           string
	Username       string
	BadgeCode      string
	Photo          string
	DepartmentID   uint64
	DepartmentName string

	Date             string // 業務日付 YYYY-MM-DD
	Time             string // 業務時刻 hh:mm:ss AM/PM
	Presence         bool   // true = IN
	Method           Method
	Confidence       *float64
	Location         *Location
	IsMissedOutPunch bool
	CreatedAt        time.Time
}

// DB行に対応（スキャン用）
type attendanceRow struct {
	ID               uint64
	ULID             string
	Seq              uint64
	WorkerID         uint64
	Tenant           string
	Name             string
	Username         sql.NullString
	BadgeCode        sql.NullString
	Photo            sql.NullString
	DepartmentID     sql.NullInt64
	DepartmentName   sql.NullString
	Date             string
	Time             string
	Presence         bool
	Method           string
	Confidence       sql.NullFloat64
	Latitude         sql.NullFloat64
	Longitude        sql.NullFloat64
	Accuracy         sql.NullFloat64
	LocVerified      sql.NullBool
	DistanceFromWork sql.NullFloat64
	IsMissedOutPunch bool
	CreatedAt        time.Time
}

func (r *attendanceRow) scanArgs() []any {
	return []any{
		&r.ID, &r.ULID, &r.Seq, &r.WorkerID, &r.Tenant,
		&r.Name, &r.Username, &r.BadgeCode, &r.Photo, &r.DepartmentID, &r.DepartmentName,
		&r.Date, &r.Time, &r.Presence, &r.Method, &r.Confidence,
		&r.Latitude, &r.Longitude, &r.Accuracy, &r.LocVerified, &r.DistanceFromWork,
		&r.IsMissedOutPunch, &r.CreatedAt,
	}
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func (r attendanceRow) toModel() Attendance {
	a := Attendance{
		ID:               r.ID,
		ULID:             r.ULID,
		Seq:              r.Seq,
		WorkerID:         r.WorkerID,
		Tenant:           r.Tenant,
		Name:             r.Name,
		Username:         r.Username.String,
		BadgeCode:        r.BadgeCode.String,
		Photo:            r.Photo.String,
		DepartmentID:     uint64(r.DepartmentID.Int64),
		DepartmentName:   r.DepartmentName.String,
		Date:             r.Date,
		Time:             r.Time,
		Presence:         r.Presence,
		Method:           Method(r.Method),
		Confidence:       nullFloatPtr(r.Confidence),
		IsMissedOutPunch: r.IsMissedOutPunch,
		CreatedAt:        r.CreatedAt.UTC(),
	}
	if r.Latitude.Valid && r.Longitude.Valid {
		a.Location = &Location{
			Latitude:         r.Latitude.Float64,
			Longitude:        r.Longitude.Float64,
			Accuracy:         nullFloatPtr(r.Accuracy),
			Verified:         r.LocVerified.Bool,
			DistanceFromWork: nullFloatPtr(r.DistanceFromWork),
		}
	}
	return a
}

func (a Attendance) toDTO() AttendanceResponse {
	res := AttendanceResponse{
		ID:               a.ULID,
		WorkerID:         a.WorkerID,
		Subdomain:        a.Tenant,
		Name:             a.Name,
		Username:         a.Username,
		RFID:             a.BadgeCode,
		Photo:            a.Photo,
		DepartmentID:     a.DepartmentID,
		DepartmentName:   a.DepartmentName,
		Date:             a.Date,
		Time:             a.Time,
		Presence:         a.Presence,
		AttendanceMethod: string(a.Method),
		Confidence:       a.Confidence,
		IsMissedOutPunch: a.IsMissedOutPunch,
		CreatedAt:        a.CreatedAt,
	}
	if a.Location != nil {
		res.Location = &LocationResponse{
			Latitude:         a.Location.Latitude,
			Longitude:        a.Location.Longitude,
			Accuracy:         a.Location.Accuracy,
			Verified:         a.Location.Verified,
			DistanceFromWork: a.Location.DistanceFromWork,
		}
	}
	return res
}
