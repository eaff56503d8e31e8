package attendance

import "time"

const (
	SortCreatedAtDesc = "created_at_desc"
	SortCreatedAtAsc  = "created_at_asc"
	DefaultPageLimit  = 50
	MaxPageLimit      = 200
	DefaultSort       = SortCreatedAtDesc
)

// PUT /attendance
type BadgePunchRequest struct {
	RFID      string `json:"rfid"`
	Subdomain string `json:"subdomain"`
}

// POST /attendance/rfid
type RFIDPunchRequest struct {
	RFID string `json:"rfid"`
}

type CheckLocationRequest struct {
	Subdomain string   `json:"subdomain"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type CheckLocationResponse struct {
	Message  string   `json:"message"`
	Allowed  bool     `json:"allowed"`
	Distance *float64 `json:"distance"`
}

type LocationResponse struct {
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Accuracy         *float64 `json:"accuracy"`
	Verified         bool     `json:"verified"`
	DistanceFromWork *float64 `json:"distanceFromWork"`
}

type AttendanceResponse struct {
	ID               string            `json:"id"` // ULID
	WorkerID         uint64            `json:"worker"`
	Subdomain        string            `json:"subdomain"`
	Name             string            `json:"name"`
	Username         string            `json:"username"`
	RFID             string            `json:"rfid"`
	Photo            string            `json:"photo"`
	DepartmentID     uint64            `json:"department"`
	DepartmentName   string            `json:"departmentName"`
	Date             string            `json:"date"`
	Time             string            `json:"time"`
	Presence         bool              `json:"presence"`
	AttendanceMethod string            `json:"attendanceMethod"`
	Confidence       *float64          `json:"recognitionConfidence,omitempty"`
	Location         *LocationResponse `json:"location,omitempty"`
	IsMissedOutPunch bool              `json:"isMissedOutPunch"`
	CreatedAt        time.Time         `json:"createdAt"`
}

type WorkerSummary struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Photo      string `json:"photo"`
}

type PunchResponse struct {
	Message    string             `json:"message"`
	Attendance AttendanceResponse `json:"attendance"`
	Worker     *WorkerSummary     `json:"worker,omitempty"`
	Confidence *float64           `json:"confidence,omitempty"`
}

type ListResponse struct {
	Message    string               `json:"message"`
	Attendance []AttendanceResponse `json:"attendance"`
	Total      int64                `json:"total"`
}

type ListQuery struct {
	Tenant    string
	BadgeCode *string
	Limit     int
	Offset    int
	Sort      string
}
