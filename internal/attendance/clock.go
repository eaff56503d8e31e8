package attendance

import (
	"crypto/rand"
	"log"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	DefaultTimezone = "Asia/Kolkata"
	DateLayout      = "2006-01-02"
	TimeLayout      = "03:04:05 PM"

	// 退勤打刻漏れを補完する時の時刻表記（既存データとの互換のためこの文字列のまま）
	MissedOutTime = "19:00:00 PM"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// LoadBusinessLocation: 業務日付・時刻を決めるタイムゾーン。
// tzdata が無い環境では IST 固定オフセットに落とす
func LoadBusinessLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc
	}
	log.Printf("[WARN] timezone %q unavailable (%v), using +05:30", name, err)
	return time.FixedZone("IST", 5*60*60+30*60)
}

func businessDate(t time.Time, loc *time.Location) string { return t.In(loc).Format(DateLayout) }
func businessTime(t time.Time, loc *time.Location) string { return t.In(loc).Format(TimeLayout) }
