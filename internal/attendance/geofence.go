package attendance

import (
	"fmt"
	"math"
	"strconv"

	"CipherGate-backend/internal/settings"
)

const EarthRadiusMeters = 6371e3

// HaversineMeters: 2点間の大円距離（m）
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	phi1, phi2 := lat1*rad, lat2*rad
	dPhi := (lat2 - lat1) * rad
	dLambda := (lon2 - lon1) * rad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

type GeofenceResult struct {
	Verified bool
	Distance *float64
	Message  string
}

const locationErrorMessage = "Location verification error"

// EvaluateGeofence: 勤務地設定に対して位置を判定する。
// 設定なし・無効・中心未設定はすべて通す
func EvaluateGeofence(lat, lon *float64, wl *settings.WorkLocation) GeofenceResult {
	if lat == nil || lon == nil {
		return GeofenceResult{Verified: false, Message: "Location data missing"}
	}
	if wl == nil || !wl.Enabled {
		return GeofenceResult{Verified: true, Message: "Location verification not enabled"}
	}
	if !wl.HasCenter() {
		return GeofenceResult{Verified: true, Message: "Work location not configured"}
	}

	d := HaversineMeters(*lat, *lon, *wl.Latitude, *wl.Longitude)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return GeofenceResult{Verified: true, Message: locationErrorMessage}
	}

	radius := wl.Radius()
	if d <= radius {
		return GeofenceResult{Verified: true, Distance: &d, Message: "Location verified successfully"}
	}
	return GeofenceResult{
		Verified: false,
		Distance: &d,
		Message: fmt.Sprintf("You are %dm away from work location. Must be within %sm.",
			int64(math.Round(d)), strconv.FormatFloat(radius, 'f', -1, 64)),
	}
}
