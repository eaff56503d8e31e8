package settings

// WorkLocation: テナントごとの勤務地（ジオフェンス中心）
type WorkLocation struct {
	Tenant       string   `json:"subdomain"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	RadiusMeters float64  `json:"radius"`
	Enabled      bool     `json:"enabled"`
}

const DefaultRadiusMeters = 100

// Radius: 0 以下は既定の 100m
func (w WorkLocation) Radius() float64 {
	if w.RadiusMeters <= 0 {
		return DefaultRadiusMeters
	}
	return w.RadiusMeters
}

// HasCenter: 緯度経度が両方設定されているか
func (w WorkLocation) HasCenter() bool {
	return w.Latitude != nil && w.Longitude != nil
}

type UpdateWorkLocationRequest struct {
	Subdomain    string   `json:"subdomain" binding:"required"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	RadiusMeters *float64 `json:"radius"`
	Enabled      *bool    `json:"enabled"`
}
