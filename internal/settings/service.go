package settings

import (
	"context"
	"math"

	"CipherGate-backend/internal/platform/apierr"
)

type Repository interface {
	Get(ctx context.Context, tenant string) (*WorkLocation, error)
	Upsert(ctx context.Context, w WorkLocation) error
}

type Service struct{ repo Repository }

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// GetWorkLocation: 未設定のテナントは無効状態の既定値を返す
func (s *Service) GetWorkLocation(ctx context.Context, tenant string) (WorkLocation, error) {
	if tenant == "" {
		return WorkLocation{}, apierr.ErrInvalid("subdomain is required")
	}
	w, err := s.repo.Get(ctx, tenant)
	if err != nil {
		return WorkLocation{}, err
	}
	if w == nil {
		return WorkLocation{Tenant: tenant, RadiusMeters: DefaultRadiusMeters}, nil
	}
	return *w, nil
}

// UpdateWorkLocation: 指定された項目だけ上書きする
func (s *Service) UpdateWorkLocation(ctx context.Context, req UpdateWorkLocationRequest) (WorkLocation, error) {
	cur, err := s.GetWorkLocation(ctx, req.Subdomain)
	if err != nil {
		return WorkLocation{}, err
	}

	if req.Latitude != nil {
		if !finite(*req.Latitude) || math.Abs(*req.Latitude) > 90 {
			return WorkLocation{}, apierr.ErrInvalid("latitude must be between -90 and 90")
		}
		cur.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		if !finite(*req.Longitude) || math.Abs(*req.Longitude) > 180 {
			return WorkLocation{}, apierr.ErrInvalid("longitude must be between -180 and 180")
		}
		cur.Longitude = req.Longitude
	}
	if req.RadiusMeters != nil {
		if !finite(*req.RadiusMeters) || *req.RadiusMeters < 0 {
			return WorkLocation{}, apierr.ErrInvalid("radius must be >= 0")
		}
		cur.RadiusMeters = *req.RadiusMeters
	}
	if req.Enabled != nil {
		cur.Enabled = *req.Enabled
	}
	if cur.Enabled && !cur.HasCenter() {
		return WorkLocation{}, apierr.ErrInvalid("latitude and longitude are required to enable geofencing")
	}

	if err := s.repo.Upsert(ctx, cur); err != nil {
		return WorkLocation{}, err
	}
	return cur, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
