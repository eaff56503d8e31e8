package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"CipherGate-backend/internal/face"
	"CipherGate-backend/internal/platform/apierr"
	"CipherGate-backend/internal/uploads"
)

// Repository: Service が使う永続化操作（*Store が実装）
type Repository interface {
	ByID(ctx context.Context, tenant string, id uint64) (*Worker, error)
	AddFacePhoto(ctx context.Context, workerID uint64, url string, encoding []float64) (int, error)
	ClearFace(ctx context.Context, workerID uint64) ([]string, error)
	DeleteFacePhoto(ctx context.Context, workerID uint64, index int) (string, int, error)
}

// PhotoStorage: 一時ファイルの本保存と削除（*uploads.Storage が実装）
type PhotoStorage interface {
	Persist(t *uploads.TempFile, baseName string) (string, error)
	Remove(url string) error
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Service struct {
	repo    Repository
	encoder face.Encoder
	photos  PhotoStorage
	clock   Clock
}

func NewService(repo Repository, enc face.Encoder, photos PhotoStorage) *Service {
	return &Service{repo: repo, encoder: enc, photos: photos, clock: realClock{}}
}

func (s *Service) lookup(ctx context.Context, tenant string, id uint64) (*Worker, error) {
	if tenant == "" {
		return nil, apierr.ErrInvalid("subdomain is required")
	}
	w, err := s.repo.ByID(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apierr.ErrNotFound("Worker not found")
	}
	return w, nil
}

// EnrollFace: 顔写真から特徴量を作って登録する。成功時は一時ファイルを本保存へ移す
func (s *Service) EnrollFace(ctx context.Context, tenant string, workerID uint64, img *uploads.TempFile) (EnrollFaceResponse, error) {
	w, err := s.lookup(ctx, tenant, workerID)
	if err != nil {
		return EnrollFaceResponse{}, err
	}

	enc, err := s.encoder.Encode(ctx, img.Path)
	if err != nil {
		var ee *face.EncodeError
		if errors.As(err, &ee) {
			return EnrollFaceResponse{}, apierr.ErrInvalid(ee.Message)
		}
		return EnrollFaceResponse{}, err
	}

	// 登録時は照合時より厳しい分散を要求する
	if err := face.ValidateEncoding(enc, face.MinEnrollVariance); err != nil {
		if errors.Is(err, face.ErrLowQuality) {
			return EnrollFaceResponse{}, apierr.ErrInvalid("Low quality face encoding detected. Please ensure good lighting and try again.")
		}
		return EnrollFaceResponse{}, apierr.ErrInvalid("Invalid values in face encoding")
	}

	name := fmt.Sprintf("face_%d_%d", w.ID, s.clock.Now().UnixMilli())
	url, err := s.photos.Persist(img, name)
	if err != nil {
		return EnrollFaceResponse{}, err
	}

	count, err := s.repo.AddFacePhoto(ctx, w.ID, url, enc)
	if err != nil {
		if rmErr := s.photos.Remove(url); rmErr != nil {
			log.Printf("[WARN] orphan face photo %s: %v", url, rmErr)
		}
		return EnrollFaceResponse{}, err
	}

	log.Printf("[INFO] face enrolled: worker=%d tenant=%s photos=%d", w.ID, tenant, count)
	return EnrollFaceResponse{
		Message:         "Face enrolled successfully",
		FacePhotosCount: count,
		FacePhotoURL:    url,
	}, nil
}

// ClearFacePhotos: 写真と顔データを全て消す
func (s *Service) ClearFacePhotos(ctx context.Context, tenant string, workerID uint64) error {
	w, err := s.lookup(ctx, tenant, workerID)
	if err != nil {
		return err
	}
	urls, err := s.repo.ClearFace(ctx, w.ID)
	if err != nil {
		return err
	}
	s.removeFiles(urls...)
	return nil
}

// DeleteFacePhoto: 1枚だけ消す。残数を返す
func (s *Service) DeleteFacePhoto(ctx context.Context, tenant string, workerID uint64, index int) (int, error) {
	w, err := s.lookup(ctx, tenant, workerID)
	if err != nil {
		return 0, err
	}
	url, remaining, err := s.repo.DeleteFacePhoto(ctx, w.ID, index)
	if errors.Is(err, ErrPhotoIndex) {
		return 0, apierr.ErrInvalid("Invalid photo index")
	}
	if err != nil {
		return 0, err
	}
	s.removeFiles(url)
	return remaining, nil
}

// ファイル削除の失敗は記録だけして続行
func (s *Service) removeFiles(urls ...string) {
	for _, u := range urls {
		if err := s.photos.Remove(u); err != nil {
			log.Printf("[WARN] remove face photo %s: %v", u, err)
		}
	}
}
