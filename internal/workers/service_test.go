package workers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"CipherGate-backend/internal/face"
	"CipherGate-backend/internal/platform/apierr"
	"CipherGate-backend/internal/uploads"
)

type fakeRepo struct {
	workers map[uint64]*Worker
	photos  map[uint64][]string
	addErr  error
}

func newFakeRepo(ws ...Worker) *fakeRepo {
	r := &fakeRepo{workers: map[uint64]*Worker{}, photos: map[uint64][]string{}}
	for i := range ws {
		w := ws[i]
		r.workers[w.ID] = &w
	}
	return r
}

func (r *fakeRepo) ByID(_ context.Context, tenant string, id uint64) (*Worker, error) {
	w, ok := r.workers[id]
	if !ok || w.Tenant != tenant {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *fakeRepo) AddFacePhoto(_ context.Context, id uint64, url string, enc []float64) (int, error) {
	if r.addErr != nil {
		return 0, r.addErr
	}
	r.photos[id] = append(r.photos[id], url)
	r.workers[id].FaceEncoding = enc
	return len(r.photos[id]), nil
}

func (r *fakeRepo) ClearFace(_ context.Context, id uint64) ([]string, error) {
	urls := r.photos[id]
	delete(r.photos, id)
	r.workers[id].FaceEncoding = nil
	return urls, nil
}

func (r *fakeRepo) DeleteFacePhoto(_ context.Context, id uint64, index int) (string, int, error) {
	ps := r.photos[id]
	if index < 0 || index >= len(ps) {
		return "", 0, ErrPhotoIndex
	}
	url := ps[index]
	r.photos[id] = append(ps[:index:index], ps[index+1:]...)
	if len(r.photos[id]) == 0 {
		r.workers[id].FaceEncoding = nil
	}
	return url, len(r.photos[id]), nil
}

type fakeEncoder struct {
	vec []float64
	err error
}

func (e fakeEncoder) Encode(context.Context, string) ([]float64, error) { return e.vec, e.err }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var goodVector = []float64{0.31, -0.22, 0.18, -0.05, 0.27, -0.19, 0.08, -0.3}

func setup(t *testing.T, enc face.Encoder) (*Service, *fakeRepo, *uploads.Storage) {
	t.Helper()
	root := t.TempDir()
	st, err := uploads.New(filepath.Join(root, "faces"), filepath.Join(root, "tmp"), "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	repo := newFakeRepo(Worker{ID: 7, Tenant: "acme", Name: "Asha"})
	svc := NewService(repo, enc, st)
	svc.clock = fixedClock{time.UnixMilli(1700000000000)}
	return svc, repo, st
}

func tempImage(t *testing.T, st *uploads.Storage) *uploads.TempFile {
	t.Helper()
	p := filepath.Join(st.TempDir, "probe.jpg")
	if err := os.WriteFile(p, []byte("img"), 0o600); err != nil {
		t.Fatal(err)
	}
	return &uploads.TempFile{Path: p, Ext: ".jpg"}
}

func wantCode(t *testing.T, err error, code apierr.Code) {
	t.Helper()
	var api *apierr.APIError
	if !errors.As(err, &api) || api.Code != code {
		t.Fatalf("err = %v, want %s", err, code)
	}
}

func TestEnrollFace(t *testing.T) {
	svc, repo, st := setup(t, fakeEncoder{vec: goodVector})
	img := tempImage(t, st)

	res, err := svc.EnrollFace(context.Background(), "acme", 7, img)
	if err != nil {
		t.Fatalf("EnrollFace: %v", err)
	}
	if res.FacePhotoURL != "/uploads/face_7_1700000000000.jpg" || res.FacePhotosCount != 1 {
		t.Errorf("res = %+v", res)
	}
	if !repo.workers[7].Enrolled() {
		t.Error("encoding not stored")
	}
	if _, err := os.Stat(filepath.Join(st.Dir, "face_7_1700000000000.jpg")); err != nil {
		t.Errorf("photo not persisted: %v", err)
	}
}

func TestEnrollFaceRejections(t *testing.T) {
	cases := []struct {
		name   string
		tenant string
		id     uint64
		enc    fakeEncoder
		code   apierr.Code
	}{
		{"missing tenant", "", 7, fakeEncoder{vec: goodVector}, apierr.CodeInvalidArgument},
		{"unknown worker", "acme", 99, fakeEncoder{vec: goodVector}, apierr.CodeNotFound},
		{"other tenant", "globex", 7, fakeEncoder{vec: goodVector}, apierr.CodeNotFound},
		{"encoder reports", "acme", 7, fakeEncoder{err: &face.EncodeError{Message: "No face detected in the image"}}, apierr.CodeInvalidArgument},
		{"low variance", "acme", 7, fakeEncoder{vec: []float64{0.5, 0.52, 0.49, 0.51}}, apierr.CodeInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, st := setup(t, tc.enc)
			img := tempImage(t, st)
			_, err := svc.EnrollFace(context.Background(), tc.tenant, tc.id, img)
			wantCode(t, err, tc.code)
			if len(repo.photos[7]) != 0 {
				t.Error("photo recorded on failure")
			}
			entries, _ := os.ReadDir(st.Dir)
			if len(entries) != 0 {
				t.Error("file persisted on failure")
			}
		})
	}
}

func TestEnrollFaceEncoderFailureIsInternal(t *testing.T) {
	svc, _, st := setup(t, fakeEncoder{err: face.ErrEncoderFailed})
	_, err := svc.EnrollFace(context.Background(), "acme", 7, tempImage(t, st))
	if apierr.ToHTTPStatus(err) != 500 {
		t.Fatalf("status = %d, want 500", apierr.ToHTTPStatus(err))
	}
}

func TestEnrollFaceRemovesPhotoWhenSaveFails(t *testing.T) {
	svc, repo, st := setup(t, fakeEncoder{vec: goodVector})
	repo.addErr = errors.New("db down")
	if _, err := svc.EnrollFace(context.Background(), "acme", 7, tempImage(t, st)); err == nil {
		t.Fatal("want error")
	}
	entries, _ := os.ReadDir(st.Dir)
	if len(entries) != 0 {
		t.Errorf("orphan photo left: %v", entries)
	}
}

func TestDeleteAndClearFacePhotos(t *testing.T) {
	svc, repo, st := setup(t, fakeEncoder{vec: goodVector})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		svc.clock = fixedClock{time.UnixMilli(int64(1700000000000 + i))}
		if _, err := svc.EnrollFace(ctx, "acme", 7, tempImage(t, st)); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := svc.DeleteFacePhoto(ctx, "acme", 7, 5); err == nil {
		t.Fatal("out of range index accepted")
	} else {
		wantCode(t, err, apierr.CodeInvalidArgument)
	}

	remaining, err := svc.DeleteFacePhoto(ctx, "acme", 7, 0)
	if err != nil || remaining != 1 {
		t.Fatalf("DeleteFacePhoto = %d, %v", remaining, err)
	}
	if !repo.workers[7].Enrolled() {
		t.Error("encoding cleared while photos remain")
	}

	if err := svc.ClearFacePhotos(ctx, "acme", 7); err != nil {
		t.Fatalf("ClearFacePhotos: %v", err)
	}
	if repo.workers[7].Enrolled() {
		t.Error("encoding not cleared")
	}
	entries, _ := os.ReadDir(st.Dir)
	if len(entries) != 0 {
		t.Errorf("files left: %d", len(entries))
	}
}

func TestNormalizeBadge(t *testing.T) {
	cases := map[string]string{
		"A1B2C3":      "A1B2C3",
		" 0012345 ":   "0012345",
		"００１２３４５":     "0012345",
		"ＡＢＣ－１２":      "ABC-12",
		"\t12345\r\n": "12345",
	}
	for in, want := range cases {
		if got := NormalizeBadge(in); got != want {
			t.Errorf("NormalizeBadge(%q) = %q, want %q", in, got, want)
		}
	}
}
