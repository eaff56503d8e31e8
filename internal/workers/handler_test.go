package workers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
)

func enrollRequest(t *testing.T, fields map[string]string, withFile bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if withFile {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="face_photo"; filename="me.jpg"`)
		h.Set("Content-Type", "image/jpeg")
		part, _ := mw.CreatePart(h)
		part.Write([]byte("jpeg"))
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/workers/enroll-face", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestEnrollFaceHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _, st := setup(t, fakeEncoder{vec: goodVector})
	r := gin.New()
	RegisterRoutes(r, svc, st)

	cases := []struct {
		name     string
		fields   map[string]string
		withFile bool
		want     int
	}{
		{"ok", map[string]string{"workerId": "7", "subdomain": "acme"}, true, http.StatusOK},
		{"no file", map[string]string{"workerId": "7", "subdomain": "acme"}, false, http.StatusBadRequest},
		{"bad worker id", map[string]string{"workerId": "x", "subdomain": "acme"}, true, http.StatusBadRequest},
		{"unknown worker", map[string]string{"workerId": "8", "subdomain": "acme"}, true, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, enrollRequest(t, tc.fields, tc.withFile))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
			// どの経路でも一時ファイルは残らない
			entries, _ := os.ReadDir(st.TempDir)
			if len(entries) != 0 {
				t.Errorf("temp files left: %d", len(entries))
			}
		})
	}
}

func TestDeleteFacePhotoHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, repo, st := setup(t, fakeEncoder{vec: goodVector})
	repo.photos[7] = []string{"/uploads/a.jpg", "/uploads/b.jpg"}
	repo.workers[7].FaceEncoding = goodVector
	r := gin.New()
	RegisterRoutes(r, svc, st)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/workers/7/face-photos/1?subdomain=acme", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body DeleteFacePhotoResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.RemainingPhotos != 1 {
		t.Errorf("remaining = %d", body.RemainingPhotos)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/workers/7/face-photos/x?subdomain=acme", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad index status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/workers/7/face-photos?subdomain=acme", nil))
	if rec.Code != http.StatusOK || repo.workers[7].Enrolled() {
		t.Errorf("clear status = %d enrolled=%v", rec.Code, repo.workers[7].Enrolled())
	}
}
