package attendance

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"CipherGate-backend/internal/face"
	"CipherGate-backend/internal/platform/auth"
	"CipherGate-backend/internal/uploads"
)

// X-Test-User: "id:role" をそのまま主体として積む
func fakeAuth(c *gin.Context) {
	v := c.GetHeader("X-Test-User")
	id, role, ok := strings.Cut(v, ":")
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
		return
	}
	c.Set(auth.CtxUserIDKey, id)
	c.Set(auth.CtxRoleKey, role)
	c.Next()
}

func newRouter(t *testing.T) (*gin.Engine, *fixture, *uploads.Storage) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	root := t.TempDir()
	st, err := uploads.New(filepath.Join(root, "faces"), filepath.Join(root, "tmp"), "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	r := gin.New()
	RegisterRoutes(r, f.svc, st, fakeAuth)
	return r, f, st
}

func faceRequest(t *testing.T, user string, fields map[string]string, withFile bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if withFile {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="face_photo"; filename="probe.jpg"`)
		h.Set("Content-Type", "image/jpeg")
		part, _ := mw.CreatePart(h)
		part.Write([]byte("jpeg-bytes"))
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/attendance/face", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Error map[string]any `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestFacePunchHandlerReleasesTempFile(t *testing.T) {
	cases := []struct {
		name     string
		user     string
		fields   map[string]string
		withFile bool
		setup    func(f *fixture)
		want     int
	}{
		{"success", "900:admin", map[string]string{"subdomain": "acme"}, true, nil, http.StatusCreated},
		{"unauthenticated", "", map[string]string{"subdomain": "acme"}, true, nil, http.StatusUnauthorized},
		{"no image", "900:admin", map[string]string{"subdomain": "acme"}, false, nil, http.StatusBadRequest},
		{"bad latitude", "1:worker", map[string]string{"subdomain": "acme", "latitude": "north", "longitude": "77"}, true, nil, http.StatusBadRequest},
		{"nan latitude", "1:worker", map[string]string{"subdomain": "acme", "latitude": "NaN", "longitude": "77"}, true, nil, http.StatusBadRequest},
		{"missing tenant", "900:admin", map[string]string{}, true, nil, http.StatusUnauthorized},
		{"unregistered", "900:admin", map[string]string{"subdomain": "acme"}, true, func(f *fixture) {
			f.enc.vec = scaled(ashaVec, 2)
		}, http.StatusNotFound},
		{"encoder error", "900:admin", map[string]string{"subdomain": "acme"}, true, func(f *fixture) {
			f.enc.err = &face.EncodeError{Message: "No face detected in the image"}
		}, http.StatusBadRequest},
		{"outside geofence", "1:worker", map[string]string{"subdomain": "acme", "latitude": "12.9816", "longitude": "77.5946"}, true, func(f *fixture) {
			f.locs.wl = office
		}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, f, st := newRouter(t)
			if tc.setup != nil {
				tc.setup(f)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, faceRequest(t, tc.user, tc.fields, tc.withFile))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
			entries, err := os.ReadDir(st.TempDir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 0 {
				t.Errorf("temp files left: %d", len(entries))
			}
		})
	}
}

func TestFacePunchHandlerBodies(t *testing.T) {
	r, f, _ := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, faceRequest(t, "900:admin", map[string]string{"subdomain": "acme"}, true))
	var ok PunchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &ok); err != nil {
		t.Fatal(err)
	}
	if ok.Worker == nil || ok.Attendance.AttendanceMethod != "face_recognition" || ok.Confidence == nil {
		t.Errorf("body = %s", rec.Body.String())
	}

	f.clock.Advance(5 * time.Minute)
	f.enc.vec = scaled(ashaVec, 2)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, faceRequest(t, "900:admin", map[string]string{"subdomain": "acme"}, true))
	e := decodeError(t, rec)
	if e["is_unsaved_face"] != true || e["suggestion"] == nil || e["code"] != "NOT_FOUND" {
		t.Errorf("error = %v", e)
	}
}

func TestBadgePunchHandler(t *testing.T) {
	r, _, _ := newRouter(t)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPut, "/attendance", `{"rfid":"RF001","subdomain":"acme"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("PUT = %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(http.MethodPut, "/attendance", `{"rfid":"RF001","subdomain":"acme"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second PUT = %d", rec.Code)
	}
	if e := decodeError(t, rec); e["retry_after_minutes"] != float64(2) {
		t.Errorf("error = %v", e)
	}

	if rec := do(http.MethodPost, "/attendance/rfid", `{"rfid":"RF004"}`); rec.Code != http.StatusCreated {
		t.Errorf("rfid = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodPut, "/attendance", `not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d", rec.Code)
	}
}

func TestListHandlers(t *testing.T) {
	r, f, _ := newRouter(t)
	if _, err := f.svc.BadgePunch(noCtx, BadgePunchRequest{RFID: "RF001", Subdomain: "acme"}); err != nil {
		t.Fatal(err)
	}

	get := func(path, user string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := get("/attendance?subdomain=acme", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous = %d", rec.Code)
	}
	rec := get("/attendance?subdomain=acme", "900:admin")
	var res ListResponse
	json.Unmarshal(rec.Body.Bytes(), &res)
	if rec.Code != http.StatusOK || res.Total != 1 {
		t.Errorf("list = %d %s", rec.Code, rec.Body.String())
	}
	if rec := get("/attendance/worker?subdomain=acme&rfid=RF001", "900:admin"); rec.Code != http.StatusOK {
		t.Errorf("worker list = %d", rec.Code)
	}
	if rec := get("/attendance/worker?subdomain=acme", "900:admin"); rec.Code != http.StatusUnauthorized {
		t.Errorf("worker list without rfid = %d", rec.Code)
	}
}

func TestCheckLocationHandler(t *testing.T) {
	r, f, _ := newRouter(t)
	f.locs.wl = office

	post := func(user, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/attendance/check-location", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-User", user)
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := post("1:worker", `{"subdomain":"acme","latitude":12.9716,"longitude":77.5946}`); rec.Code != http.StatusOK {
		t.Errorf("inside = %d: %s", rec.Code, rec.Body.String())
	}
	rec := post("1:worker", `{"subdomain":"acme","latitude":12.9816,"longitude":77.5946}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outside = %d", rec.Code)
	}
	if e := decodeError(t, rec); e["allowed"] != false || e["distance"] == nil {
		t.Errorf("error = %v", e)
	}
	if rec := post("900:admin", `{"subdomain":"acme"}`); rec.Code != http.StatusForbidden {
		t.Errorf("admin = %d", rec.Code)
	}
}
