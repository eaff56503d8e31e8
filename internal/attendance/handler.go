package attendance

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"CipherGate-backend/internal/platform/apierr"
	"CipherGate-backend/internal/platform/auth"
	"CipherGate-backend/internal/uploads"
)

type Handler struct {
	svc   *Service
	files *uploads.Storage
}

// RegisterRoutes: バッジ打刻は端末から直接叩かれるので認証なし。
// requireAuth は顔認証・位置確認・一覧にだけ掛ける
func RegisterRoutes(r gin.IRoutes, svc *Service, files *uploads.Storage, requireAuth gin.HandlerFunc) {
	h := &Handler{svc: svc, files: files}

	// 1. バッジ打刻
	r.PUT("/attendance", h.BadgePunch)
	r.POST("/attendance/rfid", h.RFIDPunch)

	// 2. 顔認証打刻と事前の位置確認
	r.POST("/attendance/face", requireAuth, h.FacePunch)
	r.POST("/attendance/check-location", requireAuth, h.CheckLocation)

	// 3. 一覧
	r.GET("/attendance", requireAuth, h.List)
	r.GET("/attendance/worker", requireAuth, h.ListByWorker)
}

// ---------- handlers ----------

// BadgePunch godoc
// @Summary      RFID 打刻（テナント指定）
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        body  body  BadgePunchRequest  true  "rfid と subdomain"
// @Success      201  {object}  PunchResponse
// @Failure      401  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Failure      429  {object}  map[string]interface{}
// @Router       /attendance [put]
func (h *Handler) BadgePunch(c *gin.Context) {
	var req BadgePunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.ErrInvalid("invalid json")))
		return
	}
	res, err := h.svc.BadgePunch(c.Request.Context(), req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// RFIDPunch godoc
// @Summary      RFID 打刻（テナントは従業員から解決）
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        body  body  RFIDPunchRequest  true  "rfid"
// @Success      201  {object}  PunchResponse
// @Failure      404  {object}  map[string]interface{}
// @Failure      429  {object}  map[string]interface{}
// @Router       /attendance/rfid [post]
func (h *Handler) RFIDPunch(c *gin.Context) {
	var req RFIDPunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.ErrInvalid("invalid json")))
		return
	}
	res, err := h.svc.RFIDPunch(c.Request.Context(), req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// FacePunch godoc
// @Summary      顔認証打刻
// @Tags         attendance
// @Accept       multipart/form-data
// @Produce      json
// @Param        face_photo  formData  file    true   "顔写真"
// @Param        subdomain   formData  string  true   "テナント"
// @Param        latitude    formData  number  false  "緯度"
// @Param        longitude   formData  number  false  "経度"
// @Param        accuracy    formData  number  false  "精度(m)"
// @Success      201  {object}  PunchResponse
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Failure      429  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /attendance/face [post]
func (h *Handler) FacePunch(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierr.Body(apierr.ErrUnauthenticated("not authorized")))
		return
	}

	fh, err := c.FormFile("face_photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.ErrInvalid("No image file uploaded")))
		return
	}

	in := FacePunchInput{Tenant: c.PostForm("subdomain"), Principal: p}
	for _, f := range []struct {
		name string
		dst  **float64
	}{
		{"latitude", &in.Latitude},
		{"longitude", &in.Longitude},
		{"accuracy", &in.Accuracy},
	} {
		v, err := parseOptionalFloat(c.PostForm(f.name))
		if err != nil {
			c.JSON(http.StatusBadRequest, apierr.Body(apierr.ErrInvalid(f.name+" must be a number")))
			return
		}
		*f.dst = v
	}

	tmp, err := h.files.SaveTemp(fh)
	if err != nil {
		if errors.Is(err, uploads.ErrNotImage) || errors.Is(err, uploads.ErrTooLarge) {
			c.JSON(http.StatusBadRequest, apierr.Body(apierr.ErrInvalid(err.Error())))
			return
		}
		apierr.Respond(c, err)
		return
	}
	// 照合に使った写真は結果に関わらず残さない
	defer tmp.Release()
	in.ImagePath = tmp.Path

	res, err := h.svc.FacePunch(c.Request.Context(), in)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// CheckLocation godoc
// @Summary      勤務地内にいるかの事前確認
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        body  body  CheckLocationRequest  true  "subdomain と座標"
// @Success      200  {object}  CheckLocationResponse
// @Failure      403  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /attendance/check-location [post]
func (h *Handler) CheckLocation(c *gin.Context) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierr.Body(apierr.ErrUnauthenticated("not authorized")))
		return
	}
	var req CheckLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.ErrInvalid("invalid json")))
		return
	}
	res, err := h.svc.CheckLocation(c.Request.Context(), p, req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// List godoc
// @Summary      テナントの打刻一覧
// @Tags         attendance
// @Produce      json
// @Param        subdomain  query  string  true   "テナント"
// @Param        limit      query  int     false  "件数"
// @Param        offset     query  int     false  "開始位置"
// @Param        sort       query  string  false  "created_at_desc | created_at_asc"
// @Success      200  {object}  ListResponse
// @Security     BearerAuth
// @Router       /attendance [get]
func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context(), listQuery(c))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListByWorker godoc
// @Summary      従業員ごとの打刻一覧
// @Tags         attendance
// @Produce      json
// @Param        subdomain  query  string  true   "テナント"
// @Param        rfid       query  string  true   "RFID"
// @Param        limit      query  int     false  "件数"
// @Param        offset     query  int     false  "開始位置"
// @Success      200  {object}  ListResponse
// @Security     BearerAuth
// @Router       /attendance/worker [get]
func (h *Handler) ListByWorker(c *gin.Context) {
	q := listQuery(c)
	rfid := c.Query("rfid")
	q.BadgeCode = &rfid
	res, err := h.svc.ListByWorker(c.Request.Context(), q)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

func listQuery(c *gin.Context) ListQuery {
	return ListQuery{
		Tenant: c.Query("subdomain"),
		Limit:  parseIntDefault(c.Query("limit"), DefaultPageLimit),
		Offset: parseIntDefault(c.Query("offset"), 0),
		Sort:   c.DefaultQuery("sort", DefaultSort),
	}
}

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

// 空文字は未指定扱い
func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	// NaN/Inf は座標として受け付けない
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, strconv.ErrRange
	}
	return &v, nil
}
