package workers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"CipherGate-backend/internal/platform/apierr"
	"CipherGate-backend/internal/uploads"
)

type Handler struct {
	svc   *Service
	files *uploads.Storage
}

// RegisterRoutes: admin 限定のグループに載せる想定
func RegisterRoutes(r gin.IRoutes, svc *Service, files *uploads.Storage) {
	h := &Handler{svc: svc, files: files}

	r.POST("/workers/enroll-face", h.EnrollFace)
	r.DELETE("/workers/:id/face-photos", h.ClearFacePhotos)
	r.DELETE("/workers/:id/face-photos/:index", h.DeleteFacePhoto)
}

// EnrollFace godoc
// @Summary      顔写真の登録
// @Tags         workers
// @Accept       multipart/form-data
// @Produce      json
// @Param        face_photo  formData  file    true  "顔写真"
// @Param        workerId    formData  int     true  "従業員ID"
// @Param        subdomain   formData  string  true  "テナント"
// @Success      200  {object}  EnrollFaceResponse
// @Failure      400  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /workers/enroll-face [post]
func (h *Handler) EnrollFace(c *gin.Context) {
	fh, err := c.FormFile("face_photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.ErrInvalid("No image uploaded")))
		return
	}
	workerID, err := strconv.ParseUint(c.PostForm("workerId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.ErrInvalid("workerId is required")))
		return
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
	defer tmp.Release()

	res, err := h.svc.EnrollFace(c.Request.Context(), c.PostForm("subdomain"), workerID, tmp)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ClearFacePhotos godoc
// @Summary      顔写真と顔データの全削除
// @Tags         workers
// @Produce      json
// @Param        id         path   int     true  "従業員ID"
// @Param        subdomain  query  string  true  "テナント"
// @Success      200  {object}  MessageResponse
// @Failure      404  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /workers/{id}/face-photos [delete]
func (h *Handler) ClearFacePhotos(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.ErrInvalid("invalid worker id")))
		return
	}
	if err := h.svc.ClearFacePhotos(c.Request.Context(), c.Query("subdomain"), id); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Face photos cleared successfully"})
}

// DeleteFacePhoto godoc
// @Summary      顔写真を1枚削除
// @Tags         workers
// @Produce      json
// @Param        id         path   int     true  "従業員ID"
// @Param        index      path   int     true  "登録順のインデックス"
// @Param        subdomain  query  string  true  "テナント"
// @Success      200  {object}  DeleteFacePhotoResponse
// @Failure      400  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /workers/{id}/face-photos/{index} [delete]
func (h *Handler) DeleteFacePhoto(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.ErrInvalid("invalid worker id")))
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.ErrInvalid("Invalid photo index")))
		return
	}
	remaining, err := h.svc.DeleteFacePhoto(c.Request.Context(), c.Query("subdomain"), id, index)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, DeleteFacePhotoResponse{Message: "Face photo deleted successfully", RemainingPhotos: remaining})
}
