package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"CipherGate-backend/internal/platform/apierr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/settings/work-location", h.GetWorkLocation)
	r.PUT("/settings/work-location", h.UpdateWorkLocation)
}

// GetWorkLocation godoc
// @Summary      勤務地設定の取得
// @Tags         settings
// @Produce      json
// @Param        subdomain  query  string  true  "テナント"
// @Success      200  {object}  WorkLocation
// @Security     BearerAuth
// @Router       /settings/work-location [get]
func (h *Handler) GetWorkLocation(c *gin.Context) {
	res, err := h.svc.GetWorkLocation(c.Request.Context(), c.Query("subdomain"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UpdateWorkLocation godoc
// @Summary      勤務地設定の更新
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body  UpdateWorkLocationRequest  true  "設定"
// @Success      200  {object}  WorkLocation
// @Failure      400  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /settings/work-location [put]
func (h *Handler) UpdateWorkLocation(c *gin.Context) {
	var req UpdateWorkLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.ErrInvalid("invalid json or missing required fields")))
		return
	}
	res, err := h.svc.UpdateWorkLocation(c.Request.Context(), req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
