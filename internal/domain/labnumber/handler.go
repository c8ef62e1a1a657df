package labnumber

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts issuance under both /lab and /number; the two
// paths are served by the same handlers.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/lab/generate", h.IssueLabNumber)
	api.GET("/lab/number", h.ListLabNumbers)

	api.POST("/number", h.IssueLabNumber)
	api.GET("/number", h.ListLabNumbers)
	api.GET("/number/:number", h.GetLabNumber)
}

func (h *Handler) IssueLabNumber(c echo.Context) error {
	var req IssueRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	t, err := h.svc.Issue(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetLabNumber(c echo.Context) error {
	t, err := h.svc.Lookup(c.Request().Context(), c.Param("number"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListLabNumbers(c echo.Context) error {
	pg := pagination.FromContext(c)
	f, err := pagination.FilterFromContext(c)
	if err != nil {
		return apperr.Validation("%s", err.Error())
	}
	tickets, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(tickets, total, pg.Limit, pg.Offset))
}
