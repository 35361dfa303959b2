package api

import (
	"errors"
	"net/http"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/usecase"
	xhttp "MarketPulse/pkg/http"
	xlogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PulseHandler serves the registry and pulse endpoints. One generic handler
// covers every pulse kind; the kind is a path parameter.
type PulseHandler struct {
	logger   *xlogger.Logger
	registry *usecase.MarketRegistry
	store    *usecase.PulseStore
}

func NewPulseHandler(l *xlogger.Logger, registry *usecase.MarketRegistry, store *usecase.PulseStore) *PulseHandler {
	return &PulseHandler{logger: l, registry: registry, store: store}
}

func (h *PulseHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/markets", h.ListMarkets)
	g.POST("/markets", h.CreateMarket)
	g.GET("/pulses/:kind", h.ListPulses)
	g.POST("/pulses/:kind", h.CreatePulse)
	e.GET("/healthz", h.Health)
}

func (h *PulseHandler) CreateMarket(c echo.Context) error {
	req := &models.CreateMarketRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	m, err := h.registry.Create(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return xhttp.CreatedResponse(c, m)
}

func (h *PulseHandler) ListMarkets(c echo.Context) error {
	markets, err := h.registry.List(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return xhttp.ListResponse(c, markets, int64(len(markets)))
}

func (h *PulseHandler) CreatePulse(c echo.Context) error {
	kind, err := models.ParseKind(c.Param("kind"))
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("unknown pulse kind"))
	}

	raw := map[string]any{}
	if err := c.Bind(&raw); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("request body must be a JSON object"))
	}
	marketID, _ := raw["marketId"].(string)

	p, err := h.store.Create(c.Request().Context(), kind, marketID, raw)
	if err != nil {
		return h.respondError(c, err)
	}
	return xhttp.CreatedResponse(c, p)
}

func (h *PulseHandler) ListPulses(c echo.Context) error {
	kind, err := models.ParseKind(c.Param("kind"))
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("unknown pulse kind"))
	}

	// limit/offset fall back to defaults on absent or non-numeric input.
	q := models.ListPulsesQuery{
		MarketID: c.QueryParam("marketId"),
		Limit:    xhttp.ParseIntDefault(c.QueryParam("limit"), models.DefaultListLimit),
		Offset:   xhttp.ParseIntDefault(c.QueryParam("offset"), 0),
	}

	pulses, err := h.store.List(c.Request().Context(), kind, q)
	if err != nil {
		return h.respondError(c, err)
	}
	return xhttp.ListResponse(c, pulses, int64(len(pulses)))
}

func (h *PulseHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, "storage unreachable")
	}
	return xhttp.SuccessResponse(c, "ok")
}

// respondError translates domain errors into AppErrors and writes them
// through the shared envelope. Storage faults are logged here and surfaced
// without internal detail.
func (h *PulseHandler) respondError(c echo.Context, err error) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		out := make([]xhttp.ValidationError, 0, len(verr.Violations))
		for _, v := range verr.Violations {
			ve := xhttp.ValidationError{
				Code:    "ERR_VALIDATION",
				Field:   v.Field,
				Message: v.Field + " " + v.Constraint,
			}
			if v.Value != nil {
				ve.Params = map[string]interface{}{"value": v.Value}
			}
			out = append(out, ve)
		}
		return xhttp.BadRequestResponse(c, out)
	}

	var nferr *models.NotFoundError
	if errors.As(err, &nferr) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(nferr.Error()))
	}

	var cerr *models.ConflictError
	if errors.As(err, &cerr) {
		return xhttp.AppErrorResponse(c, xhttp.ConflictError(cerr.Error()))
	}

	h.logger.Error("request failed", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("Something went wrong").WithError(err))
}
