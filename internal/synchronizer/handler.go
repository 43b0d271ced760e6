package synchronizer

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/auth"
	"github.com/CreativeC0der/nppd-care-connect-sub000/pkg/pagination"
)

// Lookup finds the synchronizer of a source. *registry.Registry implements
// it.
type Lookup interface {
	Lookup(source string) (*Synchronizer, error)
}

// Handler exposes sync triggers over HTTP. Runs are synchronous: the
// response carries the aggregate result.
type Handler struct {
	sources Lookup
	// unknown reports whether err means the source does not exist.
	unknown func(err error) bool
	// base bounds every run; client disconnects do not.
	base context.Context
}

func NewHandler(sources Lookup, unknown func(err error) bool) *Handler {
	return &Handler{sources: sources, unknown: unknown, base: context.Background()}
}

// WithBaseContext makes runs stop when ctx is done, typically on server
// shutdown.
func (h *Handler) WithBaseContext(ctx context.Context) *Handler {
	h.base = ctx
	return h
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/sources/:source", auth.RequireRole("admin", "integration"))
	g.POST("/sync", h.SyncAll)
	g.POST("/sync/:type", h.SyncType)
	g.POST("/practitioners/:id/sync", h.SyncPractitioner)
	g.GET("/sync/status", h.Status)
	g.GET("/sync/runs", h.ListRuns)
}

func (h *Handler) source(c echo.Context) (*Synchronizer, error) {
	s, err := h.sources.Lookup(c.Param("source"))
	if err != nil {
		if h.unknown != nil && h.unknown(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return s, nil
}

func (h *Handler) SyncAll(c echo.Context) error {
	s, err := h.source(c)
	if err != nil {
		return err
	}
	return h.respond(c, func(ctx context.Context) (*Result, error) { return s.SyncAll(ctx) })
}

func (h *Handler) SyncType(c echo.Context) error {
	s, err := h.source(c)
	if err != nil {
		return err
	}
	k, err := ParseKind(c.Param("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.respond(c, func(ctx context.Context) (*Result, error) { return s.SyncType(ctx, k) })
}

func (h *Handler) SyncPractitioner(c echo.Context) error {
	s, err := h.source(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	return h.respond(c, func(ctx context.Context) (*Result, error) { return s.SyncPractitioner(ctx, id) })
}

func (h *Handler) Status(c echo.Context) error {
	s, err := h.source(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Status())
}

func (h *Handler) ListRuns(c echo.Context) error {
	s, err := h.source(c)
	if err != nil {
		return err
	}
	p := pagination.FromContext(c)
	runs, total, err := s.Runs(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(runs, total, p))
}

// respond runs fn and maps its outcome to a status: 200 when every stage
// succeeded, 207 when some failed, 409 when a run is already active. The
// run keeps the request's values but is cancelled only through h.base.
func (h *Handler) respond(c echo.Context, fn func(ctx context.Context) (*Result, error)) error {
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	defer cancel()
	stop := context.AfterFunc(h.base, cancel)
	defer stop()

	res, err := fn(ctx)
	switch {
	case errors.Is(err, ErrSyncInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnknownType), errors.Is(err, ErrTypeNotConfigured):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if res.Failed() {
		return c.JSON(http.StatusMultiStatus, res)
	}
	return c.JSON(http.StatusOK, res)
}
