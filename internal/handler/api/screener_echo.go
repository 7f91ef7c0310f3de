package api

import (
	"errors"
	"net/http"

	models "PivotScreener/internal/domain/models"
	domrepo "PivotScreener/internal/domain/repository"
	"PivotScreener/internal/presenter"
	"PivotScreener/internal/service/ratelimit"
	"PivotScreener/internal/usecase"
	xhttp "PivotScreener/pkg/http"
	xlogger "PivotScreener/pkg/logger"
	"PivotScreener/pkg/util"

	"github.com/labstack/echo/v4"
)

// ScreenerEchoHandler serves the screener report, the per-symbol detail view
// and the symbol listing.
type ScreenerEchoHandler struct {
	logger         *xlogger.Logger
	screener       *usecase.Screener
	defaultSymbols []string
	maxSymbols     int

	rl       *ratelimit.Limiter
	rlCap    float64
	rlRefill float64
}

var _ xhttp.Handler = (*ScreenerEchoHandler)(nil)

func NewScreenerEchoHandler(logger *xlogger.Logger, screener *usecase.Screener, defaultSymbols []string) *ScreenerEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ScreenerEchoHandler{logger: logger, screener: screener, defaultSymbols: defaultSymbols, maxSymbols: defaultMaxSymbols}
}

const defaultMaxSymbols = 50

// SetMaxSymbols caps how many symbols one report request may screen.
func (h *ScreenerEchoHandler) SetMaxSymbols(n int) {
	if n > 0 {
		h.maxSymbols = n
	}
}

// SetRateLimit throttles report and detail requests per client IP. l must not
// be shared with limiters keyed by anything other than client IPs.
func (h *ScreenerEchoHandler) SetRateLimit(l *ratelimit.Limiter, capacity, refillPerSec float64) {
	h.rl, h.rlCap, h.rlRefill = l, capacity, refillPerSec
}

func (h *ScreenerEchoHandler) allow(c echo.Context) bool {
	return h.rl == nil || h.rl.Allow("ip:"+c.RealIP(), h.rlCap, h.rlRefill)
}

func (h *ScreenerEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/symbols", h.Symbols)
	g.GET("/report", h.Report)
	g.GET("/detail", h.Detail)
}

func (h *ScreenerEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ScreenerEchoHandler) Symbols(c echo.Context) error {
	req := &models.SymbolsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	syms, err := h.screener.Symbols(c.Request().Context(), req.Quote)
	if err != nil {
		h.logger.Error("symbols usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, syms)
}

func (h *ScreenerEchoHandler) Report(c echo.Context) error {
	if !h.allow(c) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests"))
	}
	req := &models.ReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbols := util.SplitList(req.Symbols)
	if len(symbols) == 0 {
		symbols = h.defaultSymbols
	}
	if len(symbols) > h.maxSymbols {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("at most %d symbols per report, got %d", h.maxSymbols, len(symbols)).
			WithParam("max", h.maxSymbols))
	}

	r := h.screener.BuildReport(c.Request().Context(), symbols, domrepo.NormalizeTimeframe(req.TF), req.Limit)
	return xhttp.SuccessResponse(c, presenter.Report(r))
}

func (h *ScreenerEchoHandler) Detail(c echo.Context) error {
	if !h.allow(c) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests"))
	}
	req := &models.DetailRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	a, err := h.screener.Detail(c.Request().Context(), req.Symbol, domrepo.NormalizeTimeframe(req.TF), req.Limit)
	if err != nil {
		h.logger.Warn("detail usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, presenter.Detail(a))
}

// toAppError maps domain failures onto HTTP statuses.
func toAppError(err error) error {
	var mb *models.MalformedBarError
	switch {
	case errors.Is(err, models.ErrUnknownSymbol):
		return xhttp.NotFoundErrorf("unknown symbol").WithError(err)
	case errors.Is(err, models.ErrEmptySeries):
		return xhttp.NotFoundErrorf("no bars available").WithError(err)
	case errors.As(err, &mb):
		return xhttp.UnprocessableErrorf("%s", mb.Error()).WithError(err)
	case errors.Is(err, models.ErrRateLimited):
		return xhttp.TooManyRequestsError("exchange rate limit reached").WithError(err)
	case errors.Is(err, models.ErrExchangeUnavailable):
		return xhttp.BadGatewayError("exchange unavailable").WithError(err)
	default:
		return xhttp.InternalErrorf("internal error").WithError(err)
	}
}
