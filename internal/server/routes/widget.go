package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/fr0stylo/cashwidget/internal/app/services"
	"github.com/fr0stylo/cashwidget/internal/observability"
)

const (
	configPath          = "/widget/config"
	trackPurchasePath   = "/widget/track-purchase"
	signatureHeader     = "X-Signature"
	etagHeader          = "ETag"
	ifNoneMatchHeader   = "If-None-Match"
	noStoreCacheControl = "no-cache, no-store, must-revalidate"
	preflightMaxAge     = "86400"
	maxPurchaseBody     = "64K"
)

// ConfigFetcher resolves signed widget configuration.
type ConfigFetcher interface {
	Fetch(ctx context.Context, req services.ConfigRequest) (services.ConfigResponse, error)
}

// PurchaseTracker attributes one purchase report.
type PurchaseTracker interface {
	Track(ctx context.Context, body []byte) (services.TrackPurchaseResult, error)
}

// RateLimitRecorder counts limiter rejections.
type RateLimitRecorder interface {
	RateLimited(scope string)
}

// WidgetRoutes registers the partner widget endpoints.
type WidgetRoutes struct {
	config    ConfigFetcher
	purchases PurchaseTracker
	burst     middleware.RateLimiterStore
	recorder  RateLimitRecorder
	log       *slog.Logger
}

// NewWidgetRoutes constructs widget routes. burst may be nil to disable the
// per-IP limiter on purchase tracking.
func NewWidgetRoutes(config ConfigFetcher, purchases PurchaseTracker, burst middleware.RateLimiterStore, recorder RateLimitRecorder, log *slog.Logger) *WidgetRoutes {
	if log == nil {
		log = slog.Default()
	}
	return &WidgetRoutes{
		config:    config,
		purchases: purchases,
		burst:     burst,
		recorder:  recorder,
		log:       log,
	}
}

// RegisterRoutes registers widget endpoints.
func (w *WidgetRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET(configPath, w.handleConfig)
	s.OPTIONS(configPath, w.handlePreflight("GET, OPTIONS", "Content-Type, If-None-Match"))

	track := []echo.MiddlewareFunc{middleware.BodyLimit(maxPurchaseBody)}
	if w.burst != nil {
		track = append(track, middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: w.burst,
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Client not identified"})
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				if w.recorder != nil {
					w.recorder.RateLimited("track_purchase")
				}
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Rate limit exceeded"})
			},
		}))
	}
	s.POST(trackPurchasePath, w.handleTrackPurchase, track...)
	s.OPTIONS(trackPurchasePath, w.handlePreflight("POST, OPTIONS", "Content-Type"))
}

func (w *WidgetRoutes) handleConfig(c echo.Context) error {
	publicKey := strings.TrimSpace(c.QueryParam("key"))
	c.SetRequest(c.Request().WithContext(observability.WithTenant(c.Request().Context(), publicKey)))
	req := c.Request()

	resp, err := w.config.Fetch(req.Context(), services.ConfigRequest{
		PublicKey:   publicKey,
		Origin:      req.Header.Get(echo.HeaderOrigin),
		Host:        req.Host,
		Referer:     req.Referer(),
		ClientIP:    c.RealIP(),
		IfNoneMatch: req.Header.Get(ifNoneMatchHeader),
	})

	header := c.Response().Header()
	header.Set(echo.HeaderCacheControl, noStoreCacheControl)
	if err != nil {
		// Error bodies stay readable to the widget script except for a
		// rejected domain.
		origin := req.Header.Get(echo.HeaderOrigin)
		if origin != "" && services.ClassifyError(err) != services.ErrorForbidden {
			header.Set(echo.HeaderAccessControlAllowOrigin, origin)
			header.Add(echo.HeaderVary, echo.HeaderOrigin)
		}
		return w.writeError(c, err)
	}

	header.Set(etagHeader, resp.ETag)
	header.Set(signatureHeader, resp.Signature)
	header.Set(echo.HeaderAccessControlAllowMethods, http.MethodGet)
	header.Set(echo.HeaderAccessControlExposeHeaders, etagHeader+", "+signatureHeader)
	if resp.AllowOrigin != "" {
		header.Set(echo.HeaderAccessControlAllowOrigin, resp.AllowOrigin)
		header.Add(echo.HeaderVary, echo.HeaderOrigin)
	}
	if resp.NotModified {
		return c.NoContent(http.StatusNotModified)
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, resp.Body)
}

func (w *WidgetRoutes) handleTrackPurchase(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return w.writeError(c, services.ErrMissingFields)
	}

	if origin := req.Header.Get(echo.HeaderOrigin); origin != "" {
		c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, origin)
		c.Response().Header().Add(echo.HeaderVary, echo.HeaderOrigin)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, noStoreCacheControl)

	result, err := w.purchases.Track(req.Context(), body)
	if err != nil {
		if errors.Is(err, services.ErrCreditPending) {
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error":   "Failed to credit wallet",
				"details": result.Details,
				"status":  string(result.Status),
			})
		}
		return w.writeError(c, err)
	}

	message := "Purchase tracked and cashback credited"
	if result.Replayed {
		message = "Purchase already tracked"
	}
	var balance any
	if result.WalletBalance != nil {
		balance = json.Number(result.WalletBalance.StringFixed(2))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": message,
		"data": map[string]any{
			"purchase_id":     result.OrderID,
			"cashback_amount": json.Number(result.CashbackAmount.StringFixed(2)),
			"wallet_balance":  balance,
			"transaction_id":  result.TransactionID,
			"provisional":     result.Provisional,
		},
	})
}

func (w *WidgetRoutes) handlePreflight(methods, headers string) echo.HandlerFunc {
	return func(c echo.Context) error {
		origin := c.Request().Header.Get(echo.HeaderOrigin)
		header := c.Response().Header()
		if origin != "" {
			header.Set(echo.HeaderAccessControlAllowOrigin, origin)
			header.Add(echo.HeaderVary, echo.HeaderOrigin)
		} else {
			header.Set(echo.HeaderAccessControlAllowOrigin, "*")
		}
		header.Set(echo.HeaderAccessControlAllowMethods, methods)
		header.Set(echo.HeaderAccessControlAllowHeaders, headers)
		header.Set(echo.HeaderAccessControlMaxAge, preflightMaxAge)
		return c.NoContent(http.StatusOK)
	}
}

func (w *WidgetRoutes) writeError(c echo.Context, err error) error {
	status, message := errorResponse(err)
	if status >= http.StatusInternalServerError {
		w.log.ErrorContext(c.Request().Context(), "Widget request failed",
			"path", c.Path(),
			"error", err,
		)
	}
	return c.JSON(status, map[string]string{"error": message})
}

func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrMissingPublicKey):
		return http.StatusBadRequest, "Public key is required"
	case errors.Is(err, services.ErrMissingFields):
		return http.StatusBadRequest, "Missing required fields"
	case errors.Is(err, services.ErrSignatureRequired):
		return http.StatusUnauthorized, "Signature required in production"
	case errors.Is(err, services.ErrInvalidSignature):
		return http.StatusUnauthorized, "Invalid signature"
	}

	switch services.ClassifyError(err) {
	case services.ErrorForbidden:
		return http.StatusForbidden, "Domain not allowed"
	case services.ErrorNotFound:
		return http.StatusNotFound, "Invalid public key"
	case services.ErrorRateLimited:
		return http.StatusTooManyRequests, "Rate limit exceeded"
	case services.ErrorConflict:
		return http.StatusConflict, "Purchase is already being processed"
	case services.ErrorUpstream:
		return http.StatusInternalServerError, "Failed to credit wallet"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
