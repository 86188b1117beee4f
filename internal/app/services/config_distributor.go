package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/fr0stylo/cashwidget/internal/allowlist"
	"github.com/fr0stylo/cashwidget/internal/app/domain"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
	"github.com/fr0stylo/cashwidget/internal/signing"
)

const rateLimitWindow = time.Minute

// Recorder counts widget outcomes.
type Recorder interface {
	ConfigResponse(outcome string)
	PurchaseOutcome(outcome string)
	RateLimited(scope string)
}

type noopRecorder struct{}

func (noopRecorder) ConfigResponse(string)  {}
func (noopRecorder) PurchaseOutcome(string) {}
func (noopRecorder) RateLimited(string)     {}

// ConfigRequest is transport-agnostic widget config input.
type ConfigRequest struct {
	PublicKey   string
	Origin      string
	Host        string
	Referer     string
	ClientIP    string
	IfNoneMatch string
}

// ConfigResponse is a signed widget config. Body is nil when NotModified.
type ConfigResponse struct {
	Body        []byte
	Signature   string
	ETag        string
	NotModified bool
	AllowOrigin string
	Version     int64
}

// ConfigDistributorOptions carries optional collaborators.
type ConfigDistributorOptions struct {
	Bodies        ports.SignedBodyCache
	Recorder      Recorder
	Logger        *slog.Logger
	AssetsVersion string
}

// ConfigDistributor serves signed per-tenant widget configuration.
type ConfigDistributor struct {
	store         ports.ConfigStore
	limiter       ports.RateLimiter
	signer        *signing.Service
	bodies        ports.SignedBodyCache
	recorder      Recorder
	log           *slog.Logger
	assetsVersion string
}

// NewConfigDistributor constructs a config distributor.
func NewConfigDistributor(store ports.ConfigStore, limiter ports.RateLimiter, signer *signing.Service, opts ConfigDistributorOptions) *ConfigDistributor {
	d := &ConfigDistributor{
		store:         store,
		limiter:       limiter,
		signer:        signer,
		bodies:        opts.Bodies,
		recorder:      opts.Recorder,
		log:           opts.Logger,
		assetsVersion: opts.AssetsVersion,
	}
	if d.recorder == nil {
		d.recorder = noopRecorder{}
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	return d
}

// Fetch resolves, authorizes, rate limits and signs one config request.
func (d *ConfigDistributor) Fetch(ctx context.Context, req ConfigRequest) (ConfigResponse, error) {
	resp, err := d.fetch(ctx, req)
	d.recorder.ConfigResponse(configOutcome(resp, err))
	return resp, err
}

func (d *ConfigDistributor) fetch(ctx context.Context, req ConfigRequest) (ConfigResponse, error) {
	publicKey := strings.TrimSpace(req.PublicKey)
	if publicKey == "" {
		return ConfigResponse{}, ErrMissingPublicKey
	}

	tenant, found, err := d.store.Lookup(ctx, publicKey)
	if err != nil {
		return ConfigResponse{}, fmt.Errorf("lookup tenant: %w", err)
	}
	if !found {
		return ConfigResponse{}, ErrUnknownPublicKey
	}

	if !allowlist.IsAllowed(req.Origin, req.Host, req.Referer, tenant.AllowedDomains) {
		d.log.InfoContext(ctx, "Widget config domain rejected",
			"public_key", publicKey,
			"domain", allowlist.Resolve(req.Origin, req.Host, req.Referer),
		)
		return ConfigResponse{}, ErrDomainNotAllowed
	}

	if err := d.allow(ctx, publicKey, req.ClientIP, tenant.EffectiveRateLimit()); err != nil {
		return ConfigResponse{}, err
	}

	signed, err := d.signedBody(tenant)
	if err != nil {
		return ConfigResponse{}, err
	}

	resp := ConfigResponse{
		Signature: signed.Signature,
		ETag:      ETag(tenant.Version, signed.Signature),
		Version:   tenant.Version,
	}
	if strings.TrimSpace(req.Origin) != "" && req.Origin != "null" {
		resp.AllowOrigin = req.Origin
	}
	if ETagMatches(req.IfNoneMatch, resp.ETag) {
		resp.NotModified = true
		return resp, nil
	}
	resp.Body = signed.Body
	return resp, nil
}

func (d *ConfigDistributor) allow(ctx context.Context, publicKey, clientIP string, limit int) error {
	if d.limiter == nil {
		return nil
	}
	allowed, err := d.limiter.Allow(ctx, publicKey+"|"+clientIP, limit, rateLimitWindow)
	if err != nil {
		d.log.WarnContext(ctx, "Rate limiter unavailable, admitting request", "public_key", publicKey, "error", err)
		return nil
	}
	if !allowed {
		d.recorder.RateLimited("widget_config")
		return ErrRateLimited
	}
	return nil
}

func (d *ConfigDistributor) signedBody(tenant domain.TenantWidgetConfig) (ports.SignedBody, error) {
	if d.bodies != nil {
		if cached, ok := d.bodies.Get(tenant.PublicKey, tenant.Version); ok {
			return cached, nil
		}
	}
	body, err := RenderPublicConfig(tenant, d.assetsVersion)
	if err != nil {
		return ports.SignedBody{}, err
	}
	signed := ports.SignedBody{
		Body:      body,
		Signature: d.signer.SignConfig(body, tenant.PublicKey, tenant.SigningSecret),
	}
	if d.bodies != nil {
		d.bodies.Set(tenant.PublicKey, tenant.Version, signed)
	}
	return signed, nil
}

type publicCompany struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
}

type publicCDN struct {
	AssetsVersion string `json:"assetsVersion"`
}

type publicConfig struct {
	Company         publicCompany   `json:"company"`
	Theme           json.RawMessage `json:"theme"`
	Behavior        json.RawMessage `json:"behavior"`
	Features        json.RawMessage `json:"features"`
	I18n            json.RawMessage `json:"i18n"`
	Integrations    json.RawMessage `json:"integrations"`
	VisibilityRules json.RawMessage `json:"visibility_rules"`
	CDN             publicCDN       `json:"cdn"`
	Version         int64           `json:"version"`
}

// RenderPublicConfig serializes the partner-visible part of a tenant config.
// The company id shown to partners is the public key.
func RenderPublicConfig(tenant domain.TenantWidgetConfig, assetsVersion string) ([]byte, error) {
	payload := publicConfig{
		Company: publicCompany{
			ID:    tenant.PublicKey,
			Name:  tenant.Name,
			Brand: tenant.Brand,
		},
		Theme:           objectOrEmpty(tenant.Theme),
		Behavior:        objectOrEmpty(tenant.Behavior),
		Features:        objectOrEmpty(tenant.Features),
		I18n:            objectOrEmpty(tenant.I18n),
		Integrations:    objectOrEmpty(tenant.Integrations),
		VisibilityRules: objectOrEmpty(tenant.VisibilityRules),
		CDN:             publicCDN{AssetsVersion: assetsVersion},
		Version:         tenant.Version,
	}
	var out bytes.Buffer
	encoder := json.NewEncoder(&out)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(payload); err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return bytes.TrimRight(out.Bytes(), "\n"), nil
}

func objectOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage(`{}`)
	}
	return raw
}

// ETag derives a strong validator from the tenant version and signature prefix.
func ETag(version int64, signature string) string {
	prefix := signature
	if len(prefix) > 16 {
		prefix = prefix[:16]
	}
	sum := sha256.Sum256([]byte(strconv.FormatInt(version, 10) + ":" + prefix))
	return `"` + hex.EncodeToString(sum[:])[:32] + `"`
}

// ETagMatches reports whether an If-None-Match header selects etag.
func ETagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == "" {
			continue
		}
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func configOutcome(resp ConfigResponse, err error) string {
	if err != nil {
		return string(ClassifyError(err))
	}
	if resp.NotModified {
		return "not_modified"
	}
	return "ok"
}
