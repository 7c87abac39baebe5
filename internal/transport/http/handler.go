// Package httptransport is the thin HTTP layer over the registry service. It
// delegates to domain services without embedding business logic so transport
// concerns stay isolated.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"foodtrust/internal/audit"
	"foodtrust/internal/domain"
	"foodtrust/internal/registry"
	"foodtrust/internal/transport/http/shared"
	dErrors "foodtrust/pkg/domain-errors"
	"foodtrust/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks

// RegistryService defines the registry operations the handlers need.
type RegistryService interface {
	Register(ctx context.Context, input registry.RegisterInput) (domain.ProductRecord, error)
	Verify(ctx context.Context, productID string) (domain.ProductRecord, error)
	IsAuthentic(ctx context.Context, productID string) (bool, error)
	Events(ctx context.Context, productID string) ([]audit.Event, error)
}

// CredentialVerifier checks manufacturer credentials for token issuance.
type CredentialVerifier interface {
	Verify(manufacturerID, secret string) error
}

// TokenIssuer mints access tokens for verified manufacturers.
type TokenIssuer interface {
	IssueToken(manufacturerID string) (string, error)
}

// Handler handles the registry endpoints.
type Handler struct {
	logger      *slog.Logger
	registry    RegistryService
	credentials CredentialVerifier
	tokens      TokenIssuer
}

// NewHandler creates the HTTP handler set.
func NewHandler(registrySvc RegistryService, credentials CredentialVerifier, tokens TokenIssuer, logger *slog.Logger) *Handler {
	return &Handler{
		logger:      logger,
		registry:    registrySvc,
		credentials: credentials,
		tokens:      tokens,
	}
}

// handleToken exchanges manufacturer credentials for an access token.
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	if err := h.credentials.Verify(req.ManufacturerID, req.Secret); err != nil {
		h.logger.WarnContext(ctx, "token request rejected",
			"request_id", requestcontext.RequestID(ctx),
			"manufacturer_id", req.ManufacturerID,
		)
		shared.WriteError(w, err)
		return
	}

	token, err := h.tokens.IssueToken(req.ManufacturerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue token",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to issue token"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "Bearer"})
}

// handleRegister accepts a new product registration.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	record, err := h.registry.Register(ctx, registry.RegisterInput{
		ProductID:      req.ProductID,
		Name:           req.Name,
		Ingredients:    req.Ingredients,
		Manufacturer:   req.Manufacturer,
		ManufacturedAt: req.ManufacturedAt,
	})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeAlreadyRegistered) || dErrors.Is(err, dErrors.CodeInvalidInput) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to register product",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to register product"))
		return
	}

	shared.WriteJSON(w, http.StatusCreated, toProductResponse(record))
}

// handleVerify returns the stored record for a scanned product ID.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	record, err := h.registry.Verify(r.Context(), productID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) || dErrors.Is(err, dErrors.CodeInvalidInput) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to verify product",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to verify product"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, toProductResponse(record))
}

// handleIsAuthentic answers the cheap boolean check for scan tooling.
func (h *Handler) handleIsAuthentic(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	authentic, err := h.registry.IsAuthentic(r.Context(), productID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to check product",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to check product"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, AuthenticResponse{ProductID: productID, Authentic: authentic})
}

// handleEvents returns the audit trail for one product.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	events, err := h.registry.Events(r.Context(), productID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInvalidInput) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to list audit events",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list audit events"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, toEventResponses(events))
}

// handleHealth reports liveness.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
