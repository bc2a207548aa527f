package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"invite-redemption/internal/domain"
	"invite-redemption/internal/infra/logging"
	"invite-redemption/internal/infra/metrics"
	red "invite-redemption/internal/infra/redis"
	"invite-redemption/internal/usecase"
)

// Stable error-code strings surfaced to callers. NotFound/Conflict/Validation
// outcomes pass through verbatim; anything unexpected collapses to
// errInternal so storage details never leak.
const (
	errCodeNotFound     = "code_not_found"
	errAlreadyRedeemed  = "already_redeemed"
	errIdentityBound    = "identity_already_bound"
	errIdentityNotFound = "identity_not_found"
	errMissingCode      = "missing_code"
	errMissingIdentity  = "missing_identity"
	errMissingEmail     = "missing_email"
	errInvalidJSON      = "invalid_json"
	errInvalidRequest   = "invalid_request"
	errRateLimited      = "rate_limited"
	errLockdown         = "lockdown"
	errUnauthorized     = "unauthorized"
	errInternal         = "internal_error"
)

type entityPayload struct {
	Name string `json:"name"`
	Plan string `json:"plan,omitempty"`
}

type redeemRequest struct {
	Code     string `json:"code"`
	Identity string `json:"identity"`
}

type redeemResponse struct {
	OK     bool           `json:"ok"`
	Entity *entityPayload `json:"entity,omitempty"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{OK: false, Error: code})
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSON)
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, errMissingCode)
		return
	}
	if req.Identity == "" {
		writeError(w, http.StatusBadRequest, errMissingIdentity)
		return
	}
	ctx = logging.WithIdentityID(ctx, req.Identity)

	allowed, err := s.limiter.Allow(ctx, red.RedeemKey(req.Identity), s.rateLimit, redeemWindow)
	if err != nil {
		// Redis being down must not take redemption down with it.
		logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable")
	} else if !allowed {
		metrics.IncRedemption(errRateLimited)
		writeError(w, http.StatusTooManyRequests, errRateLimited)
		return
	}

	result, err := s.redeemUC.Redeem(ctx, req.Code, req.Identity)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeNotFound):
			metrics.IncRedemption(errCodeNotFound)
			writeError(w, http.StatusNotFound, errCodeNotFound)
		case errors.Is(err, domain.ErrCodeAlreadyRedeemed):
			metrics.IncRedemption(errAlreadyRedeemed)
			writeError(w, http.StatusConflict, errAlreadyRedeemed)
		case errors.Is(err, domain.ErrIdentityAlreadyBound):
			metrics.IncRedemption(errIdentityBound)
			writeError(w, http.StatusConflict, errIdentityBound)
		case errors.Is(err, domain.ErrNotFound):
			metrics.IncRedemption(errIdentityNotFound)
			writeError(w, http.StatusNotFound, errIdentityNotFound)
		case errors.Is(err, domain.ErrInvalidArgument):
			metrics.IncRedemption("invalid")
			writeError(w, http.StatusBadRequest, errInvalidRequest)
		default:
			metrics.IncRedemption("error")
			logging.With(ctx, s.log).Error().Err(err).Msg("redeem failed")
			writeError(w, http.StatusInternalServerError, errInternal)
		}
		return
	}

	metrics.IncRedemption("ok")
	writeJSON(w, http.StatusOK, redeemResponse{
		OK: true,
		Entity: &entityPayload{
			Name: result.Organization.Name,
			Plan: result.Organization.Plan,
		},
	})
}

type entitlementResponse struct {
	HasEntitlement bool           `json:"hasEntitlement"`
	Entity         *entityPayload `json:"entity,omitempty"`
}

func (s *Server) handleEntitlement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identityID := r.URL.Query().Get("identity")
	if identityID == "" {
		writeError(w, http.StatusBadRequest, errMissingIdentity)
		return
	}

	ent, err := s.entUC.HasEntitlement(ctx, identityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, errIdentityNotFound)
			return
		}
		logging.With(ctx, s.log).Error().Err(err).Msg("entitlement check failed")
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	metrics.IncEntitlementCheck(ent.HasEntitlement)
	resp := entitlementResponse{HasEntitlement: ent.HasEntitlement}
	if ent.HasEntitlement {
		resp.Entity = &entityPayload{Name: ent.Organization.Name, Plan: ent.Organization.Plan}
	}
	writeJSON(w, http.StatusOK, resp)
}

type syncRequest struct {
	Entries []usecase.CodeEntry `json:"entries"`
}

func (s *Server) handleCodeSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSON)
		return
	}

	report, err := s.provUC.Sync(ctx, req.Entries)
	if err != nil {
		logging.With(ctx, s.log).Error().Err(err).Msg("code sync failed")
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	metrics.AddProvisioned("created", report.Created)
	metrics.AddProvisioned("updated", report.Updated)
	metrics.AddProvisioned("skipped", report.Skipped)
	metrics.AddProvisioned("failed", len(report.Failed))
	writeJSON(w, http.StatusOK, report)
}

type registerIdentityRequest struct {
	Email string `json:"email"`
}

type identityPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s *Server) handleRegisterIdentity(w http.ResponseWriter, r *http.Request) {
	var req registerIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSON)
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, errMissingEmail)
		return
	}

	ident, err := s.identityUC.Register(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, errMissingEmail)
			return
		}
		logging.With(r.Context(), s.log).Error().Err(err).Msg("register identity failed")
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	writeJSON(w, http.StatusOK, identityPayload{ID: ident.ID, Email: ident.Email})
}

type adminLoginRequest struct {
	APIKey string `json:"api_key"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSON)
		return
	}
	if s.adminAPIKey == "" || req.APIKey != s.adminAPIKey {
		writeError(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	token, err := s.auth.Mint(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
