package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/fastprodman/couponsync/internal/gateway"
	"github.com/fastprodman/couponsync/internal/money"
	"github.com/fastprodman/couponsync/internal/players"
	"github.com/fastprodman/couponsync/internal/services/catalog"
	"github.com/fastprodman/couponsync/internal/services/issuance"
	"github.com/fastprodman/couponsync/internal/services/renewal"
)

type Issuer interface {
	Issue(ctx context.Context, sub issuance.Submission) (issuance.Result, error)
}

type Renewer interface {
	Run(ctx context.Context) (renewal.Report, error)
}

type Importer interface {
	Import(ctx context.Context) (catalog.ImportReport, error)
}

// HandlerProvider exposes the engine's triggers over HTTP.
type HandlerProvider struct {
	issuer   Issuer
	renewer  Renewer
	importer Importer
}

func NewHandler(issuer Issuer, renewer Renewer, importer Importer) *HandlerProvider {
	return &HandlerProvider{issuer: issuer, renewer: renewer, importer: importer}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return errors.New("empty body")
	}
	if err != nil {
		return errors.New("invalid JSON")
	}

	return nil
}

type issueRequest struct {
	PlayerHandle   string      `json:"playerHandle"`
	ApproverID     string      `json:"approverId"`
	Amount         json.Number `json:"amount"`
	IdempotencyKey string      `json:"idempotencyKey"`
}

type issueResponse struct {
	Code             string `json:"code"`
	RemoteID         int64  `json:"remoteId"`
	SettlementAmount string `json:"settlementAmount"`
	FaceValue        int64  `json:"faceValue"`
	PlayerID         string `json:"playerId"`
}

// --- Handlers ---

// IssueHandler handles POST /issuances
func (h *HandlerProvider) IssueHandler(w http.ResponseWriter, r *http.Request) {
	var req issueRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if strings.TrimSpace(req.PlayerHandle) == "" {
		writeError(w, http.StatusBadRequest, "playerHandle required")
		return
	}
	if strings.TrimSpace(req.ApproverID) == "" {
		writeError(w, http.StatusBadRequest, "approverId required")
		return
	}

	res, err := h.issuer.Issue(r.Context(), issuance.Submission{
		PlayerHandle:   strings.TrimSpace(req.PlayerHandle),
		ApproverID:     req.ApproverID,
		Amount:         req.Amount.String(),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		status, msg := issueErrorStatus(err)
		slog.ErrorContext(r.Context(), "issuance failed",
			"request_id", middleware.GetReqID(r.Context()),
			"player", req.PlayerHandle,
			"status", status,
			"error", err,
		)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusCreated, issueResponse{
		Code:             res.Code,
		RemoteID:         res.RemoteID,
		SettlementAmount: res.SettlementAmount.StringFixed(2),
		FaceValue:        res.FaceValue,
		PlayerID:         res.PlayerID,
	})
}

// issueErrorStatus picks the response for a failed issuance. The message
// carries the cause so the approver can act on it.
func issueErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, issuance.ErrInvalidAmount),
		errors.Is(err, money.ErrInvalidConvertedAmount):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, players.ErrPlayerNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, issuance.ErrDuplicateSubmission):
		return http.StatusConflict, err.Error()
	case errors.Is(err, issuance.ErrRateUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, gateway.ErrRemoteTimeout):
		return http.StatusGatewayTimeout, err.Error()
	case errors.Is(err, issuance.ErrRemoteCreateFailed):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, issuance.ErrLedgerInsertFailed):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

type renewResponse struct {
	renewal.Report
	Error string `json:"error,omitempty"`
}

// RenewHandler handles POST /renewals. The run is not tied to the request,
// a disconnecting client doesn't stop it halfway.
func (h *HandlerProvider) RenewHandler(w http.ResponseWriter, r *http.Request) {
	rep, err := h.renewer.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		if errors.Is(err, renewal.ErrRunInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}

		writeJSON(w, http.StatusBadGateway, renewResponse{Report: rep, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, renewResponse{Report: rep})
}

// ImportHandler handles POST /packages/import
func (h *HandlerProvider) ImportHandler(w http.ResponseWriter, r *http.Request) {
	rep, err := h.importer.Import(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "package import failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rep)
}
