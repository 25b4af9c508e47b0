// Package httptransport exposes the case lifecycle over HTTP. Handlers decode,
// delegate to the lifecycle service, and translate outcomes; every business
// decision lives behind the Service interface.
package httptransport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"caseflow/internal/intake"
	"caseflow/internal/lifecycle"
	"caseflow/internal/lifecycle/service"
	"caseflow/internal/projection"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/httputil"
	"caseflow/pkg/requestcontext"
)

// Service is the lifecycle surface the transport depends on.
type Service interface {
	HandleInitiateProsecution(ctx context.Context, sub intake.Submission) (*lifecycle.Case, error)
	HandleGroupProsecution(ctx context.Context, groupID domain.GroupID, subs []intake.Submission) (*service.GroupResult, error)
	HandleCorrection(ctx context.Context, caseID domain.CaseID, corr service.Correction) (*lifecycle.Case, error)
	HandlePlea(ctx context.Context, caseID domain.CaseID, plea service.PleaSubmission) (*lifecycle.Case, error)
	HandleCaseFiltered(ctx context.Context, caseID domain.CaseID, expectedVersion int64) (*lifecycle.Case, error)
	HandleApplicationOutcome(ctx context.Context, caseID domain.CaseID, outcome service.ApplicationOutcome) (*lifecycle.Case, error)
	HandleInitiate(ctx context.Context, caseID domain.CaseID, expectedVersion int64) (*lifecycle.Case, error)
	GetCase(ctx context.Context, caseID domain.CaseID) (*lifecycle.Case, error)
}

// Handler routes case lifecycle requests.
type Handler struct {
	svc    Service
	errors projection.Store
	logger *slog.Logger
}

func NewHandler(svc Service, errors projection.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, errors: errors, logger: logger}
}

// Register mounts the lifecycle routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cases", h.ReceiveCase)
	r.Post("/cases/groups", h.ReceiveGroup)
	r.Get("/cases/{caseID}", h.GetCase)
	r.Post("/cases/{caseID}/corrections", h.CorrectCase)
	r.Post("/cases/{caseID}/pleas", h.SubmitPlea)
	r.Post("/cases/{caseID}/filtered", h.FilterCase)
	r.Post("/cases/{caseID}/initiations", h.InitiateCase)
	r.Post("/applications/{applicationID}/outcome", h.ApplicationOutcome)
	r.Get("/cases/{caseID}/errors", h.CaseErrors)
	r.Get("/errors/counts", h.ErrorCounts)
}

// ReceiveCase handles a single prosecution submission.
func (h *Handler) ReceiveCase(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[SubmissionRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.svc.HandleInitiateProsecution(r.Context(), req.toSubmission(requestcontext.Channel(r.Context())))
	if err != nil {
		h.logger.Error("receive case failed",
			"urn", req.URN,
			"request_id", requestcontext.RequestID(r.Context()),
			"client_ip", requestcontext.ClientIP(r.Context()),
			"error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toCaseResponse(c))
}

// ReceiveGroup handles a group of submissions as one unit.
func (h *Handler) ReceiveGroup(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[GroupRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	groupID := domain.NewGroupID()
	if req.GroupID != "" {
		if groupID, err = domain.ParseGroupID(req.GroupID); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	channel := requestcontext.Channel(r.Context())
	subs := make([]intake.Submission, 0, len(req.Cases))
	for _, c := range req.Cases {
		subs = append(subs, c.toSubmission(channel))
	}

	res, err := h.svc.HandleGroupProsecution(r.Context(), groupID, subs)
	if err != nil {
		h.logger.Error("receive group failed",
			"group_id", groupID.String(),
			"request_id", requestcontext.RequestID(r.Context()),
			"client_ip", requestcontext.ClientIP(r.Context()),
			"error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toGroupResponse(res))
}

// GetCase returns the committed aggregate state.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := domain.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.svc.GetCase(r.Context(), caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCaseResponse(c))
}

// CorrectCase re-submits corrected fields for a case stuck in validation.
func (h *Handler) CorrectCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := domain.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.Decode[CorrectionRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.svc.HandleCorrection(r.Context(), caseID, req.toCorrection())
	if err != nil {
		h.writeCommandError(w, r, caseID, "correct case", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCaseResponse(c))
}

// SubmitPlea records an online plea for a defendant.
func (h *Handler) SubmitPlea(w http.ResponseWriter, r *http.Request) {
	caseID, err := domain.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.Decode[PleaRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defendantID, err := domain.ParseDefendantID(req.DefendantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.svc.HandlePlea(r.Context(), caseID, service.PleaSubmission{
		ExpectedVersion: req.ExpectedVersion,
		DefendantID:     defendantID,
		Plea:            req.Plea,
		PcqVisitID:      req.PcqVisitID,
		DeviceName:      deviceName(requestcontext.UserAgent(r.Context())),
	})
	if err != nil {
		h.writeCommandError(w, r, caseID, "submit plea", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCaseResponse(c))
}

// FilterCase marks a case as matched/filtered by the downstream matcher.
func (h *Handler) FilterCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := domain.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.Decode[VersionedRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.svc.HandleCaseFiltered(r.Context(), caseID, req.ExpectedVersion)
	if err != nil {
		h.writeCommandError(w, r, caseID, "filter case", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCaseResponse(c))
}

// InitiateCase records that court proceedings were issued downstream.
func (h *Handler) InitiateCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := domain.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.Decode[VersionedRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.svc.HandleInitiate(r.Context(), caseID, req.ExpectedVersion)
	if err != nil {
		h.writeCommandError(w, r, caseID, "initiate case", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCaseResponse(c))
}

// ApplicationOutcome records the court's decision on a summons application.
func (h *Handler) ApplicationOutcome(w http.ResponseWriter, r *http.Request) {
	applicationID, err := domain.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.Decode[OutcomeRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	caseID, err := domain.ParseCaseID(req.CaseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome := service.ApplicationOutcome{
		ApplicationID:   applicationID,
		ExpectedVersion: req.ExpectedVersion,
		Reasons:         req.Reasons,
	}
	switch req.Outcome {
	case "APPROVED":
		outcome.Approved = true
	case "REJECTED":
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("unrecognized outcome %q", req.Outcome)))
		return
	}
	if req.GroupID != "" {
		if outcome.GroupID, err = domain.ParseGroupID(req.GroupID); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	c, err := h.svc.HandleApplicationOutcome(r.Context(), caseID, outcome)
	if err != nil {
		h.writeCommandError(w, r, caseID, "application outcome", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCaseResponse(c))
}

// CaseErrors returns the outstanding validation problems projected for a case.
func (h *Handler) CaseErrors(w http.ResponseWriter, r *http.Request) {
	caseID, err := domain.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ce, err := h.errors.Get(r.Context(), caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ce)
}

// ErrorCounts returns case/problem counts bucketed by court location and case
// type, optionally filtered by query parameters.
func (h *Handler) ErrorCounts(w http.ResponseWriter, r *http.Request) {
	filter := projection.CountFilter{
		CourtLocation: r.URL.Query().Get("courtLocation"),
		CaseType:      r.URL.Query().Get("caseType"),
	}

	buckets, err := h.errors.Counts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"buckets": buckets})
}

// writeCommandError translates a command failure, enriching version conflicts
// with the current version so the caller can retry without a second read.
func (h *Handler) writeCommandError(w http.ResponseWriter, r *http.Request, caseID domain.CaseID, op string, err error) {
	h.logger.Error(op+" failed",
		"case_id", caseID.String(),
		"request_id", requestcontext.RequestID(r.Context()),
		"error", err)

	if dErrors.HasCode(err, dErrors.CodeConflict) {
		if current, getErr := h.svc.GetCase(r.Context(), caseID); getErr == nil {
			httputil.WriteJSON(w, http.StatusConflict, ConflictResponse{
				Error:          "conflict",
				CurrentVersion: current.Version,
			})
			return
		}
	}
	httputil.WriteError(w, err)
}

// deviceName condenses a User-Agent header into the short device description
// recorded with pleas. Empty when the client sent no User-Agent.
func deviceName(ua string) string {
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	if browser == "" {
		return ua
	}
	if os := parsed.OS(); os != "" {
		return browser + " on " + os
	}
	return browser
}
