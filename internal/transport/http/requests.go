package httptransport

import (
	"caseflow/internal/intake"
	"caseflow/internal/lifecycle"
	"caseflow/internal/lifecycle/service"
	"caseflow/internal/validation"
)

// SubmissionRequest is the POST /cases payload. The channel comes from the
// caller's credential; a body channel is honored only when the request is
// unauthenticated (internal tooling).
type SubmissionRequest struct {
	Channel          string             `json:"channel,omitempty"`
	URN              string             `json:"urn"`
	CorrelationID    string             `json:"correlationId,omitempty"`
	InitiationCode   string             `json:"initiationCode,omitempty"`
	ProsecutorOUCode string             `json:"prosecutorOuCode,omitempty"`
	CaseType         string             `json:"caseType,omitempty"`
	Defendants       []DefendantRequest `json:"defendants"`
	Markers          []MarkerRequest    `json:"markers,omitempty"`
}

type DefendantRequest struct {
	Reference            string           `json:"reference,omitempty"`
	Title                string           `json:"title,omitempty"`
	FirstName            string           `json:"firstName,omitempty"`
	LastName             string           `json:"lastName,omitempty"`
	OrganisationName     string           `json:"organisationName,omitempty"`
	DateOfBirth          string           `json:"dateOfBirth,omitempty"`
	CustodyStatus        string           `json:"custodyStatus,omitempty"`
	ObservedEthnicity    string           `json:"observedEthnicity,omitempty"`
	SelfDefinedEthnicity string           `json:"selfDefinedEthnicity,omitempty"`
	Offences             []OffenceRequest `json:"offences"`
}

type OffenceRequest struct {
	Code                 string `json:"code"`
	ArrestDate           string `json:"arrestDate,omitempty"`
	CommittedDate        string `json:"committedDate,omitempty"`
	ModeOfTrial          string `json:"modeOfTrial,omitempty"`
	CourtHearingLocation string `json:"courtHearingLocation,omitempty"`
	HearingDate          string `json:"hearingDate,omitempty"`
}

type MarkerRequest struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

func (r SubmissionRequest) toSubmission(channel string) intake.Submission {
	if channel == "" {
		channel = r.Channel
	}
	sub := intake.Submission{
		Channel:          intake.Channel(channel),
		URN:              r.URN,
		CorrelationID:    r.CorrelationID,
		InitiationCode:   r.InitiationCode,
		ProsecutorOUCode: r.ProsecutorOUCode,
		CaseType:         r.CaseType,
		Defendants:       toDefendantSubmissions(r.Defendants),
		Markers:          toMarkerSubmissions(r.Markers),
	}
	return sub
}

func toDefendantSubmissions(ds []DefendantRequest) []intake.DefendantSubmission {
	var out []intake.DefendantSubmission
	for _, d := range ds {
		def := intake.DefendantSubmission{
			Reference:            d.Reference,
			Title:                d.Title,
			FirstName:            d.FirstName,
			LastName:             d.LastName,
			OrganisationName:     d.OrganisationName,
			DateOfBirth:          d.DateOfBirth,
			CustodyStatus:        d.CustodyStatus,
			ObservedEthnicity:    d.ObservedEthnicity,
			SelfDefinedEthnicity: d.SelfDefinedEthnicity,
		}
		for _, o := range d.Offences {
			def.Offences = append(def.Offences, intake.OffenceSubmission(o))
		}
		out = append(out, def)
	}
	return out
}

func toMarkerSubmissions(ms []MarkerRequest) []intake.MarkerSubmission {
	var out []intake.MarkerSubmission
	for _, m := range ms {
		out = append(out, intake.MarkerSubmission(m))
	}
	return out
}

// GroupRequest is the POST /cases/groups payload.
type GroupRequest struct {
	GroupID string              `json:"groupId,omitempty"`
	Cases   []SubmissionRequest `json:"cases"`
}

// CorrectionRequest is the POST /cases/{caseID}/corrections payload.
type CorrectionRequest struct {
	ExpectedVersion  int64              `json:"expectedVersion"`
	InitiationCode   string             `json:"initiationCode,omitempty"`
	ProsecutorOUCode string             `json:"prosecutorOuCode,omitempty"`
	Markers          []MarkerRequest    `json:"markers,omitempty"`
	Defendants       []DefendantRequest `json:"defendants,omitempty"`
}

func (r CorrectionRequest) toCorrection() service.Correction {
	corr := service.Correction{
		ExpectedVersion:  r.ExpectedVersion,
		InitiationCode:   r.InitiationCode,
		ProsecutorOUCode: r.ProsecutorOUCode,
	}
	if r.Markers != nil {
		corr.Markers = toMarkerSubmissions(r.Markers)
	}
	if r.Defendants != nil {
		corr.Defendants = toDefendantSubmissions(r.Defendants)
	}
	return corr
}

// PleaRequest is the POST /cases/{caseID}/pleas payload.
type PleaRequest struct {
	ExpectedVersion int64  `json:"expectedVersion"`
	DefendantID     string `json:"defendantId"`
	Plea            string `json:"plea"`
	PcqVisitID      string `json:"pcqVisitId,omitempty"`
}

// VersionedRequest carries just the optimistic concurrency token.
type VersionedRequest struct {
	ExpectedVersion int64 `json:"expectedVersion"`
}

// OutcomeRequest is the POST /applications/{applicationID}/outcome payload.
type OutcomeRequest struct {
	CaseID          string   `json:"caseId"`
	GroupID         string   `json:"groupId,omitempty"`
	ExpectedVersion int64    `json:"expectedVersion"`
	Outcome         string   `json:"outcome"`
	Reasons         []string `json:"reasons,omitempty"`
}

// ProblemResponse is one validation problem in API responses.
type ProblemResponse struct {
	Category    string `json:"category"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Path        string `json:"path,omitempty"`
	Version     int    `json:"version"`
}

func toProblemResponses(problems []validation.Problem) []ProblemResponse {
	out := make([]ProblemResponse, 0, len(problems))
	for _, p := range problems {
		out = append(out, ProblemResponse{
			Category:    string(p.Category),
			Code:        string(p.Code),
			Description: validation.Describe(p.Code),
			Path:        p.Path,
			Version:     p.Version,
		})
	}
	return out
}

// CaseResponse is the case envelope every command endpoint returns.
type CaseResponse struct {
	CaseID        string             `json:"caseId"`
	URN           string             `json:"urn"`
	Status        string             `json:"status"`
	Version       int64              `json:"version"`
	Channel       string             `json:"channel"`
	CaseType      string             `json:"caseType,omitempty"`
	CourtLocation string             `json:"courtLocation,omitempty"`
	Defendants    []DefendantSummary `json:"defendants,omitempty"`
	Problems      []ProblemResponse  `json:"problems,omitempty"`
}

type DefendantSummary struct {
	DefendantID string `json:"defendantId"`
	Reference   string `json:"reference,omitempty"`
	Status      string `json:"status"`
}

func toCaseResponse(c *lifecycle.Case) CaseResponse {
	resp := CaseResponse{
		CaseID:        c.ID.String(),
		URN:           c.URN,
		Status:        string(c.Status),
		Version:       c.Version,
		Channel:       string(c.Channel),
		CaseType:      c.CaseType,
		CourtLocation: c.CourtLocation,
		Problems:      toProblemResponses(c.OutstandingProblems()),
	}
	for _, d := range c.Defendants {
		resp.Defendants = append(resp.Defendants, DefendantSummary{
			DefendantID: d.ID.String(),
			Reference:   d.Reference,
			Status:      string(d.Status),
		})
	}
	return resp
}

// GroupResponse is the POST /cases/groups envelope.
type GroupResponse struct {
	GroupID string         `json:"groupId"`
	Parked  bool           `json:"parked"`
	Cases   []CaseResponse `json:"cases"`
}

func toGroupResponse(res *service.GroupResult) GroupResponse {
	out := GroupResponse{GroupID: res.GroupID.String(), Parked: res.Parked}
	for _, c := range res.Cases {
		out.Cases = append(out.Cases, toCaseResponse(c))
	}
	return out
}

// ConflictResponse is the 409 body: the caller retries with CurrentVersion.
type ConflictResponse struct {
	Error          string `json:"error"`
	CurrentVersion int64  `json:"currentVersion"`
}
