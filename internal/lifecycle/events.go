package lifecycle

import (
	"time"

	"caseflow/internal/validation"
	"caseflow/pkg/domain"
)

// EventType names a domain event emitted by the state machine.
type EventType string

const (
	EventCaseReceived                EventType = "CaseReceived"
	EventManualCaseReceived          EventType = "ManualCaseReceived"
	EventCaseValidationFailed        EventType = "CaseValidationFailed"
	EventDefendantValidationFailed   EventType = "DefendantValidationFailed"
	EventResolvedCase                EventType = "ResolvedCase"
	EventProsecutionRejected         EventType = "ProsecutionRejected"
	EventCaseInitiated               EventType = "CaseInitiated"
	EventGroupCasesParkedForApproval EventType = "GroupCasesParkedForApproval"
	EventGroupCasesReceived          EventType = "GroupCasesReceived"
	EventGroupProsecutionRejected    EventType = "GroupProsecutionRejected"
	EventOnlinePleaSubmitted         EventType = "OnlinePleaSubmitted"
	EventPcqVisitedSubmitted         EventType = "PcqVisitedSubmitted"
	EventCaseFiltered                EventType = "CaseFiltered"
	EventMaterialExpired             EventType = "MaterialExpired"
)

// Event is one domain event. A single struct carries the union of payload
// fields; Type determines which are populated. Kept transport-agnostic so the
// outbox, the projector and test sinks can all consume it.
type Event struct {
	Type           EventType            `json:"type"`
	CaseID         domain.CaseID        `json:"caseId,omitempty"`
	GroupID        domain.GroupID       `json:"groupId,omitempty"`
	DefendantID    domain.DefendantID   `json:"defendantId,omitempty"`
	URN            string               `json:"urn,omitempty"`
	PoliceSystemID string               `json:"policeSystemId,omitempty"`
	CorrelationID  string               `json:"correlationId,omitempty"`
	CaseType       string               `json:"caseType,omitempty"`
	CourtLocation  string               `json:"courtLocation,omitempty"`
	Problems       []validation.Problem `json:"problems,omitempty"`
	Reasons        []string             `json:"reasons,omitempty"`
	Plea           string               `json:"plea,omitempty"`
	PcqVisitID     string               `json:"pcqVisitId,omitempty"`
	Device         string               `json:"device,omitempty"`
	SubjectKey     string               `json:"subjectKey,omitempty"`
	OccurredAt     time.Time            `json:"occurredAt"`
}
