package audit

import (
	"time"

	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// Examples: verification decisions, account deactivations.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	// Examples: claim conflicts, OTP attempt exhaustion.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category    EventCategory  `json:"category"`
	Timestamp   time.Time      `json:"timestamp"`
	PrincipalID id.PrincipalID `json:"principal_id"`
	Action      EventAction    `json:"action"`
	Reason      string         `json:"reason,omitempty"`
	RequestID   string         `json:"request_id,omitempty"`
	// ActorID tracks who performed the action when different from
	// PrincipalID. Used for admin review and registry operations.
	ActorID string `json:"actor_id,omitempty"`
	// AdmissionNumber is set on registry claim/release events.
	AdmissionNumber string `json:"admission_number,omitempty"`
}

type EventAction string

const (
	// Verification events
	EventAdmissionValidated    EventAction = "admission_validated"
	EventVerificationSubmitted EventAction = "verification_submitted"
	EventVerificationApproved  EventAction = "verification_approved"
	EventVerificationRejected  EventAction = "verification_rejected"
	EventEmailVerified         EventAction = "email_verified"
	EventOTPAttemptsExhausted  EventAction = "otp_attempts_exhausted"

	// Registry events
	EventAdmissionClaimed       EventAction = "admission_claimed"
	EventAdmissionClaimConflict EventAction = "admission_claim_conflict"
	EventAdmissionReleased      EventAction = "admission_released"
	EventAdmissionImported      EventAction = "admission_imported"

	// Lifecycle events
	EventAccountDeactivated EventAction = "account_deactivated"
	EventAccountReactivated EventAction = "account_reactivated"
	EventDeadlineWarning    EventAction = "deadline_warning_sent"
	EventDeadlineExtended   EventAction = "deadline_extended"

	// Account events
	EventPrincipalCreated EventAction = "principal_created"
)

// eventCategories maps each audit action to its category.
// Compliance: legal/regulatory significance, long retention required.
// Security: security monitoring, SIEM integration, alerting.
// Operations: routine activity, can be sampled.
var eventCategories = map[EventAction]EventCategory{
	EventVerificationApproved:   CategoryCompliance,
	EventVerificationRejected:   CategoryCompliance,
	EventAccountDeactivated:     CategoryCompliance,
	EventAccountReactivated:     CategoryCompliance,
	EventPrincipalCreated:       CategoryCompliance,
	EventAdmissionClaimConflict: CategorySecurity,
	EventOTPAttemptsExhausted:   CategorySecurity,
	EventAdmissionReleased:      CategorySecurity,
	EventAdmissionValidated:     CategoryOperations,
	EventVerificationSubmitted:  CategoryOperations,
	EventEmailVerified:          CategoryOperations,
	EventAdmissionClaimed:       CategoryOperations,
	EventAdmissionImported:      CategoryOperations,
	EventDeadlineWarning:        CategoryOperations,
	EventDeadlineExtended:       CategoryOperations,
}

// CategoryOf returns the category for an action, defaulting to operations
// for unknown actions so nothing is silently dropped.
func CategoryOf(action EventAction) EventCategory {
	if c, ok := eventCategories[action]; ok {
		return c
	}
	return CategoryOperations
}
