package audithook

// Action constants for audit events.
const (
	// Issuance actions
	ActionVouchersIssued = "vouchers.issued"
	ActionIssueFailed    = "issue.failed"
	ActionQuotaExceeded  = "quota.exceeded"

	// Client actions
	ActionClientCreated = "client.created"
	ActionClientUpdated = "client.updated"
	ActionClientDeleted = "client.deleted"
)

// Resource constants for audit events.
const (
	ResourceVoucherSource = "voucher_source"
	ResourceClient        = "client"
)

// Category constants for audit events.
const (
	CategoryIssuance = "issuance"
	CategoryAccess   = "access"
	CategoryAccount  = "account"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
