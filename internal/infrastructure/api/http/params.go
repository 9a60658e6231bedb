package http

// URL parameters
const (
	TransactionIDParam = "id"
	CustomerIDParam    = "customerId"
	AccountIDParam     = "accountId"
	CardIDParam        = "cardId"
	CreditIDParam      = "creditId"
)

// Query parameters
const (
	ReasonQuery    = "reason"
	StartDateQuery = "startDate"
	EndDateQuery   = "endDate"
)

// Gateway identity headers
const (
	UsernameHeader   = "X-Auth-Username"
	CustomerIDHeader = "X-Auth-Customer-Id"
	RoleHeader       = "X-Auth-Role"
)

const RoleAdmin = "ADMIN"
