package routes

const (
	// Health
	Health = "/health"

	// Authenticated request endpoints
	RequestsBase      = "/api/v1/requests"
	RequestByID       = "/api/v1/requests/{id}"
	RequestStatus     = "/api/v1/requests/{id}/status"
	RequestAssign     = "/api/v1/requests/{id}/assign"
	RequestComments   = "/api/v1/requests/{id}/comments"
	RequestPublicLink = "/api/v1/requests/{id}/public-link"

	// Assignment picker lookups
	Vendors       = "/api/v1/vendors"
	PropertyUnits = "/api/v1/properties/{id}/units"

	// Anonymous capability endpoints (token is the whole authorization)
	PublicRequest         = "/api/v1/public/requests/{token}"
	PublicRequestComments = "/api/v1/public/requests/{token}/comments"
)
