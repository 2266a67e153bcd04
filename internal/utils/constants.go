package utils

const (
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"
)
