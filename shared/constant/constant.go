package constant

import (
	"time"
)

const (
	ContextSystem = "system"
)

// Context key types to avoid collisions
type contextKey string

const (
	ContextKeyUserID    contextKey = "user_id"
	ContextKeyUserEmail contextKey = "user_email"
	ContextKeyUserRole  contextKey = "user_role"
	ContextKeyTokenID   contextKey = "token_id"
)

const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleUser       = "user"
)

const (
	RequestParamPage    = "page"
	RequestParamLimit   = "limit"
	RequestParamSortBy  = "sort_by"
	RequestParamSortDir = "sort_dir"
)

const (
	RequestParamID        = "id"
	RequestParamStartDate = "start_date"
	RequestParamEndDate   = "end_date"
	RequestParamUnitID    = "unit_id"
	RequestParamUnitCode  = "unit_code"
	RequestParamStatus    = "status"
	RequestParamExcludeID = "exclude_id"
	RequestParamKind      = "kind"
	RequestMaxMemory      = 10 << 20 // 10 MB
)

const (
	DefaultValuePage  = 1
	DefaultValueLimit = 10
)

const (
	FieldModifiedAt = "modified_at"
	FieldModifiedBy = "modified_by"
)

const (
	PqErrorCodeUniqueViolation    = "23505"
	PqErrorCodeFkViolation        = "23503"
	PqErrorCodeExclusionViolation = "23P01"
)

const (
	DateFormat        = time.RFC3339
	DateFormatCompact = "20060102"
)

const (
	OtelServiceScopeName    = "service"
	OtelRepositoryScopeName = "repository"
	OtelHandlerScopeName    = "handler"
	OtelConsumerScopeName   = "consumer"

	OtelQueryAttributeKey = "query"
	OtelS3ScopeName       = "s3"
	OtelLockScopeName     = "lock"
)

const (
	RequestHeaderAuthorization      = "Authorization"
	RequestHeaderUserAgent          = "User-Agent"
	RequestHeaderContentType        = "Content-Type"
	RequestHeaderRateLimit          = "X-RateLimit-Limit"
	RequestHeaderRateLimitRemaining = "X-RateLimit-Remaining"
	RequestHeaderRateLimitWindow    = "X-RateLimit-Window"
	RequestHeaderRequestID          = "X-Request-ID"
	RequestHeaderAPIKey             = "X-API-Key"
	RequestHeaderContentDisposition = "Content-Disposition"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

const (
	ResponseErrorPrepareShutdown      = "SERVER PREPARING TO SHUT DOWN"
	ResponseErrorUnhealthy            = "SERVER UNHEALTHY"
	ResponseErrorRequestLimitExceeded = "REQUEST LIMIT EXCEEDED"
	ResponseErrorInternal             = "internal server error"
)

const (
	ServerEnvDevelopment = "development"
	ServerEnvProduction  = "production"
)

const (
	Asterix = "*"
	Empty   = ""
)
