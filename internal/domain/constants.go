package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Date window constants
const (
	// DateLayout is the only accepted date format for plan windows
	DateLayout = "2006-01-02"
	// DefaultStart is the inclusive window start used when the caller omits one
	DefaultStart = "2024-01-01"
	// DefaultEnd is the inclusive window end used when the caller omits one
	DefaultEnd = "2024-12-31"
)

// Placeholder names shared by registry templates, generated SQL and callers.
const (
	StartParam       = "start"
	EndParam         = "end"
	StartPlaceholder = ":" + StartParam
	EndPlaceholder   = ":" + EndParam
)

// Timeout and duration constants
const (
	// DefaultGenerationTimeout bounds one text-generation round trip
	DefaultGenerationTimeout = 12 * time.Second
	// DefaultProbeTimeout bounds one syntax probe
	DefaultProbeTimeout = 5 * time.Second
	// DefaultHTTPClientTimeout is the timeout for HTTP client requests
	DefaultHTTPClientTimeout = 60 * time.Second
)

// Generation limits
const (
	// DefaultMaxTokens is the default maximum number of output tokens
	DefaultMaxTokens = 600
	// DefaultTemperature keeps generation deterministic-leaning
	DefaultTemperature = 0.2
	// MaxPromptBytes caps the size of the planning prompt
	MaxPromptBytes = 16 * 1024
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
	// DefaultHistorySearchLimit is the default number of search results to return
	DefaultHistorySearchLimit = 50
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
