package commands

import "github.com/Sahithiv25/InsightMiner/internal/domain"

// SkipContainer is a command annotation for commands that run without config.
const SkipContainer = "insightminer/skip-container"

// History display defaults
const (
	DefaultHistoryLimit       = domain.DefaultHistoryLimit
	DefaultHistorySearchLimit = domain.DefaultHistorySearchLimit
	TimestampFormat           = domain.TimestampFormat
	topKPIs                   = 5
)

// Error messages
const (
	ErrConfigLoaderUnavailable  = "config loader unavailable"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrDoctorUnhealthy          = "diagnostics found failing checks"
	ErrHistoryStoreUnavailable  = "history store unavailable (history.enabled is false)"
	ErrQueryRequired            = "--query required"
	ErrQuestionRequired         = "a question is required"
	ErrSQLRequired              = "SQL is required (argument or --file)"
)

// Success messages
const (
	MsgConfigurationValid = "Configuration valid"
	MsgNoHistoryRecorded  = "No history recorded yet."
)
