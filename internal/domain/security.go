package domain

// ReasonCode enumerates why a planning stage rejected its input.
type ReasonCode string

const (
	ReasonNone ReasonCode = ""

	// Validator rejections.
	ReasonMultipleStatements ReasonCode = "multiple_statements"
	ReasonNotReadOnly        ReasonCode = "not_read_only"
	ReasonForbiddenKeyword   ReasonCode = "forbidden_keyword"
	ReasonTableNotAllowed    ReasonCode = "table_not_allowed"
	ReasonColumnNotAllowed   ReasonCode = "column_not_allowed"

	// Generative path only. These trigger fallback and never reach the caller as errors.
	ReasonGenerationUnavailable ReasonCode = "generation_unavailable"
	ReasonGenerationMalformed   ReasonCode = "generation_malformed"
	ReasonSyntaxProbeFailed     ReasonCode = "syntax_probe_failed"

	ReasonRegistryLoadFailed ReasonCode = "registry_load_failed"
	// ReasonNoKPIMatch is kept for completeness; the default KPI rule means it is never produced.
	ReasonNoKPIMatch ReasonCode = "no_kpi_match"
)

// ValidationOutcome is the verdict of the SQL safety validator.
type ValidationOutcome struct {
	Accepted bool       `json:"accepted"`
	Reason   ReasonCode `json:"reason,omitempty"`
	// Detail carries the offending fragment (table name, qualified column, keyword).
	Detail string `json:"detail,omitempty"`
	// Unbounded is informational: the statement is safe but lacks :start/:end placeholders.
	Unbounded bool `json:"unbounded,omitempty"`
}

// Accept builds an accepting outcome.
func Accept(unbounded bool) ValidationOutcome {
	return ValidationOutcome{Accepted: true, Unbounded: unbounded}
}

// Reject builds a rejecting outcome.
func Reject(reason ReasonCode, detail string) ValidationOutcome {
	return ValidationOutcome{Reason: reason, Detail: detail}
}

func (o ValidationOutcome) String() string {
	if o.Accepted {
		if o.Unbounded {
			return "ok (no :start/:end placeholders found)"
		}
		return "ok"
	}
	if o.Detail == "" {
		return string(o.Reason)
	}
	return string(o.Reason) + ": " + o.Detail
}
