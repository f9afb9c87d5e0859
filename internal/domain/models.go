package domain

import "time"

// Status is the tri-state result of a single probe.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusWarning Status = "WARNING"
	StatusFailure Status = "FAILED"
)

// Status texts shared by the probes. HTTP probes use the numeric code instead
// and command probes use "EXIT n".
const (
	TextTimeout     = "TIMEOUT"
	TextUnreachable = "UNREACHABLE"
	TextError       = "ERROR"
	TextOK          = "OK"
)

// Outcome is the recorded result of one probe execution.
// It is a value; helpers return modified copies.
type Outcome struct {
	Status     Status        `json:"status"`
	Code       int           `json:"code,omitempty"` // HTTP status or exit code; 0 when none
	StatusText string        `json:"status_text,omitempty"`
	Detail     string        `json:"detail"`
	Latency    time.Duration `json:"latency_ns,omitempty"`
}

func Success(detail string) Outcome {
	return Outcome{Status: StatusSuccess, StatusText: TextOK, Detail: detail}
}

func Warning(detail string) Outcome {
	return Outcome{Status: StatusWarning, Detail: detail}
}

func Failure(text, detail string) Outcome {
	return Outcome{Status: StatusFailure, StatusText: text, Detail: detail}
}

// Timeout builds the failure recorded when a probe exceeds its deadline.
func Timeout(after time.Duration) Outcome {
	return Failure(TextTimeout, "timeout after "+after.String())
}

func (o Outcome) WithCode(code int, text string) Outcome {
	o.Code = code
	o.StatusText = text
	return o
}

func (o Outcome) WithLatency(d time.Duration) Outcome {
	o.Latency = d
	return o
}

// AsWarning downgrades a failure to a warning, keeping code and detail.
func (o Outcome) AsWarning() Outcome {
	if o.Status == StatusFailure {
		o.Status = StatusWarning
	}
	return o
}

func (o Outcome) TimedOut() bool { return o.StatusText == TextTimeout }

// TestResult is an outcome tagged with the name of the probe that produced it.
type TestResult struct {
	Name    string  `json:"test"`
	Outcome Outcome `json:"outcome"`
}
