package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ComplianceStatus is the outcome of a licensing compliance evaluation.
type ComplianceStatus string

const (
	StatusCompliant    ComplianceStatus = "Compliant"
	StatusNonCompliant ComplianceStatus = "Non-compliant"
)

// ComplianceVerdict couples a compliance status with its violation reason.
// The reason is present exactly when the status is Non-compliant; the fields
// are unexported so the only way to obtain a verdict is through the
// constructors below, which reject inconsistent combinations.
type ComplianceVerdict struct {
	status ComplianceStatus
	reason string
}

// NewCompliantVerdict builds a verdict for a design that passed evaluation.
func NewCompliantVerdict() ComplianceVerdict {
	return ComplianceVerdict{status: StatusCompliant}
}

// NewNonCompliantVerdict builds a verdict for a failed design. The reason is
// mandatory; an empty reason is a construction error.
func NewNonCompliantVerdict(reason string) (ComplianceVerdict, error) {
	if strings.TrimSpace(reason) == "" {
		return ComplianceVerdict{}, fmt.Errorf("violation reason must be non-empty when status is %q", StatusNonCompliant)
	}
	return ComplianceVerdict{status: StatusNonCompliant, reason: reason}, nil
}

// NewComplianceVerdict validates an arbitrary status/reason pair, as produced
// by the model. Only two of the four combinations construct successfully.
func NewComplianceVerdict(status ComplianceStatus, reason string) (ComplianceVerdict, error) {
	switch status {
	case StatusCompliant:
		if strings.TrimSpace(reason) != "" && !strings.EqualFold(strings.TrimSpace(reason), "None") {
			return ComplianceVerdict{}, fmt.Errorf("violation reason must be empty when status is %q, got %q", StatusCompliant, reason)
		}
		return NewCompliantVerdict(), nil
	case StatusNonCompliant:
		return NewNonCompliantVerdict(reason)
	default:
		return ComplianceVerdict{}, fmt.Errorf("unknown compliance status %q", status)
	}
}

// Status returns the verdict's compliance status.
func (v ComplianceVerdict) Status() ComplianceStatus { return v.status }

// Reason returns the violation reason and whether one is present.
func (v ComplianceVerdict) Reason() (string, bool) {
	return v.reason, v.status == StatusNonCompliant
}

// MarshalJSON renders the verdict with an explicit null reason for compliant
// designs, matching the wire shape clients expect.
func (v ComplianceVerdict) MarshalJSON() ([]byte, error) {
	out := struct {
		Status ComplianceStatus `json:"compliance_status"`
		Reason *string          `json:"violation_reason"`
	}{Status: v.status}
	if v.status == StatusNonCompliant {
		out.Reason = &v.reason
	}
	return json.Marshal(out)
}

// ParseComplianceText parses the agent's two-line answer convention:
//
//	Compliance Status: Compliant|Non-compliant
//	Violation Reason: None|<explanation>
//
// Anything that does not fit the convention, or fits it but violates the
// status/reason coupling, is an error. The parser never guesses a default
// status.
func ParseComplianceText(raw string) (ComplianceVerdict, error) {
	var status, reason string
	var haveStatus, haveReason bool

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if after, ok := cutPrefixFold(line, "Compliance Status:"); ok {
			status = strings.TrimSpace(after)
			haveStatus = true
		} else if after, ok := cutPrefixFold(line, "Violation Reason:"); ok {
			reason = strings.TrimSpace(after)
			haveReason = true
		}
	}
	if !haveStatus || !haveReason {
		return ComplianceVerdict{}, fmt.Errorf("response does not follow the two-line compliance format: %q", raw)
	}
	if strings.EqualFold(reason, "None") {
		reason = ""
	}
	return NewComplianceVerdict(ComplianceStatus(status), reason)
}

// cutPrefixFold is strings.CutPrefix with case-insensitive matching.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return "", false
}

// TrademarkDetected is the yes/no outcome of trademark detection.
type TrademarkDetected string

const (
	TrademarkYes TrademarkDetected = "Yes"
	TrademarkNo  TrademarkDetected = "No"
)

// TrademarkVerdict couples a detection outcome with the organization owning
// the detected mark. The organization is present exactly when a trademark was
// detected.
type TrademarkVerdict struct {
	detected     TrademarkDetected
	organization string
}

// NewTrademarkVerdict validates a detected/organization pair.
func NewTrademarkVerdict(detected TrademarkDetected, organization string) (TrademarkVerdict, error) {
	org := strings.TrimSpace(organization)
	if strings.EqualFold(org, "None") {
		org = ""
	}
	switch detected {
	case TrademarkNo:
		if org != "" {
			return TrademarkVerdict{}, fmt.Errorf("organization must be empty when no trademark is detected, got %q", organization)
		}
		return TrademarkVerdict{detected: TrademarkNo}, nil
	case TrademarkYes:
		if org == "" {
			return TrademarkVerdict{}, fmt.Errorf("organization must be non-empty when a trademark is detected")
		}
		return TrademarkVerdict{detected: TrademarkYes, organization: org}, nil
	default:
		return TrademarkVerdict{}, fmt.Errorf("unknown trademark detection value %q", detected)
	}
}

// ParseTrademarkJSON decodes the model's structured trademark answer and
// routes it through the validating constructor, so schema-conformant but
// inconsistent output still fails loudly.
func ParseTrademarkJSON(data []byte) (TrademarkVerdict, error) {
	var raw struct {
		Detected     TrademarkDetected `json:"trademark_detected"`
		Organization *string           `json:"organization"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return TrademarkVerdict{}, fmt.Errorf("trademark response is not valid JSON: %w", err)
	}
	org := ""
	if raw.Organization != nil {
		org = *raw.Organization
	}
	return NewTrademarkVerdict(raw.Detected, org)
}

// Detected returns the detection outcome.
func (v TrademarkVerdict) Detected() TrademarkDetected { return v.detected }

// Organization returns the owning organization and whether one is present.
func (v TrademarkVerdict) Organization() (string, bool) {
	return v.organization, v.detected == TrademarkYes
}

// MarshalJSON renders the verdict with an explicit null organization when no
// trademark was detected.
func (v TrademarkVerdict) MarshalJSON() ([]byte, error) {
	out := struct {
		Detected     TrademarkDetected `json:"trademark_detected"`
		Organization *string           `json:"organization"`
	}{Detected: v.detected}
	if v.detected == TrademarkYes {
		out.Organization = &v.organization
	}
	return json.Marshal(out)
}
