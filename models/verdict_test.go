package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplianceVerdictConstruction(t *testing.T) {
	tests := []struct {
		name    string
		status  ComplianceStatus
		reason  string
		wantErr bool
	}{
		{"compliant without reason", StatusCompliant, "", false},
		{"compliant with literal None", StatusCompliant, "None", false},
		{"compliant with reason", StatusCompliant, "logo too small", true},
		{"non-compliant with reason", StatusNonCompliant, "altered Greek letters", false},
		{"non-compliant without reason", StatusNonCompliant, "", true},
		{"non-compliant with blank reason", StatusNonCompliant, "   ", true},
		{"unknown status", ComplianceStatus("Maybe"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := NewComplianceVerdict(tt.status, tt.reason)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, verdict.Status())

			reason, present := verdict.Reason()
			if tt.status == StatusCompliant {
				assert.False(t, present)
				assert.Empty(t, reason)
			} else {
				assert.True(t, present)
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestComplianceVerdictJSON(t *testing.T) {
	compliant := NewCompliantVerdict()
	data, err := json.Marshal(compliant)
	require.NoError(t, err)
	assert.JSONEq(t, `{"compliance_status":"Compliant","violation_reason":null}`, string(data))

	nonCompliant, err := NewNonCompliantVerdict("unlicensed university seal")
	require.NoError(t, err)
	data, err = json.Marshal(nonCompliant)
	require.NoError(t, err)
	assert.JSONEq(t, `{"compliance_status":"Non-compliant","violation_reason":"unlicensed university seal"}`, string(data))
}

func TestParseComplianceText(t *testing.T) {
	verdict, err := ParseComplianceText("Compliance Status: Compliant\nViolation Reason: None")
	require.NoError(t, err)
	assert.Equal(t, StatusCompliant, verdict.Status())

	verdict, err = ParseComplianceText("Compliance Status: Non-compliant\nViolation Reason: Greek letters have been altered")
	require.NoError(t, err)
	assert.Equal(t, StatusNonCompliant, verdict.Status())
	reason, present := verdict.Reason()
	assert.True(t, present)
	assert.Equal(t, "Greek letters have been altered", reason)

	// Extra whitespace and surrounding chatter on other lines are tolerated.
	verdict, err = ParseComplianceText("Here is my evaluation:\n  Compliance Status:  Compliant  \n  Violation Reason: None\n")
	require.NoError(t, err)
	assert.Equal(t, StatusCompliant, verdict.Status())
}

func TestParseComplianceTextRejectsMalformedOutput(t *testing.T) {
	cases := []string{
		"The design looks fine to me.",
		"Compliance Status: Compliant",
		"Violation Reason: None",
		"Compliance Status: Compliant\nViolation Reason: uses a trademarked crest",
		"Compliance Status: Non-compliant\nViolation Reason: None",
		"Compliance Status: Unsure\nViolation Reason: None",
	}
	for _, raw := range cases {
		_, err := ParseComplianceText(raw)
		assert.Error(t, err, "input %q should not parse", raw)
	}
}

func TestTrademarkVerdictConstruction(t *testing.T) {
	tests := []struct {
		name     string
		detected TrademarkDetected
		org      string
		wantErr  bool
	}{
		{"detected with organization", TrademarkYes, "Alpha Phi", false},
		{"detected without organization", TrademarkYes, "", true},
		{"not detected without organization", TrademarkNo, "", false},
		{"not detected with literal None", TrademarkNo, "None", false},
		{"not detected with organization", TrademarkNo, "Alpha Phi", true},
		{"unknown detection value", TrademarkDetected("Maybe"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := NewTrademarkVerdict(tt.detected, tt.org)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.detected, verdict.Detected())

			org, present := verdict.Organization()
			if tt.detected == TrademarkYes {
				assert.True(t, present)
				assert.Equal(t, tt.org, org)
			} else {
				assert.False(t, present)
				assert.Empty(t, org)
			}
		})
	}
}

func TestParseTrademarkJSON(t *testing.T) {
	verdict, err := ParseTrademarkJSON([]byte(`{"trademark_detected":"Yes","organization":"University of Michigan"}`))
	require.NoError(t, err)
	assert.Equal(t, TrademarkYes, verdict.Detected())
	org, _ := verdict.Organization()
	assert.Equal(t, "University of Michigan", org)

	verdict, err = ParseTrademarkJSON([]byte(`{"trademark_detected":"No","organization":null}`))
	require.NoError(t, err)
	assert.Equal(t, TrademarkNo, verdict.Detected())

	// Schema-conformant but inconsistent output still fails.
	_, err = ParseTrademarkJSON([]byte(`{"trademark_detected":"Yes","organization":null}`))
	assert.Error(t, err)

	_, err = ParseTrademarkJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestTrademarkVerdictJSON(t *testing.T) {
	verdict, err := NewTrademarkVerdict(TrademarkNo, "")
	require.NoError(t, err)
	data, err := json.Marshal(verdict)
	require.NoError(t, err)
	assert.JSONEq(t, `{"trademark_detected":"No","organization":null}`, string(data))
}
