package cvss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scntm/scanner/internal/model"
)

func TestCompute_ReferenceVectors(t *testing.T) {
	cases := []struct {
		vector   string
		expected float64
		severity model.Severity
	}{
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", 9.8, model.SeverityCritical},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N", 6.1, model.SeverityMedium},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N", 5.3, model.SeverityMedium},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:N", 0.0, model.SeverityInfo},
		{"CVSS:3.1/AV:P/AC:H/PR:H/UI:R/S:U/C:L/I:N/A:N", 1.6, model.SeverityLow},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H", 10.0, model.SeverityCritical},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:U/C:H/I:H/A:N", 8.1, model.SeverityHigh},
	}

	for _, tc := range cases {
		score, err := Compute(tc.vector)
		require.NoError(t, err, tc.vector)
		assert.InDelta(t, tc.expected, score.Base, 0.001, tc.vector)
		assert.Equal(t, tc.severity, score.Severity, tc.vector)
	}
}

func TestCompute_MissingMetricErrors(t *testing.T) {
	_, err := Compute("CVSS:3.1/AV:N/AC:L")
	assert.Error(t, err)
}

func TestSeverityFromScore_Boundaries(t *testing.T) {
	assert.Equal(t, model.SeverityInfo, SeverityFromScore(0.0))
	assert.Equal(t, model.SeverityLow, SeverityFromScore(3.9))
	assert.Equal(t, model.SeverityMedium, SeverityFromScore(6.9))
	assert.Equal(t, model.SeverityHigh, SeverityFromScore(8.9))
	assert.Equal(t, model.SeverityCritical, SeverityFromScore(9.0))
}
