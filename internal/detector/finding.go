package detector

import (
	"github.com/scntm/scanner/internal/cvss"
	"github.com/scntm/scanner/internal/model"
)

// NewFinding builds a Finding with CVSSScore/Severity derived from vector
// via the CVSS scorer, so every module reports a consistent score instead
// of hand-picking a severity label.
func NewFinding(moduleName, vulnType, vector, owaspCategory, cweID, affectedURL, affectedParameter, description, remediation string, confidence model.Confidence, evidence ...model.Evidence) model.Finding {
	score, err := cvss.Compute(vector)
	if err != nil {
		score = cvss.Score{Severity: model.SeverityInfo}
	}
	for i := range evidence {
		evidence[i].OrderIndex = i
	}
	return model.Finding{
		ModuleName:        moduleName,
		VulnType:          vulnType,
		Severity:          score.Severity,
		CVSSScore:         score.Base,
		CVSSVector:        vector,
		OWASPCategory:     owaspCategory,
		CWEID:             cweID,
		AffectedURL:       affectedURL,
		AffectedParameter: affectedParameter,
		Description:       description,
		Remediation:       remediation,
		Confidence:        confidence,
		Evidence:          evidence,
	}
}

func evidence(typ model.EvidenceType, title, content string) model.Evidence {
	return model.Evidence{Type: typ, Title: title, Content: content}
}

// Evidence helpers exported for module packages.
func PayloadEvidence(title, content string) model.Evidence  { return evidence(model.EvidencePayload, title, content) }
func RequestEvidence(title, content string) model.Evidence  { return evidence(model.EvidenceRequest, title, content) }
func ResponseEvidence(title, content string) model.Evidence { return evidence(model.EvidenceResponse, title, content) }
func LogEvidence(title, content string) model.Evidence      { return evidence(model.EvidenceLog, title, content) }
