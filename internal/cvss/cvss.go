// Package cvss scores a CVSS v3.1 vector string into a Base Score and
// severity label, using the exact FIRST.org equations. No third-party
// library in the corpus computes CVSS; this is plain arithmetic over a
// parsed metric table.
package cvss

import (
	"fmt"
	"math"
	"strings"

	"github.com/scntm/scanner/internal/model"
)

var (
	avValues = map[string]float64{"N": 0.85, "A": 0.62, "L": 0.55, "P": 0.20}
	acValues = map[string]float64{"L": 0.77, "H": 0.44}
	uiValues = map[string]float64{"N": 0.85, "R": 0.62}
	cValues  = map[string]float64{"N": 0.0, "L": 0.22, "H": 0.56}

	prValuesUnchanged = map[string]float64{"N": 0.85, "L": 0.62, "H": 0.27}
	prValuesChanged   = map[string]float64{"N": 0.85, "L": 0.68, "H": 0.50}
)

// Score holds the computed Base Score and its severity label.
type Score struct {
	Base     float64
	Severity model.Severity
}

// parseVector parses a "CVSS:3.1/AV:.../..." vector into a metric map.
func parseVector(vector string) (map[string]string, error) {
	parts := strings.Split(vector, "/")
	metrics := map[string]string{}
	for _, p := range parts {
		if !strings.Contains(p, ":") {
			continue // the leading "CVSS:3.1" label
		}
		kv := strings.SplitN(p, ":", 2)
		metrics[kv[0]] = kv[1]
	}
	required := []string{"AV", "AC", "PR", "UI", "S", "C", "I", "A"}
	for _, k := range required {
		if _, ok := metrics[k]; !ok {
			return nil, fmt.Errorf("cvss vector missing metric %s", k)
		}
	}
	return metrics, nil
}

// Compute returns the Base Score and severity for a vector string.
func Compute(vector string) (Score, error) {
	m, err := parseVector(vector)
	if err != nil {
		return Score{}, err
	}

	scopeChanged := m["S"] == "C"

	c := cValues[m["C"]]
	i := cValues[m["I"]]
	a := cValues[m["A"]]
	iscBase := 1 - (1-c)*(1-i)*(1-a)

	var impact float64
	if scopeChanged {
		impact = 7.52*(iscBase-0.029) - 3.25*math.Pow(iscBase-0.02, 15)
	} else {
		impact = 6.42 * iscBase
	}

	prTable := prValuesUnchanged
	if scopeChanged {
		prTable = prValuesChanged
	}

	exploitability := 8.22 * avValues[m["AV"]] * acValues[m["AC"]] * prTable[m["PR"]] * uiValues[m["UI"]]

	var base float64
	if impact <= 0 {
		base = 0.0
	} else if scopeChanged {
		base = roundUp(math.Min(1.08*(impact+exploitability), 10))
	} else {
		base = roundUp(math.Min(impact+exploitability, 10))
	}

	return Score{Base: base, Severity: SeverityFromScore(base)}, nil
}

func roundUp(x float64) float64 {
	return math.Ceil(x*10) / 10
}

// SeverityFromScore maps a Base Score to its severity label. Findings
// are never trusted to self-report severity — the orchestrator always
// re-derives it from this function.
func SeverityFromScore(score float64) model.Severity {
	switch {
	case score == 0.0:
		return model.SeverityInfo
	case score <= 3.9:
		return model.SeverityLow
	case score <= 6.9:
		return model.SeverityMedium
	case score <= 8.9:
		return model.SeverityHigh
	default:
		return model.SeverityCritical
	}
}
