// Package model defines the scan-engine's data types: the crawled page
// shape, the finding record detectors emit, and the Scan state row owned by
// the persistence port.
package model

import (
	"net/http"
	"time"
)

// Severity is one of the five finding severity tiers.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Confidence reflects how strong a detector's oracle signal was.
type Confidence string

const (
	ConfidenceTentative Confidence = "tentative"
	ConfidenceFirm      Confidence = "firm"
	ConfidenceConfirmed Confidence = "confirmed"
)

// FormInput is one field of an extracted HTML form.
type FormInput struct {
	Name  string
	Type  string
	Value string
}

// Form is a page's <form>, action resolved against the page URL.
type Form struct {
	Action string
	Method string
	Inputs []FormInput
}

// Header is a multi-valued HTTP header map whose accessors canonicalize
// keys (so lookups are case-insensitive), matching net/http.Header's shape so callers can use
// either interchangeably.
type Header map[string][]string

func (h Header) Get(key string) string {
	vs := h[http.CanonicalHeaderKey(key)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

func (h Header) Values(key string) []string {
	return h[http.CanonicalHeaderKey(key)]
}

func (h Header) Add(key, value string) {
	k := http.CanonicalHeaderKey(key)
	h[k] = append(h[k], value)
}

// CrawledPage is immutable once the crawler emits it.
type CrawledPage struct {
	URL        string
	StatusCode int
	Headers    Header
	Body       string
	Forms      []Form
	Links      []string
	Depth      int
}

// EvidenceType classifies one attached piece of proof on a Finding.
type EvidenceType string

const (
	EvidencePayload  EvidenceType = "payload"
	EvidenceRequest  EvidenceType = "request"
	EvidenceResponse EvidenceType = "response"
	EvidenceLog      EvidenceType = "log"
)

// Evidence is one ordered item of proof attached to a Finding.
type Evidence struct {
	Type       EvidenceType
	Title      string
	Content    string
	OrderIndex int
}

// Finding is the record a detector emits for one vulnerability instance.
type Finding struct {
	ModuleName         string
	VulnType           string
	Severity           Severity
	CVSSScore          float64
	CVSSVector         string
	OWASPCategory      string
	CWEID              string
	AffectedURL        string
	AffectedParameter  string
	Description        string
	Remediation        string
	Confidence         Confidence
	Evidence           []Evidence
}

// Fingerprint is the dedup key: at most one Finding per fingerprint
// survives to persistence.
func (f Finding) Fingerprint() string {
	return f.ModuleName + "\x00" + f.VulnType + "\x00" + f.AffectedURL + "\x00" + f.AffectedParameter
}

// ScanStatus is the Scan row's lifecycle state.
type ScanStatus string

const (
	StatusPending   ScanStatus = "pending"
	StatusCrawling  ScanStatus = "crawling"
	StatusScanning  ScanStatus = "scanning"
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
	StatusCancelled ScanStatus = "cancelled"
)

func (s ScanStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Scan is the mutable row the orchestrator drives through its state
// machine. It is owned by the persistence port; the orchestrator only ever
// holds a copy loaded via datastore.Store.LoadScan.
type Scan struct {
	ID              string
	TargetURL       string
	Mode            string
	Status          ScanStatus
	ProgressPercent int
	PagesFound      int
	PagesScanned    int

	IncludeSubdomains bool
	ExcludePatterns   []string
	CustomHeaders     map[string]string
	RequestDelay      float64

	StartedAt     time.Time
	CompletedAt   time.Time
	ErrorMessage  string
}
