package model

import "time"

// Claim represents an atomic factual assertion extracted from a content item.
// Claims are immutable once created; re-extraction derives new claims with
// fresh IDs rather than mutating existing ones.
type Claim struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`                // At most MaxClaimTextLen characters
	Type        ClaimType `json:"type"`                // fact, opinion, experience
	Domain      Domain    `json:"domain"`              // Topic domain the claim belongs to
	RiskLevel   RiskLevel `json:"risk_level"`          // low, medium, high
	Confidence  float64   `json:"confidence"`          // Extraction confidence in [0,1]
	Heuristic   string    `json:"heuristic,omitempty"` // Which fallback rule matched, if any
	ExtractedAt time.Time `json:"extracted_at"`
}

// MaxClaimTextLen is the hard cap on claim text; longer extractor output is truncated.
const MaxClaimTextLen = 240

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeFact       ClaimType = "fact"       // Verifiable factual assertion
	ClaimTypeOpinion    ClaimType = "opinion"    // Subjective judgement
	ClaimTypeExperience ClaimType = "experience" // First-person or anecdotal report
)

// CoerceClaimType maps arbitrary classifier output to a valid claim type.
// Unknown values default to fact so they are never dropped from verification.
func CoerceClaimType(s string) ClaimType {
	switch ClaimType(s) {
	case ClaimTypeFact, ClaimTypeOpinion, ClaimTypeExperience:
		return ClaimType(s)
	default:
		return ClaimTypeFact
	}
}

// Domain classifies the topic area of a claim or content item
type Domain string

const (
	DomainHealth       Domain = "health"
	DomainFinance      Domain = "finance"
	DomainPolitics     Domain = "politics"
	DomainTechnology   Domain = "technology"
	DomainStartups     Domain = "startups"
	DomainProductivity Domain = "productivity"
	DomainDesign       Domain = "design"
	DomainGeneral      Domain = "general"
)

// CoerceDomain maps arbitrary classifier output to a known domain
func CoerceDomain(s string) Domain {
	switch Domain(s) {
	case DomainHealth, DomainFinance, DomainPolitics, DomainTechnology,
		DomainStartups, DomainProductivity, DomainDesign, DomainGeneral:
		return Domain(s)
	default:
		return DomainGeneral
	}
}

// IsHighRiskDomain reports whether unresolved claims in this domain
// should route the content item to human review.
func (d Domain) IsHighRiskDomain() bool {
	switch d {
	case DomainHealth, DomainFinance, DomainPolitics:
		return true
	default:
		return false
	}
}

// RiskLevel grades how much harm an unverified claim could cause
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// CoerceRiskLevel maps arbitrary classifier output to a valid risk level.
// Unknown values default to medium, the conservative middle.
func CoerceRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh:
		return RiskLevel(s)
	default:
		return RiskMedium
	}
}

// Weight returns the multiplier used when counting claims per domain
func (r RiskLevel) Weight() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	default:
		return 1
	}
}
