package model

import (
	"math"
	"time"
)

// Evidence represents a cited source supporting or refuting a claim
type Evidence struct {
	Source  string  `json:"source"`        // Publisher or site name
	URL     string  `json:"url,omitempty"` // Citation URL; evidence without one scores lower
	Snippet string  `json:"snippet"`       // Quoted passage
	Quality float64 `json:"quality"`       // Trust weight in [0,1], assigned by the evidence scorer
}

// Verdict is the fact verifier's classification of a claim's truth value
type Verdict string

const (
	VerdictTrue    Verdict = "true"
	VerdictFalse   Verdict = "false"
	VerdictMixed   Verdict = "mixed"
	VerdictUnknown Verdict = "unknown"
)

// CoerceVerdict maps arbitrary verifier output to one of the four verdicts.
// Anything else becomes unknown.
func CoerceVerdict(s string) Verdict {
	switch Verdict(s) {
	case VerdictTrue, VerdictFalse, VerdictMixed, VerdictUnknown:
		return Verdict(s)
	default:
		return VerdictUnknown
	}
}

// IsContested reports whether the verdict leaves the claim unresolved
func (v Verdict) IsContested() bool {
	return v == VerdictMixed || v == VerdictUnknown
}

// FactCheck is the verification record for a single claim, one-to-one with it
type FactCheck struct {
	ID         string     `json:"id"`
	ClaimID    string     `json:"claim_id"`
	Verdict    Verdict    `json:"verdict"`
	Confidence float64    `json:"confidence"` // In [0,1]
	Evidence   []Evidence `json:"evidence"`
	Caveats    []string   `json:"caveats,omitempty"`
	CheckedAt  time.Time  `json:"checked_at"`
}

// Clamp01 clamps v to [0,1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SanitizeDim coerces NaN/Inf to the neutral value 0.5 and clamps to [0,1].
// Model output is never trusted as a domain value without passing through here.
func SanitizeDim(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.5
	}
	return Clamp01(v)
}
