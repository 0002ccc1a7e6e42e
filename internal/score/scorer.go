package score

import (
	"fmt"
	"time"

	"github.com/trustpipe/trustpipe/internal/model"
)

// Weights is one row of the domain-dependent weight table; rows sum to 1
type Weights struct {
	Epistemic  float64
	Insight    float64
	Practical  float64
	Relational float64
	Effort     float64
}

// domainWeights maps the dominant claim domain to its weight row
var domainWeights = map[model.Domain]Weights{
	model.DomainHealth:       {0.35, 0.25, 0.20, 0.10, 0.10},
	model.DomainPolitics:     {0.35, 0.25, 0.20, 0.10, 0.10},
	model.DomainTechnology:   {0.25, 0.35, 0.20, 0.10, 0.10},
	model.DomainStartups:     {0.25, 0.35, 0.20, 0.10, 0.10},
	model.DomainProductivity: {0.20, 0.25, 0.35, 0.10, 0.10},
	model.DomainDesign:       {0.20, 0.25, 0.35, 0.10, 0.10},
}

// defaultWeights applies when the dominant domain has no dedicated row
var defaultWeights = Weights{0.30, 0.25, 0.20, 0.15, 0.10}

// WeightsFor returns the weight row for a domain
func WeightsFor(domain model.Domain) Weights {
	if w, ok := domainWeights[domain]; ok {
		return w
	}
	return defaultWeights
}

// epistemicUncertaintyCeiling caps the epistemic dimension when no fact
// checks exist: unverified content cannot score as well-grounded.
const epistemicUncertaintyCeiling = 0.35

// Scorer combines claims, verdicts and discussion quality into the
// five-dimension ValueVector and its domain-weighted total.
type Scorer struct {
	falseConfidenceThreshold float64
}

// NewScorer creates a value scorer. threshold is the confidence above
// which a false verdict triggers the penalty (config, not constant).
func NewScorer(falseConfidenceThreshold float64) *Scorer {
	if falseConfidenceThreshold <= 0 {
		falseConfidenceThreshold = 0.7
	}
	return &Scorer{falseConfidenceThreshold: falseConfidenceThreshold}
}

// DominantDomain returns the claim domain with the most risk-weighted
// occurrences, falling back to the item's declared topic on a tie or when
// no claims exist.
func DominantDomain(claims []model.Claim, declared model.Domain) model.Domain {
	if len(claims) == 0 {
		return declared
	}

	counts := make(map[model.Domain]int)
	for _, c := range claims {
		counts[c.Domain] += c.RiskLevel.Weight()
	}

	best := declared
	bestCount := 0
	tied := false
	for domain, count := range counts {
		switch {
		case count > bestCount:
			best, bestCount, tied = domain, count, false
		case count == bestCount && domain != best:
			tied = true
		}
	}
	if tied {
		return declared
	}
	return best
}

// Score computes the ValueVector for a content item. Pure and total: all
// inputs are sanitized (NaN/Inf coerced to neutral 0.5), all outputs
// clamped to [0,1].
func (s *Scorer) Score(content *model.ContentItem, claims []model.Claim, checks []model.FactCheck, disc *model.DiscussionAnalysis) model.ValueVector {
	var drivers []string

	epistemic := s.epistemicScore(checks)
	insight, practical, relational := discussionDims(disc)
	effort := effortScore(content, disc)

	// Uncertainty ceiling: no fact checks means factual grounding is unknown
	if len(checks) == 0 {
		if epistemic > epistemicUncertaintyCeiling {
			epistemic = epistemicUncertaintyCeiling
		}
		drivers = append(drivers, "no fact-checks: epistemic capped")
	}

	// Confident-false penalty: epistemic takes the full hit, insight a
	// smaller factor of the same penalty
	falseCount := s.confidentFalseCount(checks)
	if falseCount > 0 {
		penalty := 1 - min(0.8, float64(falseCount)*0.25)
		epistemic *= penalty
		insight *= 1 - (1-penalty)*0.5
		drivers = append(drivers, fmt.Sprintf("%d confidently false claim(s): epistemic penalized", falseCount))
	}

	// Sanitize every dimension before weighting
	epistemic = model.SanitizeDim(epistemic)
	insight = model.SanitizeDim(insight)
	practical = model.SanitizeDim(practical)
	relational = model.SanitizeDim(relational)
	effort = model.SanitizeDim(effort)

	dominant := DominantDomain(claims, content.Topic)
	w := WeightsFor(dominant)
	total := model.Clamp01(w.Epistemic*epistemic +
		w.Insight*insight +
		w.Practical*practical +
		w.Relational*relational +
		w.Effort*effort)

	drivers = append(drivers, fmt.Sprintf("dominant domain: %s", dominant))

	return model.ValueVector{
		Epistemic:  epistemic,
		Insight:    insight,
		Practical:  practical,
		Relational: relational,
		Effort:     effort,
		Total:      total,
		Confidence: scoringConfidence(checks, disc),
		Drivers:    drivers,
		UpdatedAt:  time.Now().UTC(),
	}
}

// epistemicScore derives factual grounding from the verdict mix, weighted
// by verification confidence and mean evidence quality.
func (s *Scorer) epistemicScore(checks []model.FactCheck) float64 {
	if len(checks) == 0 {
		return epistemicUncertaintyCeiling
	}

	sum := 0.0
	for _, c := range checks {
		conf := model.SanitizeDim(c.Confidence)
		var base float64
		switch c.Verdict {
		case model.VerdictTrue:
			base = 0.5 + 0.5*conf
		case model.VerdictFalse:
			base = 0.5 - 0.5*conf
		case model.VerdictMixed:
			base = 0.45
		default: // unknown
			base = 0.4
		}
		// Strong evidence pulls the score toward its verdict; none dilutes it
		if q := meanEvidenceQuality(c.Evidence); q > 0 {
			base = base*0.7 + base*0.3*q
		}
		sum += base
	}
	return sum / float64(len(checks))
}

func (s *Scorer) confidentFalseCount(checks []model.FactCheck) int {
	count := 0
	for _, c := range checks {
		if c.Verdict == model.VerdictFalse && c.Confidence > s.falseConfidenceThreshold {
			count++
		}
	}
	return count
}

func discussionDims(disc *model.DiscussionAnalysis) (insight, practical, relational float64) {
	if disc == nil {
		// Neutral midpoints when the discussion stage produced nothing
		return 0.5, 0.5, 0.5
	}
	insight = disc.Thread.ReasoningDepth*0.6 + disc.Thread.CrossPerspective*0.4
	practical = disc.Thread.Informativeness
	relational = disc.Thread.Civility*0.6 + disc.Thread.CrossPerspective*0.4
	return insight, practical, relational
}

func effortScore(content *model.ContentItem, disc *model.DiscussionAnalysis) float64 {
	// Authorship depth approximated by text length, topped up modestly by
	// the effort the thread drew out of others
	base := model.Clamp01(float64(len(content.Text)) / 1200.0)
	if disc != nil && len(disc.PerReply) > 0 {
		sum := 0.0
		for _, rc := range disc.PerReply {
			sum += rc.Vector.Effort
		}
		base = model.Clamp01(base*0.8 + (sum/float64(len(disc.PerReply)))*0.2)
	}
	return base
}

func scoringConfidence(checks []model.FactCheck, disc *model.DiscussionAnalysis) float64 {
	conf := 0.5
	if len(checks) > 0 {
		sum := 0.0
		for _, c := range checks {
			sum += model.SanitizeDim(c.Confidence)
		}
		conf = sum / float64(len(checks))
	}
	if disc == nil {
		conf *= 0.8 // Discussion stage missing lowers trust in the vector
	}
	return model.Clamp01(conf)
}

func meanEvidenceQuality(evs []model.Evidence) float64 {
	if len(evs) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range evs {
		sum += e.Quality
	}
	return sum / float64(len(evs))
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
