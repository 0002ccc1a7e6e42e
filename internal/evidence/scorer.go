package evidence

import (
	"net/url"
	"strings"

	"github.com/trustpipe/trustpipe/internal/model"
)

// Scorer assigns a trust weight in [0,1] to a piece of evidence based on a
// static domain-trust table. Pure function of the citation URL; no network.
type Scorer struct {
	weights          map[string]float64
	defaultQuality   float64
	noURLQuality     float64
	discardThreshold float64
}

// defaultWeights is the built-in domain-trust table. Authoritative
// institutional, government and academic hosts score high; known low-signal
// social hosts score at or near zero. Host matching is suffix-based so
// cdc.gov covers www.cdc.gov.
var defaultWeights = map[string]float64{
	// Institutional / government / academic
	"who.int":                 0.95,
	"nih.gov":                 0.95,
	"cdc.gov":                 0.95,
	"nature.com":              0.9,
	"science.org":             0.9,
	"thelancet.com":           0.9,
	"nejm.org":                0.9,
	"pubmed.ncbi.nlm.nih.gov": 0.9,
	"doi.org":                 0.85,
	"arxiv.org":               0.75,

	// Major wire services and established press
	"reuters.com":   0.8,
	"apnews.com":    0.8,
	"bbc.com":       0.75,
	"bbc.co.uk":     0.75,
	"economist.com": 0.7,
	"ft.com":        0.7,
	"nytimes.com":   0.7,

	// Reference
	"wikipedia.org":  0.6,
	"britannica.com": 0.65,

	// Low-signal / social
	"facebook.com":  0.05,
	"twitter.com":   0.05,
	"x.com":         0.05,
	"tiktok.com":    0.0,
	"reddit.com":    0.1,
	"medium.com":    0.25,
	"substack.com":  0.25,
	"quora.com":     0.1,
	"pinterest.com": 0.0,
}

// NewScorer creates an evidence scorer from configuration. Config weights
// extend and override the built-in table.
func NewScorer(cfg model.EvidenceConfig) *Scorer {
	weights := make(map[string]float64, len(defaultWeights)+len(cfg.DomainWeights))
	for host, w := range defaultWeights {
		weights[host] = w
	}
	for host, w := range cfg.DomainWeights {
		weights[host] = model.Clamp01(w)
	}

	defaultQuality := cfg.DefaultQuality
	if defaultQuality == 0 {
		defaultQuality = 0.5
	}
	noURLQuality := cfg.NoURLQuality
	if noURLQuality == 0 {
		noURLQuality = 0.3
	}

	return &Scorer{
		weights:          weights,
		defaultQuality:   defaultQuality,
		noURLQuality:     noURLQuality,
		discardThreshold: cfg.DiscardThreshold,
	}
}

// Score returns the trust weight for one piece of evidence.
// Evidence lacking a URL scores lower than evidence with one.
func (s *Scorer) Score(ev model.Evidence) float64 {
	if ev.URL == "" {
		return s.noURLQuality
	}
	return s.ScoreURL(ev.URL)
}

// ScoreURL returns the trust weight for a citation URL
func (s *Scorer) ScoreURL(rawURL string) float64 {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return s.noURLQuality
	}

	host := strings.ToLower(parsed.Host)
	if idx := strings.Index(host, ":"); idx > 0 {
		host = host[:idx]
	}

	// Exact and suffix matches against the trust table
	if w, ok := s.weights[host]; ok {
		return w
	}
	for domain, w := range s.weights {
		if strings.HasSuffix(host, "."+domain) {
			return w
		}
	}

	// Government and academic TLDs are authoritative even when unlisted
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") ||
		strings.HasSuffix(host, ".ac.uk") || strings.HasSuffix(host, ".gov.uk") {
		return 0.9
	}

	return s.defaultQuality
}

// Annotate fills in the Quality field on each evidence entry
func (s *Scorer) Annotate(evs []model.Evidence) []model.Evidence {
	for i := range evs {
		evs[i].Quality = s.Score(evs[i])
	}
	return evs
}

// Filter drops evidence at or below the discard threshold. Discarded
// evidence never reaches verdict aggregation.
func (s *Scorer) Filter(evs []model.Evidence) []model.Evidence {
	kept := make([]model.Evidence, 0, len(evs))
	for _, ev := range evs {
		if ev.Quality > s.discardThreshold {
			kept = append(kept, ev)
		}
	}
	return kept
}
