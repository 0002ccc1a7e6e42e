package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/trustpipe/trustpipe/internal/llm"
	"github.com/trustpipe/trustpipe/internal/metrics"
	"github.com/trustpipe/trustpipe/internal/model"
)

// Extractor turns content text into atomic, typed claims.
// Hedged or anecdotal phrasing is extracted as a lower-confidence
// experience claim, never dropped: dropping enables a known evasion
// pattern where misinformation is framed as personal anecdote.
type Extractor struct {
	svc    *llm.Service
	cfg    model.ExtractConfig
	logger *zap.Logger
}

// NewExtractor creates a claim extractor
func NewExtractor(svc *llm.Service, cfg model.ExtractConfig, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{svc: svc, cfg: cfg, logger: logger}
}

type claimSchema struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Domain     string  `json:"domain"`
	RiskLevel  string  `json:"risk_level"`
	Confidence float64 `json:"confidence"`
}

const extractSystem = `You extract atomic factual claims from user content. One verifiable assertion per claim. Include claims that are implicit, hedged, or framed as personal experience - mark those type "experience" with lower confidence instead of omitting them. Respond with a JSON array: [{"text": "...", "type": "fact|opinion|experience", "domain": "health|finance|politics|technology|startups|productivity|design|general", "risk_level": "low|medium|high", "confidence": 0..1}].`

const extractSystemStrict = extractSystem + ` You MUST return at least one claim if the content makes any assertion about the world, however indirect. An empty array is only acceptable for pure greetings or emoji.`

// Extract produces the ordered claim list for a content item. Claims come
// from both the new text and any quoted text; if the quoted item already
// carries complete verified claims, those are reused by near-duplicate
// matching instead of re-extracted. Never returns an error: extraction
// failure degrades to the sentence heuristic.
func (e *Extractor) Extract(ctx context.Context, content *model.ContentItem, quoted *model.ContentItem) []model.Claim {
	text := StripHTML(content.Text)
	if content.ImageText != "" {
		text += "\n" + StripHTML(content.ImageText)
	}

	var quotedText string
	var reusable []model.Claim
	if quoted != nil {
		if quoted.HasVerifiedClaims() {
			reusable = quoted.Insights.Claims
		} else {
			quotedText = StripHTML(quoted.Text)
		}
	}

	combined := text
	if quotedText != "" {
		combined += "\nQuoted content:\n" + quotedText
	}

	claims := e.extractWithModel(ctx, combined)
	if len(claims) == 0 {
		if e.svc.Enabled() {
			metrics.StageFallbacks.WithLabelValues(string(model.StageClaims)).Inc()
		}
		claims = e.heuristicClaims(text)
	}

	// Reuse verified claims from the quoted item, skipping near-duplicates
	// of anything already extracted from the new text
	for _, qc := range reusable {
		if hasNearDuplicate(claims, qc.Text) {
			continue
		}
		claims = append(claims, qc)
	}

	if e.cfg.MaxClaims > 0 && len(claims) > e.cfg.MaxClaims {
		claims = claims[:e.cfg.MaxClaims]
	}

	return claims
}

// extractWithModel runs the model extraction, retrying once with the
// stricter prompt if the first pass comes back empty.
func (e *Extractor) extractWithModel(ctx context.Context, text string) []model.Claim {
	if !e.svc.Enabled() {
		return nil
	}

	sanitized := llm.Truncate(llm.SanitizeUntrusted(text), 4000)
	prompt := fmt.Sprintf("Extract claims from the following content:\n\n%s", sanitized)

	claims, err := e.runExtraction(ctx, extractSystem, prompt)
	if err != nil {
		e.logger.Warn("claim extraction failed", zap.Error(err))
		return nil
	}
	if len(claims) > 0 {
		return claims
	}

	// Retry once with the stricter prompt before giving up
	claims, err = e.runExtraction(ctx, extractSystemStrict, prompt)
	if err != nil {
		e.logger.Warn("strict claim extraction failed", zap.Error(err))
		return nil
	}
	return claims
}

func (e *Extractor) runExtraction(ctx context.Context, system, prompt string) ([]model.Claim, error) {
	var out []claimSchema
	if err := e.svc.InferJSON(ctx, llm.InferRequest{System: system, Prompt: prompt}, &out); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	claims := make([]model.Claim, 0, len(out))
	for _, c := range out {
		c.Text = strings.TrimSpace(c.Text)
		if c.Text == "" {
			continue
		}
		claims = append(claims, model.Claim{
			ID:          uuid.NewString(),
			Text:        llm.Truncate(c.Text, model.MaxClaimTextLen),
			Type:        model.CoerceClaimType(c.Type),
			Domain:      model.CoerceDomain(c.Domain),
			RiskLevel:   model.CoerceRiskLevel(c.RiskLevel),
			Confidence:  model.SanitizeDim(c.Confidence),
			ExtractedAt: now,
		})
	}
	return dedupeClaims(claims), nil
}

// First-person markers used by the fallback classifier
var firstPersonMarkers = []string{"i ", "i'", "my ", "me ", "we ", "our "}

// heuristicClaims is the last-resort extractor: split into sentences of at
// least 8 characters, take the first three, classify as experience when
// first-person language is present, fixed low confidence.
func (e *Extractor) heuristicClaims(text string) []model.Claim {
	confidence := e.cfg.FallbackConfidence
	if confidence == 0 {
		confidence = 0.35
	}

	now := time.Now().UTC()
	var claims []model.Claim
	for _, sentence := range splitSentences(text) {
		if len(sentence) < 8 {
			continue
		}

		claimType := model.ClaimTypeFact
		lower := strings.ToLower(sentence)
		for _, marker := range firstPersonMarkers {
			// Markers carry their own delimiter ("i ", "i'"), so a bare
			// prefix match covers contractions like "i'm" and "i've"
			if strings.HasPrefix(lower, marker) || strings.Contains(lower, " "+marker) {
				claimType = model.ClaimTypeExperience
				break
			}
		}

		claims = append(claims, model.Claim{
			ID:          uuid.NewString(),
			Text:        llm.Truncate(sentence, model.MaxClaimTextLen),
			Type:        claimType,
			Domain:      model.DomainGeneral,
			RiskLevel:   model.RiskMedium,
			Confidence:  confidence,
			Heuristic:   "sentence_fallback",
			ExtractedAt: now,
		})
		if len(claims) == 3 {
			break
		}
	}
	return claims
}

// StripHTML extracts visible text from rich-text content, skipping
// script/style/noscript/iframe subtrees. Plain text passes through.
func StripHTML(content string) string {
	if !strings.ContainsRune(content, '<') {
		return strings.TrimSpace(content)
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return strings.TrimSpace(content)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String())
}

// splitSentences splits text into sentences (simple heuristic)
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\t' {
				flush()
			}
		}
	}
	flush()

	return sentences
}

// dedupeClaims removes duplicate claims by normalized text
func dedupeClaims(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool)
	var unique []model.Claim
	for _, claim := range claims {
		key := normalizeClaimText(claim.Text)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, claim)
		}
	}
	return unique
}

// hasNearDuplicate reports whether a claim with near-identical text exists
func hasNearDuplicate(claims []model.Claim, text string) bool {
	key := normalizeClaimText(text)
	for _, c := range claims {
		if normalizeClaimText(c.Text) == key {
			return true
		}
	}
	return false
}

// normalizeClaimText lowercases and strips punctuation and extra spaces so
// trivially reworded duplicates match
func normalizeClaimText(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
