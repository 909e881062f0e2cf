package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/healthlens/internal/cache"
	apperrors "github.com/ppiankov/healthlens/internal/errors"
	"github.com/ppiankov/healthlens/internal/evidence"
	"github.com/ppiankov/healthlens/internal/extract"
	"github.com/ppiankov/healthlens/internal/glossary"
	"github.com/ppiankov/healthlens/internal/llm"
	"github.com/ppiankov/healthlens/internal/model"
	"github.com/ppiankov/healthlens/internal/score"
	"github.com/ppiankov/healthlens/internal/text"
	"github.com/ppiankov/healthlens/internal/validate"
)

// Pipeline orchestrates the analysis of one article
type Pipeline struct {
	fetcher    *Fetcher
	detector   *extract.ClaimDetector
	citations  *extract.CitationExtractor
	glossary   *glossary.Glossary
	scorer     *score.Scorer
	linker     *evidence.Linker
	validator  *validate.Validator // nil unless validation is enabled
	summarizer *llm.Summarizer     // nil if disabled
	config     *model.Config
	logger     zerolog.Logger
	now        func() time.Time
}

// Option configures optional Pipeline collaborators
type Option func(*Pipeline)

// WithGlossary replaces the glossary loaded from config
func WithGlossary(g *glossary.Glossary) Option {
	return func(p *Pipeline) { p.glossary = g }
}

// WithPipelineLogger sets the logger used for stage warnings
func WithPipelineLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClaimIDs replaces the random claim ID generator
func WithClaimIDs(gen extract.IDGenerator) Option {
	return func(p *Pipeline) {
		p.detector, _ = extract.NewClaimDetector(p.detector.MinLength(), extract.WithIDGenerator(gen))
	}
}

// WithFetcher replaces the config-built fetcher
func WithFetcher(f *Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithValidator enables citation validation with v
func WithValidator(v *validate.Validator) Option {
	return func(p *Pipeline) { p.validator = v }
}

// WithSummarizer enables LLM explanations with s
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithClock fixes the report timestamp source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a new pipeline with the given configuration.
// The glossary comes from cfg.Glossary.Path when set, the built-in default otherwise.
func NewPipeline(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, apperrors.InvalidType("pipeline", "config is nil")
	}

	detector, err := extract.NewClaimDetector(cfg.Analysis.MinClaimLength)
	if err != nil {
		return nil, fmt.Errorf("claim detector: %w", err)
	}

	p := &Pipeline{
		detector:  detector,
		citations: extract.NewCitationExtractor(),
		scorer:    score.NewScorer(),
		linker:    evidence.NewLinker(),
		config:    cfg,
		logger:    zerolog.Nop(),
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(p)
	}

	// 1. Glossary
	if p.glossary == nil {
		if cfg.Glossary.Path != "" {
			g, err := glossary.LoadFile(cfg.Glossary.Path)
			if err != nil {
				return nil, fmt.Errorf("load glossary: %w", err)
			}
			p.glossary = g
		} else {
			p.glossary = glossary.Default()
		}
	}

	// 2. Shared cache for pages and citation checks
	var shared cache.Cache
	if p.fetcher == nil || (p.validator == nil && cfg.Validation.Enabled) {
		shared = cache.New(cfg.Cache)
	}

	// 3. Network collaborators
	if p.fetcher == nil {
		p.fetcher = NewFetcherFromConfig(cfg, shared, p.logger)
	}
	if p.validator == nil && cfg.Validation.Enabled {
		p.validator = validate.NewValidatorFromConfig(cfg, shared, p.logger)
	}

	// 4. LLM summarizer; a broken provider config disables explanations
	if p.summarizer == nil && cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg))
		if err != nil {
			p.logger.Warn().Err(err).Str("provider", cfg.LLM.Provider).Msg("LLM provider disabled")
		} else {
			p.summarizer = s
		}
	}

	return p, nil
}

// Glossary returns the glossary shared by every analysis
func (p *Pipeline) Glossary() *glossary.Glossary {
	return p.glossary
}

// Fetcher returns the pipeline's page fetcher
func (p *Pipeline) Fetcher() *Fetcher {
	return p.fetcher
}

// AnalyzeText builds an article from raw fields and analyzes it
func (p *Pipeline) AnalyzeText(ctx context.Context, title, body, sourceURL string) (*model.Report, error) {
	article, err := model.NewArticle(title, body, sourceURL, "")
	if err != nil {
		return nil, err
	}
	return p.Analyze(ctx, article)
}

// AnalyzeURL fetches a page and analyzes its visible text
func (p *Pipeline) AnalyzeURL(ctx context.Context, rawURL string) (*model.Report, error) {
	article, err := p.fetcher.FetchArticle(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return p.Analyze(ctx, article)
}

// Analyze runs Raw -> Cleaned -> Featurized -> Compared -> Scored -> Linked
// for one article. Validation failures abort before any stage runs.
func (p *Pipeline) Analyze(ctx context.Context, article model.Article) (*model.Report, error) {
	if err := article.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. Clean
	cleaned := text.Normalize(article.Text)

	// 2. Featurize
	claims, err := p.detector.Detect(cleaned)
	if err != nil {
		return nil, fmt.Errorf("detect claims: %w", err)
	}
	citations := p.citations.Extract(cleaned)

	// 3. Compare
	mismatches, err := p.glossary.Compare(cleaned)
	if err != nil {
		return nil, fmt.Errorf("compare glossary: %w", err)
	}

	// 4. Score
	scoringText := ""
	if p.config.Analysis.ScoreArticleText {
		scoringText = cleaned
	}
	riskScore := p.scorer.Calculate(scoringText, claims, citations, mismatches)

	// 5. Link
	evidenceMap := p.linker.Link(claims, citations)

	report := &model.Report{
		Subject:     article.Subject(),
		SourceURL:   article.SourceURL,
		Domain:      article.Domain,
		Published:   article.Published,
		AnalyzedAt:  p.now(),
		RawLength:   len([]rune(article.Text)),
		CleanText:   cleaned,
		CleanLength: len([]rune(cleaned)),
		Claims:      claims,
		Citations:   citations,
		Mismatches:  mismatches,
		Score:       riskScore,
		Level:       score.Level(riskScore.Total),
		EvidenceMap: evidenceMap,
	}

	// 6. Validate citations if enabled (never affects score)
	if p.validator != nil {
		report.Validation = p.validator.Validate(ctx, citations)
	}

	// 7. Explain the score
	report.Signals = p.scorer.Signals(riskScore, claims, mismatches, report.Validation)

	// 8. Generate LLM summary if enabled (AFTER scoring, never affects score)
	if p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			p.logger.Warn().Err(err).Str("subject", report.Subject).Msg("LLM summary generation failed")
		} else if summary != nil {
			report.LLM = summary
		}
	}

	p.logger.Debug().
		Str("subject", report.Subject).
		Int("claims", len(claims)).
		Int("citations", len(citations)).
		Int("total", riskScore.Total).
		Msg("article analyzed")

	return report, nil
}
