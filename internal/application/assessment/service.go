// Package assessment orchestrates the valuation engine: it validates a
// request, runs reliability, lifespan, survival, pricing and verdict scoring
// in order, and records logs and metrics around the pipeline.
package assessment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/carverdict/internal/domain/lifespan"
	"github.com/turtacn/carverdict/internal/domain/pricing"
	"github.com/turtacn/carverdict/internal/domain/reference"
	"github.com/turtacn/carverdict/internal/domain/reliability"
	"github.com/turtacn/carverdict/internal/domain/survival"
	"github.com/turtacn/carverdict/internal/domain/verdict"
	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/carverdict/pkg/errors"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

const metricsComponent = "assessment"

// Service is the application entry point used by the CLI and HTTP surfaces.
type Service interface {
	// Assess runs the full pipeline and returns a verdict.
	Assess(ctx context.Context, req *Request) (*Assessment, error)
	// EstimatePrice returns the fair price range and an optional price score.
	EstimatePrice(ctx context.Context, req *PriceRequest) (*PriceResult, error)
	// AnalyzeSurvival returns the lifespan and survival milestones.
	AnalyzeSurvival(ctx context.Context, req *SurvivalRequest) (*SurvivalResult, error)
	// Thresholds solves the asking prices that would change the verdict.
	Thresholds(ctx context.Context, req *ThresholdRequest) (*verdict.PriceThresholds, error)
}

// Config holds the tunable engine parameters.  Zero-valued sections take
// their defaults.
type Config struct {
	Weights    verdict.Weights
	Thresholds verdict.Thresholds
	Risk       survival.RiskThresholds
}

// DefaultConfig returns the stock weights and cut points.
func DefaultConfig() Config {
	return Config{
		Weights:    verdict.DefaultWeights(),
		Thresholds: verdict.DefaultThresholds(),
		Risk:       survival.DefaultRiskThresholds(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Weights == (verdict.Weights{}) {
		c.Weights = def.Weights
	}
	if c.Thresholds == (verdict.Thresholds{}) {
		c.Thresholds = def.Thresholds
	}
	if c.Risk == (survival.RiskThresholds{}) {
		c.Risk = def.Risk
	}
	return c
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	return c.Risk.Validate()
}

// Option configures the service's collaborators.
type Option func(*service)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics enables metrics recording.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *service) { s.metrics = m }
}

// WithLifespanCache sets the year-lifespan memoization backend.
func WithLifespanCache(c lifespan.Cache) Option {
	return func(s *service) { s.cache = c }
}

// WithClock overrides the time source for every component.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides assessment ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

type service struct {
	reliability *reliability.Scorer
	resolver    *lifespan.Resolver
	survival    *survival.Model
	estimator   *pricing.Estimator
	scorer      *verdict.Scorer

	cache   lifespan.Cache
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	now     func() time.Time
	newID   func() string
}

// NewService wires the engine components over catalog (the embedded catalog
// when nil).  An invalid cfg is rejected with a VAL_002 or COMMON_017 error.
func NewService(catalog *reference.Catalog, cfg Config, opts ...Option) (Service, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		catalog = reference.Default()
	}

	s := &service{
		logger: logging.NewNopLogger(),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	s.reliability = reliability.NewScorer(catalog, reliability.WithClock(s.now))
	s.resolver = lifespan.NewResolver(catalog,
		lifespan.WithCache(s.cache),
		lifespan.WithCacheObserver(func(hit bool) { prometheus.RecordCacheAccess(s.metrics, hit) }),
	)
	s.survival = survival.NewModel(survival.WithRiskThresholds(cfg.Risk))
	s.estimator = pricing.NewEstimator(catalog, pricing.WithClock(s.now))
	s.scorer = verdict.NewScorer(verdict.WithWeights(cfg.Weights), verdict.WithThresholds(cfg.Thresholds))

	s.logger.Info("assessment service ready",
		logging.String("catalog_version", catalog.Version()),
		logging.Int("catalog_vehicles", catalog.VehicleCount()),
	)
	return s, nil
}

// Assess runs identity validation, reliability, year resolution, factor
// adjustment, survival, fair price, price score, overall verdict and
// threshold solving.
func (s *service) Assess(ctx context.Context, req *Request) (*Assessment, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx)

	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	now := s.now()
	if err := req.Validate(now); err != nil {
		return nil, s.rejected(log, "assess", err)
	}

	id := trimmed(req.Vehicle)
	out := &Assessment{
		ID:          s.newID(),
		Vehicle:     id,
		Mileage:     req.Mileage,
		AskingPrice: req.AskingPrice,
		AssessedAt:  now.UTC(),
		RedFlags:    req.RedFlags,
	}
	log = log.With(logging.String(logging.FieldAssessmentID, out.ID), logging.String(logging.FieldVehicle, id.String()))

	out.Reliability = s.reliability.Score(reliability.Input{
		Vehicle:    id,
		Complaints: req.Complaints,
		Rating:     req.SafetyRating,
	})
	log.Debug("reliability scored",
		logging.Float64("score", out.Reliability.Score),
		logging.String("source", string(out.Reliability.Source.Kind())),
	)

	out.YearLifespan, out.Lifespan, out.Survival = s.lifespanAndSurvival(id, req.Mileage, req.Factors, out.Reliability, now)
	log.Debug("lifespan resolved",
		logging.Int("year_lifespan", out.YearLifespan.AdjustedLifespan),
		logging.Int("adjusted_lifespan", out.Lifespan.AdjustedLifespan),
		logging.Int("expected_additional_miles", out.Survival.ExpectedAdditionalMiles),
	)

	out.FairPrice = s.estimator.EstimateFairPrice(id.Make, id.Model, id.Year, req.Mileage, req.Seller)
	scores := verdict.Scores{
		Longevity: floatPtr(lifespan.LongevityScore(float64(req.Mileage), float64(out.Lifespan.AdjustedLifespan))),
		Safety:    reliability.SafetyScore(req.SafetyRating),
	}
	// The default source is the neutral placeholder, not a measurement.
	if out.Reliability.Source.Kind() != reliability.KindDefault {
		scores.Reliability = floatPtr(out.Reliability.Score)
	}
	var asking float64
	if req.AskingPrice != nil {
		asking = *req.AskingPrice
		ps := pricing.CalculatePriceScore(asking, float64(out.FairPrice.Low), float64(out.FairPrice.High))
		out.PriceScore = &ps
		scores.PriceValue = floatPtr(ps.Score)
	}
	log.Debug("price estimated",
		logging.Int("fair_low", out.FairPrice.Low),
		logging.Int("fair_high", out.FairPrice.High),
		logging.Bool("asking_price_known", req.AskingPrice != nil),
	)

	out.Result = s.scorer.Score(scores, req.RedFlags)
	out.Thresholds = s.scorer.SolveThresholds(scores, req.RedFlags, float64(out.FairPrice.Low), float64(out.FairPrice.High), asking)

	elapsed := time.Since(start)
	dealQuality := ""
	if out.PriceScore != nil {
		dealQuality = string(out.PriceScore.DealQuality)
	}
	prometheus.RecordAssessment(s.metrics, string(out.Verdict()), string(out.Reliability.Source.Kind()), dealQuality, elapsed)

	log.Info("assessment completed",
		logging.String("verdict", string(out.Verdict())),
		logging.Float64("overall_score", deref(out.Result.Scores.Overall)),
		logging.Float64("confidence", out.Result.Recommendation.Confidence),
		logging.Int64(logging.FieldDurationMS, elapsed.Milliseconds()),
	)
	return out, nil
}

// EstimatePrice runs the price estimator and, with an asking price, the
// price scorer.
func (s *service) EstimatePrice(ctx context.Context, req *PriceRequest) (*PriceResult, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx)

	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(s.now()); err != nil {
		return nil, s.rejected(log, "price", err)
	}

	id := trimmed(req.Vehicle)
	out := &PriceResult{Vehicle: id, Mileage: req.Mileage}
	out.FairPrice = s.estimator.EstimateFairPrice(id.Make, id.Model, id.Year, req.Mileage, req.Seller)
	if req.AskingPrice != nil {
		ps := pricing.CalculatePriceScore(*req.AskingPrice, float64(out.FairPrice.Low), float64(out.FairPrice.High))
		out.PriceScore = &ps
		prometheus.RecordDealQuality(s.metrics, string(ps.DealQuality))
	}
	prometheus.RecordOperation(s.metrics, "price", time.Since(start))

	log.Debug("fair price estimated",
		logging.String(logging.FieldVehicle, id.String()),
		logging.Int("fair_midpoint", out.FairPrice.Midpoint),
		logging.Bool("msrp_matched", out.FairPrice.MSRPMatched),
	)
	return out, nil
}

// AnalyzeSurvival resolves and adjusts the lifespan and runs the survival
// model.  The reliability score feeds the shape parameter as in Assess.
func (s *service) AnalyzeSurvival(ctx context.Context, req *SurvivalRequest) (*SurvivalResult, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx)

	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	now := s.now()
	if err := req.Validate(now); err != nil {
		return nil, s.rejected(log, "survival", err)
	}

	id := trimmed(req.Vehicle)
	rel := s.reliability.Score(reliability.Input{Vehicle: id})
	out := &SurvivalResult{Vehicle: id, Mileage: req.Mileage}
	out.YearLifespan, out.Lifespan, out.Survival = s.lifespanAndSurvival(id, req.Mileage, req.Factors, rel, now)
	prometheus.RecordOperation(s.metrics, "survival", time.Since(start))

	log.Debug("survival analyzed",
		logging.String(logging.FieldVehicle, id.String()),
		logging.Int("expected_additional_miles", out.Survival.ExpectedAdditionalMiles),
		logging.String("model_confidence", string(out.Survival.ModelConfidence)),
	)
	return out, nil
}

// Thresholds solves the BUY and MAYBE asking prices for caller-supplied
// sub-scores.
func (s *service) Thresholds(ctx context.Context, req *ThresholdRequest) (*verdict.PriceThresholds, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx)

	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, s.rejected(log, "thresholds", err)
	}

	out := s.scorer.SolveThresholds(req.Scores, req.RedFlags, req.FairLow, req.FairHigh, req.AskingPrice)
	prometheus.RecordOperation(s.metrics, "thresholds", time.Since(start))

	log.Debug("price thresholds solved",
		logging.String("current_verdict", string(out.CurrentVerdict)),
		logging.Bool("buy_reachable", out.BuyThreshold != nil),
		logging.Bool("maybe_reachable", out.MaybeThreshold != nil),
	)
	return &out, nil
}

// lifespanAndSurvival runs the year resolver, the factor adjuster and the
// survival model.  The survival shape reads the base reliability score, not
// the year, complaint and safety adjusted one, and the model confidence
// follows the year resolution.
func (s *service) lifespanAndSurvival(id vehicle.Identity, mileage int, factors lifespan.Factors, rel reliability.Result, now time.Time) (lifespan.YearLifespan, lifespan.AdjustedLifespan, survival.Analysis) {
	yl := s.resolver.Resolve(id)
	adj := lifespan.AdjustLifespan(yl.AdjustedLifespan, factors)

	age := now.Year() - id.Year
	if age < 0 {
		age = 0
	}
	analysis := s.survival.Analyze(survival.Input{
		CurrentMileage:     float64(mileage),
		AdjustedLifespan:   float64(adj.AdjustedLifespan),
		LifespanConfidence: yl.Confidence,
		KnownIssues:        yl.KnownIssues,
		ReliabilityScore:   floatPtr(rel.Factors.BaseScore),
		Factors:            factors,
		VehicleAgeYears:    age,
	})
	return yl, adj, analysis
}

func (s *service) begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		prometheus.RecordError(s.metrics, metricsComponent, string(errors.ErrCodeTimeout))
		return errors.Wrap(err, errors.ErrCodeTimeout, "request cancelled")
	}
	return nil
}

func (s *service) rejected(log logging.Logger, operation string, err error) error {
	prometheus.RecordError(s.metrics, metricsComponent, string(errors.GetCode(err)))
	log.WithError(err).Warn("request rejected", logging.String("operation", operation))
	return err
}

func floatPtr(v float64) *float64 { return &v }

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
