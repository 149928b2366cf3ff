package accesskit

import (
	"time"

	"github.com/fernandezvara/dbkit"
	"go.uber.org/zap"
)

// DecisionAuditMode controls whether permission checks themselves produce
// access_granted/access_denied audit records. Mutation auditing (role
// assignment and revocation) is never optional.
type DecisionAuditMode int

const (
	// AuditDecisionsDenied records only denials. This is the default: it
	// keeps the forensically interesting events without letting the allow
	// path dominate log volume.
	AuditDecisionsDenied DecisionAuditMode = iota

	// AuditDecisionsOff records no access decisions.
	AuditDecisionsOff

	// AuditDecisionsAll records every decision.
	AuditDecisionsAll
)

// Service provides permission decisions, role assignment management and the
// audit trail behind them. It integrates with the database through dbkit.
//
// All database operations use dbkit's chainable error wrapping; store
// failures on the decision path surface as ErrDecisionUnavailable so that
// callers can fail closed instead of mistaking an outage for a denial.
type Service struct {
	db        dbkit.IDB
	registry  *Registry
	evaluator *ConditionEvaluator
	cache     DecisionCache
	logger    *zap.Logger
	auditMode DecisionAuditMode
	now       func() time.Time
	locks     *userLockTable
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCache sets the decision cache. Without a cache every check goes to
// the store.
func WithCache(cache DecisionCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithConditionEvaluator replaces the condition evaluator.
func WithConditionEvaluator(evaluator *ConditionEvaluator) Option {
	return func(s *Service) {
		s.evaluator = evaluator
	}
}

// WithDecisionAudit sets the access-decision audit policy.
func WithDecisionAudit(mode DecisionAuditMode) Option {
	return func(s *Service) {
		s.auditMode = mode
	}
}

// WithClock overrides the time source. Used by tests for deterministic
// expiry behavior.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new AccessKit service.
//
// Example:
//
//	registry := accesskit.DefaultRegistry()
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := accesskit.NewService(registry, db,
//	    accesskit.WithCache(accesskit.NewMemoryCache(time.Minute)),
//	    accesskit.WithLogger(logger),
//	)
func NewService(registry *Registry, db dbkit.IDB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		registry:  registry,
		evaluator: DefaultConditionEvaluator(),
		logger:    zap.NewNop(),
		now:       time.Now,
		locks:     newUserLockTable(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Registry returns the role registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// withDB returns a copy of the service bound to another database handle,
// typically a transaction.
func (s *Service) withDB(db dbkit.IDB) *Service {
	clone := *s
	clone.db = db
	return &clone
}
