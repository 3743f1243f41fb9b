// Package session holds one operator's selection and pipeline state: the
// selected customer, the results fetched for it and the status of each
// pipeline stage. Every selection bumps a request token; responses that
// arrive after the token moved on are dropped.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/leapstack-labs/salesdesk/internal/api"
	"github.com/leapstack-labs/salesdesk/internal/cache"
)

// Defaults for pipeline requests.
const (
	DefaultEmailStyle    = "consultative"
	DefaultLogoPlacement = "front cover"
	DefaultColorScheme   = "blue"
)

var (
	// ErrNoCustomer is returned by actions that need a selected customer.
	ErrNoCustomer = errors.New("no customer selected")
	// ErrNoRecommendations is returned by email and mockup actions before
	// recommendations are available.
	ErrNoRecommendations = errors.New("no recommendations available")
	// ErrStageBusy is returned when the stage is already processing.
	ErrStageBusy = errors.New("stage already processing")
	// ErrStale is returned when a response arrived for a superseded
	// selection. It is never shown to the operator.
	ErrStale = errors.New("stale response discarded")
)

// Backend is the subset of the API client the session drives.
type Backend interface {
	GetCustomer(ctx context.Context, id int) (*api.Customer, error)
	AnalyzeCustomer(ctx context.Context, customerID int) (*api.Analysis, error)
	RecommendProducts(ctx context.Context, req api.RecommendRequest) (*api.Recommendations, error)
	GenerateEmail(ctx context.Context, req api.EmailRequest) (*api.Email, error)
	CreateMockup(ctx context.Context, req api.MockupRequest) (*api.Mockup, error)
}

// Options configures a Session.
type Options struct {
	EmailStyle    string
	LogoPlacement string
	ColorScheme   string
	// RestoreFromCache fills completed stages from the cache after a
	// customer is selected.
	RestoreFromCache bool
	// OnChange is called after every state change, outside the session lock.
	OnChange func()
	Logger   *slog.Logger
}

// Session is the selection state of one operator.
type Session struct {
	mu      sync.Mutex
	backend Backend
	cache   *cache.Store
	opts    Options
	logger  *slog.Logger
	now     func() time.Time

	token      uint64
	customerID int
	customer   *api.Customer
	analysis   *api.Analysis
	recs       *api.Recommendations
	email      *api.Email
	mockup     *api.Mockup
	stages     [numStages]Status
}

// New creates a Session with nothing selected. c may be nil.
func New(backend Backend, c *cache.Store, opts Options) *Session {
	if opts.EmailStyle == "" {
		opts.EmailStyle = DefaultEmailStyle
	}
	if opts.LogoPlacement == "" {
		opts.LogoPlacement = DefaultLogoPlacement
	}
	if opts.ColorScheme == "" {
		opts.ColorScheme = DefaultColorScheme
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		backend: backend,
		cache:   c,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Select makes id the active customer. All results of the previous
// selection are dropped before the customer record is requested. A
// non-positive id is the same as Deselect.
func (s *Session) Select(ctx context.Context, id int) error {
	if id <= 0 {
		s.Deselect()
		return nil
	}

	s.mu.Lock()
	s.token++
	tok := s.token
	s.resetLocked()
	s.customerID = id
	s.setLocked(Profile, Processing)
	s.mu.Unlock()
	s.changed()

	s.logger.Debug("customer selected", "customer_id", id, "token", tok)
	customer, err := s.backend.GetCustomer(ctx, id)

	var entry cache.Entry
	var cached bool
	if err == nil && s.opts.RestoreFromCache && s.cache != nil {
		entry, cached = s.cache.Get(ctx, id)
	}

	s.mu.Lock()
	if s.token != tok {
		s.mu.Unlock()
		s.logger.Debug("discarding stale customer record", "customer_id", id, "token", tok)
		return ErrStale
	}
	if err != nil {
		s.setLocked(Profile, Failed)
		s.mu.Unlock()
		s.changed()
		return fmt.Errorf("failed to load customer %d: %w", id, err)
	}

	s.customer = customer
	s.setLocked(Profile, Complete)
	if cached {
		s.restoreLocked(entry)
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

// Deselect clears the selection and every dependent result.
func (s *Session) Deselect() {
	s.mu.Lock()
	s.token++
	s.resetLocked()
	s.mu.Unlock()
	s.changed()
}

// Token returns the current request token.
func (s *Session) Token() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// RunAnalysis requests the customer analysis.
func (s *Session) RunAnalysis(ctx context.Context) error {
	tok, id, err := s.begin(Analysis, false)
	if err != nil {
		return err
	}

	analysis, err := s.backend.AnalyzeCustomer(ctx, id)
	if err == nil {
		s.remember(ctx, id, cache.Entry{Analysis: analysis})
	}
	return s.finish(tok, Analysis, err, func() { s.analysis = analysis })
}

// RunRecommendations requests product recommendations.
func (s *Session) RunRecommendations(ctx context.Context) error {
	tok, id, err := s.begin(Recommendations, false)
	if err != nil {
		return err
	}

	recs, err := s.backend.RecommendProducts(ctx, api.RecommendRequest{CustomerID: id})
	if err == nil {
		s.remember(ctx, id, cache.Entry{Recommendations: recs})
	}
	return s.finish(tok, Recommendations, err, func() { s.recs = recs })
}

// RunEmail generates the outreach email for the top recommendation plus
// any extra products, in the configured style.
func (s *Session) RunEmail(ctx context.Context, extraProductIDs ...int) error {
	tok, id, err := s.begin(Email, true)
	if err != nil {
		return err
	}

	s.mu.Lock()
	top, _ := s.recs.First()
	s.mu.Unlock()

	productIDs := []int{top.ProductID}
	for _, pid := range extraProductIDs {
		if !slices.Contains(productIDs, pid) {
			productIDs = append(productIDs, pid)
		}
	}

	email, err := s.backend.GenerateEmail(ctx, api.EmailRequest{
		CustomerID: id,
		ProductIDs: productIDs,
		EmailStyle: s.opts.EmailStyle,
	})
	if err == nil {
		s.remember(ctx, id, cache.Entry{Email: email})
	}
	return s.finish(tok, Email, err, func() { s.email = email })
}

// RunMockups requests branded mockups of the top recommendation.
func (s *Session) RunMockups(ctx context.Context) error {
	tok, id, err := s.begin(Mockups, true)
	if err != nil {
		return err
	}

	s.mu.Lock()
	top, _ := s.recs.First()
	customer := s.customer
	s.mu.Unlock()

	if customer == nil {
		customer, err = s.backend.GetCustomer(ctx, id)
		if err != nil {
			return s.finish(tok, Mockups, err, nil)
		}
	}

	mockup, err := s.backend.CreateMockup(ctx, api.MockupRequest{
		CustomerID:    id,
		ProductID:     top.ProductID,
		LogoPlacement: s.opts.LogoPlacement,
		ColorScheme:   s.opts.ColorScheme,
		CompanyName:   customer.Company.Name,
	})
	return s.finish(tok, Mockups, err, func() { s.mockup = mockup })
}

// RunAll runs analysis, recommendations and email in order, stopping at the
// first failure.
func (s *Session) RunAll(ctx context.Context) error {
	if err := s.RunAnalysis(ctx); err != nil {
		return err
	}
	if err := s.RunRecommendations(ctx); err != nil {
		return err
	}
	return s.RunEmail(ctx)
}

// Run runs a single stage. Extra product ids are only used by Email.
func (s *Session) Run(ctx context.Context, stage Stage, extraProductIDs ...int) error {
	switch stage {
	case Analysis:
		return s.RunAnalysis(ctx)
	case Recommendations:
		return s.RunRecommendations(ctx)
	case Email:
		return s.RunEmail(ctx, extraProductIDs...)
	case Mockups:
		return s.RunMockups(ctx)
	default:
		return fmt.Errorf("stage %s cannot be run", stage)
	}
}

// EmailText returns the generated email as "Subject: ...\n\n<body>".
func (s *Session) EmailText() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.email.Empty() {
		return "", false
	}
	return s.email.Text(), true
}

// EmailFilename is the download name for the current email.
func (s *Session) EmailFilename() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("email_%d_%d.txt", s.customerID, s.now().UnixMilli())
}

// begin applies the action guards and marks the stage processing.
func (s *Session) begin(stage Stage, needRecs bool) (uint64, int, error) {
	tok, id, err := s.beginLocked(stage, needRecs)
	if err == nil {
		s.changed()
	}
	return tok, id, err
}

func (s *Session) beginLocked(stage Stage, needRecs bool) (uint64, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.customerID == 0 {
		return 0, 0, ErrNoCustomer
	}
	if s.stages[stage] == Processing {
		return 0, 0, ErrStageBusy
	}
	if needRecs && (s.stages[Recommendations] != Complete || s.recs.Empty()) {
		return 0, 0, ErrNoRecommendations
	}

	s.setLocked(stage, Pending)
	s.setLocked(stage, Processing)
	return s.token, s.customerID, nil
}

// finish applies a response if its token is still current.
func (s *Session) finish(tok uint64, stage Stage, err error, apply func()) error {
	err = s.finishLocked(tok, stage, err, apply)
	if !errors.Is(err, ErrStale) {
		s.changed()
	}
	return err
}

func (s *Session) finishLocked(tok uint64, stage Stage, err error, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != tok {
		s.logger.Debug("discarding stale response", "stage", stage, "token", tok, "current", s.token)
		return ErrStale
	}
	if err != nil {
		s.setLocked(stage, Failed)
		s.logger.Warn("pipeline stage failed", "stage", stage, "customer_id", s.customerID, "error", err)
		return fmt.Errorf("%s: %w", stage, err)
	}
	if apply != nil {
		apply()
	}
	s.setLocked(stage, Complete)
	return nil
}

// remember merges a fresh result into the cache. Results are keyed by their
// own customer, so this runs even when the selection has moved on.
func (s *Session) remember(ctx context.Context, id int, partial cache.Entry) {
	if s.cache == nil {
		return
	}
	s.cache.Merge(ctx, id, partial)
}

func (s *Session) changed() {
	if s.opts.OnChange != nil {
		s.opts.OnChange()
	}
}

func (s *Session) setLocked(stage Stage, next Status) bool {
	cur := s.stages[stage]
	if !cur.CanTransition(next) {
		s.logger.Warn("refusing illegal stage transition", "stage", stage, "from", cur, "to", next)
		return false
	}
	s.stages[stage] = next
	return true
}

func (s *Session) resetLocked() {
	s.customerID = 0
	s.customer = nil
	s.analysis = nil
	s.recs = nil
	s.email = nil
	s.mockup = nil
	for i := range s.stages {
		s.stages[i] = Pending
	}
}

func (s *Session) restoreLocked(e cache.Entry) {
	restore := func(stage Stage) {
		s.setLocked(stage, Processing)
		s.setLocked(stage, Complete)
	}
	if e.Analysis != nil {
		s.analysis = e.Analysis
		restore(Analysis)
	}
	if !e.Recommendations.Empty() {
		s.recs = e.Recommendations
		restore(Recommendations)
	}
	if !e.Email.Empty() {
		s.email = e.Email
		restore(Email)
	}
}

// Notice returns the operator-facing message for an action error, or false
// when nothing should be shown.
func Notice(stage Stage, err error) (string, bool) {
	switch {
	case err == nil, errors.Is(err, ErrStale):
		return "", false
	case errors.Is(err, ErrNoCustomer):
		return "Please select a customer first", true
	case errors.Is(err, ErrNoRecommendations):
		return "Please get recommendations first", true
	case errors.Is(err, ErrStageBusy):
		return stage.Label() + " is already running", true
	default:
		return stage.FailureMessage(), true
	}
}
