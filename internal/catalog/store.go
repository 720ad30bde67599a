// Package catalog holds the authoritative Region → Country → Service pricing
// tree. Every structural change goes through Store, which checks the caller's
// edit permission, enforces the catalog invariants, and rebuilds the affected
// path of the tree by copy so snapshots handed out earlier are never mutated.
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/bcnelson/pricing-catalog/internal/storage"
	"github.com/bcnelson/pricing-catalog/internal/validation"
	"github.com/sirupsen/logrus"
)

// Guard decides whether the caller carried in ctx may mutate the catalog.
// It is consulted on every mutating call and never cached.
type Guard interface {
	CanEdit(ctx context.Context) bool
}

// GuardFunc adapts an ordinary function to the Guard interface.
type GuardFunc func(ctx context.Context) bool

func (f GuardFunc) CanEdit(ctx context.Context) bool { return f(ctx) }

// Recorder receives operation outcomes for metrics.
type Recorder interface {
	ObserveOperation(op, result string)
	ObservePersist(op string, d time.Duration, err error)
	SetTreeSize(stats domain.CatalogStats)
}

type noopRecorder struct{}

func (noopRecorder) ObserveOperation(string, string)            {}
func (noopRecorder) ObservePersist(string, time.Duration, error) {}
func (noopRecorder) SetTreeSize(domain.CatalogStats)             {}

// State is the lifecycle state of a Store.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Operation names used in logs and metrics.
const (
	OpLoad          = "load"
	OpReload        = "reload"
	OpReplace       = "replace"
	OpAddRegion     = "add_region"
	OpUpdateRegion  = "update_region"
	OpDeleteRegion  = "delete_region"
	OpAddCountry    = "add_country"
	OpUpdateCountry = "update_country"
	OpDeleteCountry = "delete_country"
	OpAddService    = "add_service"
	OpUpdateService = "update_service"
	OpDeleteService = "delete_service"
	OpSave          = "save"
	OpReset         = "reset"
)

// Options configures a Store.
type Options struct {
	Guard   Guard
	Gateway storage.CatalogGateway

	Logger   logrus.FieldLogger
	Recorder Recorder

	// PersistTimeout bounds each gateway call. Zero means no extra deadline.
	PersistTimeout time.Duration

	// Defaults builds the seed catalog. Nil uses DefaultCatalog.
	Defaults func() []domain.Region

	// OnChange is called after every successful tree mutation, with the store
	// lock held. It must not call back into the Store synchronously.
	OnChange func()
}

// Store owns the pricing catalog tree. Operations are serialized: each one
// runs to completion, including any gateway call, before the next starts.
type Store struct {
	guard          Guard
	gateway        storage.CatalogGateway
	logger         logrus.FieldLogger
	recorder       Recorder
	persistTimeout time.Duration
	defaults       func() []domain.Region
	onChange       func()

	state atomic.Int32

	mu      sync.Mutex
	tree    []domain.Region
	lastErr error
}

// New creates an uninitialized Store. Call Load before using it.
func New(opts Options) (*Store, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("catalog gateway is required")
	}
	if opts.Guard == nil {
		return nil, fmt.Errorf("catalog guard is required")
	}
	s := &Store{
		guard:          opts.Guard,
		gateway:        opts.Gateway,
		logger:         opts.Logger,
		recorder:       opts.Recorder,
		persistTimeout: opts.PersistTimeout,
		defaults:       opts.Defaults,
		onChange:       opts.OnChange,
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	s.logger = s.logger.WithField("component", "catalog")
	if s.recorder == nil {
		s.recorder = noopRecorder{}
	}
	if s.defaults == nil {
		s.defaults = DefaultCatalog
	}
	return s, nil
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	return State(s.state.Load())
}

// LastError returns the most recent operation error, or nil if the last
// operation succeeded or the slot was cleared.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError empties the error slot once the caller has shown it.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// ============================================
// Lifecycle
// ============================================

// Load performs the initial read of the catalog through the gateway. A
// missing, unreadable or invalid document is replaced by the default catalog,
// which is persisted right away. On a store that is already Ready, Load
// behaves like Reload.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateReady {
		return s.reload(ctx)
	}

	s.state.Store(int32(StateLoading))
	defer s.state.Store(int32(StateReady))

	return s.load(ctx, OpLoad)
}

// Reload discards unsaved changes by reading the stored document again. It
// is a mutation and requires edit rights.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reload(ctx)
}

func (s *Store) reload(ctx context.Context) error {
	if err := s.checkWritable(ctx); err != nil {
		return s.fail(OpReload, nil, err)
	}
	return s.load(ctx, OpReload)
}

// load replaces the tree from the gateway or the defaults. Called with mu held.
func (s *Store) load(ctx context.Context, op string) error {
	loaded, err := s.loadDocument(ctx)
	if err == nil {
		s.tree = loaded
		s.lastErr = nil
		s.recorder.ObserveOperation(op, resultSuccess)
		s.recorder.SetTreeSize(statsOf(s.tree))
		s.logger.WithFields(logrus.Fields(statsFields(s.tree))).WithField("op", op).Info("catalog loaded")
		return nil
	}

	entry := s.logger.WithError(err).WithField("op", op)
	if errors.Is(err, domain.ErrNotFound) {
		entry.Info("no stored catalog, seeding defaults")
	} else {
		entry.Warn("stored catalog unusable, seeding defaults")
	}

	s.tree = s.defaults()
	s.lastErr = nil
	s.recorder.SetTreeSize(statsOf(s.tree))
	if err := s.persist(ctx, op); err != nil {
		return s.fail(op, nil, err)
	}
	s.recorder.ObserveOperation(op, resultSuccess)
	return nil
}

func (s *Store) loadDocument(ctx context.Context) ([]domain.Region, error) {
	if s.persistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.persistTimeout)
		defer cancel()
	}
	regions, err := s.gateway.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if regions == nil {
		regions = []domain.Region{}
	}
	for i := range regions {
		normalizeRegion(&regions[i])
	}
	if errs := validation.ValidateCatalog(regions); errs.HasErrors() {
		return nil, fmt.Errorf("stored catalog failed validation: %w", errs)
	}
	return regions, nil
}

// persist pushes the current tree through the gateway. Called with mu held.
func (s *Store) persist(ctx context.Context, op string) error {
	if s.persistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.persistTimeout)
		defer cancel()
	}
	start := time.Now()
	err := s.gateway.SaveCatalog(ctx, s.tree)
	s.recorder.ObservePersist(op, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// SaveChanges writes the whole tree through the gateway. The tree is left
// untouched whether or not the write succeeds.
func (s *Store) SaveChanges(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(ctx); err != nil {
		return s.fail(OpSave, nil, err)
	}
	if err := s.persist(ctx, OpSave); err != nil {
		return s.fail(OpSave, nil, err)
	}
	s.lastErr = nil
	s.recorder.ObserveOperation(OpSave, resultSuccess)
	s.logger.WithFields(logrus.Fields(statsFields(s.tree))).Info("catalog saved")
	return nil
}

// ResetToDefault replaces the tree with the built-in catalog and persists it.
// A failed write leaves the default tree in place and reports ErrPersistence.
func (s *Store) ResetToDefault(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(ctx); err != nil {
		return s.fail(OpReset, nil, err)
	}
	s.tree = s.defaults()
	s.recorder.SetTreeSize(statsOf(s.tree))
	if s.onChange != nil {
		s.onChange()
	}
	if err := s.persist(ctx, OpReset); err != nil {
		return s.fail(OpReset, nil, err)
	}
	s.lastErr = nil
	s.recorder.ObserveOperation(OpReset, resultSuccess)
	s.logger.WithFields(logrus.Fields(statsFields(s.tree))).Info("catalog reset to defaults")
	return nil
}

// ============================================
// Reads
// ============================================

// Regions returns a deep copy of the whole tree.
func (s *Store) Regions() ([]domain.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != StateReady {
		return nil, domain.ErrNotReady
	}
	return CloneRegions(s.tree), nil
}

// Region returns a copy of one region.
func (s *Store) Region(id string) (domain.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != StateReady {
		return domain.Region{}, domain.ErrNotReady
	}
	ri := findRegion(s.tree, id)
	if ri < 0 {
		return domain.Region{}, regionNotFound(id)
	}
	return cloneRegion(s.tree[ri]), nil
}

// Country returns a copy of one country.
func (s *Store) Country(regionID, code string) (domain.Country, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != StateReady {
		return domain.Country{}, domain.ErrNotReady
	}
	_, c, err := locateCountry(s.tree, regionID, validation.NormalizeCountryCode(code))
	if err != nil {
		return domain.Country{}, err
	}
	return cloneCountry(c), nil
}

// Service returns one service.
func (s *Store) Service(regionID, code, serviceID string) (domain.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != StateReady {
		return domain.Service{}, domain.ErrNotReady
	}
	_, c, err := locateCountry(s.tree, regionID, validation.NormalizeCountryCode(code))
	if err != nil {
		return domain.Service{}, err
	}
	si := findService(c.Services, serviceID)
	if si < 0 {
		return domain.Service{}, serviceNotFound(regionID, c.Code, serviceID)
	}
	return c.Services[si], nil
}

// Stats counts the entities in the tree.
func (s *Store) Stats() domain.CatalogStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return statsOf(s.tree)
}

// ETag returns a content hash of the current tree.
func (s *Store) ETag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return etagOf(s.tree)
}

// Status summarizes state, last error, version and size.
func (s *Store) Status() domain.CatalogStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := domain.CatalogStatus{
		State: s.State().String(),
		ETag:  etagOf(s.tree),
		Stats: statsOf(s.tree),
	}
	if s.lastErr != nil {
		status.Error = s.lastErr.Error()
	}
	return status
}

// ============================================
// Mutations
// ============================================

// Replace swaps the whole tree for regions after validating every invariant.
// Country codes are uppercased first. Nothing is persisted.
func (s *Store) Replace(ctx context.Context, regions []domain.Region) error {
	next := CloneRegions(regions)
	if next == nil {
		next = []domain.Region{}
	}
	for i := range next {
		normalizeRegion(&next[i])
	}
	return s.mutate(ctx, OpReplace, logrus.Fields{"regions": len(next)}, func(tree []domain.Region) ([]domain.Region, error) {
		if err := validation.ValidateCatalog(next).Err(); err != nil {
			return nil, err
		}
		return next, nil
	})
}

// AddRegion appends a region. The region may arrive with countries and
// services already attached; all of them are validated.
func (s *Store) AddRegion(ctx context.Context, region domain.Region) error {
	region = cloneRegion(region)
	normalizeRegion(&region)
	return s.mutate(ctx, OpAddRegion, logrus.Fields{"region": region.ID}, func(tree []domain.Region) ([]domain.Region, error) {
		if findRegion(tree, region.ID) >= 0 {
			return nil, fmt.Errorf("%w: region %q already exists", domain.ErrDuplicateKey, region.ID)
		}
		if err := validation.ValidateRegion(region).Err(); err != nil {
			return nil, err
		}
		next := make([]domain.Region, len(tree), len(tree)+1)
		copy(next, tree)
		return append(next, region), nil
	})
}

// UpdateRegion merges the non-nil fields of req into the region. The region
// id cannot be changed; req.ID is ignored.
func (s *Store) UpdateRegion(ctx context.Context, id string, req domain.UpdateRegionRequest) error {
	return s.mutate(ctx, OpUpdateRegion, logrus.Fields{"region": id}, func(tree []domain.Region) ([]domain.Region, error) {
		ri := findRegion(tree, id)
		if ri < 0 {
			return nil, regionNotFound(id)
		}
		updated := tree[ri]
		if req.Name != nil {
			updated.Name = *req.Name
		}
		if err := validation.ValidateRegion(updated).Err(); err != nil {
			return nil, err
		}
		return replaceRegion(tree, ri, updated), nil
	})
}

// DeleteRegion removes a region together with all of its countries and
// their services.
func (s *Store) DeleteRegion(ctx context.Context, id string) error {
	return s.mutate(ctx, OpDeleteRegion, logrus.Fields{"region": id}, func(tree []domain.Region) ([]domain.Region, error) {
		if findRegion(tree, id) < 0 {
			return nil, regionNotFound(id)
		}
		next := make([]domain.Region, 0, len(tree)-1)
		for _, r := range tree {
			if r.ID != id {
				next = append(next, r)
			}
		}
		return next, nil
	})
}

// AddCountry appends a country to a region. The code is uppercased first.
func (s *Store) AddCountry(ctx context.Context, regionID string, country domain.Country) error {
	country = cloneCountry(country)
	country.Code = validation.NormalizeCountryCode(country.Code)
	fields := logrus.Fields{"region": regionID, "country": country.Code}
	return s.mutate(ctx, OpAddCountry, fields, func(tree []domain.Region) ([]domain.Region, error) {
		ri := findRegion(tree, regionID)
		if ri < 0 {
			return nil, regionNotFound(regionID)
		}
		region := tree[ri]
		if findCountry(region.Countries, country.Code) >= 0 {
			return nil, fmt.Errorf("%w: country %q already exists in region %q", domain.ErrDuplicateKey, country.Code, regionID)
		}
		if err := validation.ValidateCountry(country).Err(); err != nil {
			return nil, err
		}
		if country.Services == nil {
			country.Services = []domain.Service{}
		}
		countries := make([]domain.Country, len(region.Countries), len(region.Countries)+1)
		copy(countries, region.Countries)
		region.Countries = append(countries, country)
		return replaceRegion(tree, ri, region), nil
	})
}

// UpdateCountry merges the non-nil fields of req into the country. The code
// cannot be changed; req.Code is ignored.
func (s *Store) UpdateCountry(ctx context.Context, regionID, code string, req domain.UpdateCountryRequest) error {
	code = validation.NormalizeCountryCode(code)
	fields := logrus.Fields{"region": regionID, "country": code}
	return s.mutate(ctx, OpUpdateCountry, fields, func(tree []domain.Region) ([]domain.Region, error) {
		ri, ci, err := locate(tree, regionID, code)
		if err != nil {
			return nil, err
		}
		region := tree[ri]
		updated := region.Countries[ci]
		if req.Name != nil {
			updated.Name = *req.Name
		}
		if err := validation.ValidateCountry(updated).Err(); err != nil {
			return nil, err
		}
		region.Countries = replaceCountry(region.Countries, ci, updated)
		return replaceRegion(tree, ri, region), nil
	})
}

// DeleteCountry removes a country and all of its services.
func (s *Store) DeleteCountry(ctx context.Context, regionID, code string) error {
	code = validation.NormalizeCountryCode(code)
	fields := logrus.Fields{"region": regionID, "country": code}
	return s.mutate(ctx, OpDeleteCountry, fields, func(tree []domain.Region) ([]domain.Region, error) {
		ri, _, err := locate(tree, regionID, code)
		if err != nil {
			return nil, err
		}
		region := tree[ri]
		countries := make([]domain.Country, 0, len(region.Countries)-1)
		for _, c := range region.Countries {
			if c.Code != code {
				countries = append(countries, c)
			}
		}
		region.Countries = countries
		return replaceRegion(tree, ri, region), nil
	})
}

// AddService appends a service to a country.
func (s *Store) AddService(ctx context.Context, regionID, code string, service domain.Service) error {
	code = validation.NormalizeCountryCode(code)
	fields := logrus.Fields{"region": regionID, "country": code, "service": service.ID}
	return s.mutate(ctx, OpAddService, fields, func(tree []domain.Region) ([]domain.Region, error) {
		ri, ci, err := locate(tree, regionID, code)
		if err != nil {
			return nil, err
		}
		region := tree[ri]
		country := region.Countries[ci]
		if findService(country.Services, service.ID) >= 0 {
			return nil, fmt.Errorf("%w: service %q already exists in %s/%s", domain.ErrDuplicateKey, service.ID, regionID, code)
		}
		if err := validation.ValidateService(service).Err(); err != nil {
			return nil, err
		}
		services := make([]domain.Service, len(country.Services), len(country.Services)+1)
		copy(services, country.Services)
		country.Services = append(services, service)
		region.Countries = replaceCountry(region.Countries, ci, country)
		return replaceRegion(tree, ri, region), nil
	})
}

// UpdateService merges the non-nil fields of req into the service. The
// service id cannot be changed; req.ID is ignored.
func (s *Store) UpdateService(ctx context.Context, regionID, code, serviceID string, req domain.UpdateServiceRequest) error {
	code = validation.NormalizeCountryCode(code)
	fields := logrus.Fields{"region": regionID, "country": code, "service": serviceID}
	return s.mutate(ctx, OpUpdateService, fields, func(tree []domain.Region) ([]domain.Region, error) {
		ri, ci, err := locate(tree, regionID, code)
		if err != nil {
			return nil, err
		}
		region := tree[ri]
		country := region.Countries[ci]
		si := findService(country.Services, serviceID)
		if si < 0 {
			return nil, serviceNotFound(regionID, code, serviceID)
		}
		updated := mergeService(country.Services[si], req)
		if err := validation.ValidateService(updated).Err(); err != nil {
			return nil, err
		}
		services := make([]domain.Service, len(country.Services))
		copy(services, country.Services)
		services[si] = updated
		country.Services = services
		region.Countries = replaceCountry(region.Countries, ci, country)
		return replaceRegion(tree, ri, region), nil
	})
}

// DeleteService removes a single service.
func (s *Store) DeleteService(ctx context.Context, regionID, code, serviceID string) error {
	code = validation.NormalizeCountryCode(code)
	fields := logrus.Fields{"region": regionID, "country": code, "service": serviceID}
	return s.mutate(ctx, OpDeleteService, fields, func(tree []domain.Region) ([]domain.Region, error) {
		ri, ci, err := locate(tree, regionID, code)
		if err != nil {
			return nil, err
		}
		region := tree[ri]
		country := region.Countries[ci]
		if findService(country.Services, serviceID) < 0 {
			return nil, serviceNotFound(regionID, code, serviceID)
		}
		services := make([]domain.Service, 0, len(country.Services)-1)
		for _, svc := range country.Services {
			if svc.ID != serviceID {
				services = append(services, svc)
			}
		}
		country.Services = services
		region.Countries = replaceCountry(region.Countries, ci, country)
		return replaceRegion(tree, ri, region), nil
	})
}

// ============================================
// Internals
// ============================================

const (
	resultSuccess = "success"
)

// mutate runs one guarded tree change. apply must not modify tree in place;
// it returns the replacement tree or an error that leaves tree as it was.
func (s *Store) mutate(ctx context.Context, op string, fields logrus.Fields, apply func(tree []domain.Region) ([]domain.Region, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(ctx); err != nil {
		return s.fail(op, fields, err)
	}
	next, err := apply(s.tree)
	if err != nil {
		return s.fail(op, fields, err)
	}

	s.tree = next
	s.lastErr = nil
	s.recorder.ObserveOperation(op, resultSuccess)
	s.recorder.SetTreeSize(statsOf(s.tree))
	s.logger.WithFields(fields).WithField("op", op).Info("catalog updated")
	if s.onChange != nil {
		s.onChange()
	}
	return nil
}

func (s *Store) checkWritable(ctx context.Context) error {
	if s.State() != StateReady {
		return domain.ErrNotReady
	}
	if !s.guard.CanEdit(ctx) {
		return domain.ErrPermissionDenied
	}
	return nil
}

// fail records err in the error slot. Called with mu held.
func (s *Store) fail(op string, fields logrus.Fields, err error) error {
	s.lastErr = err
	result := ResultLabel(err)
	s.recorder.ObserveOperation(op, result)
	s.logger.WithFields(fields).WithFields(logrus.Fields{
		"op":     op,
		"result": result,
	}).WithError(err).Warn("catalog operation rejected")
	return err
}

// ResultLabel classifies an operation error for metrics.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return resultSuccess
	case errors.Is(err, domain.ErrPermissionDenied):
		return "denied"
	case errors.Is(err, domain.ErrDuplicateKey):
		return "duplicate"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence_error"
	case errors.Is(err, domain.ErrNotReady):
		return "not_ready"
	default:
		return "error"
	}
}

// normalizeRegion uppercases country codes and replaces nil collections with
// empty ones so documents never carry nulls.
func normalizeRegion(r *domain.Region) {
	if r.Countries == nil {
		r.Countries = []domain.Country{}
	}
	for i := range r.Countries {
		r.Countries[i].Code = validation.NormalizeCountryCode(r.Countries[i].Code)
		if r.Countries[i].Services == nil {
			r.Countries[i].Services = []domain.Service{}
		}
	}
}

func mergeService(svc domain.Service, req domain.UpdateServiceRequest) domain.Service {
	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Type != nil {
		svc.Type = *req.Type
	}
	if req.Currency != nil {
		svc.Currency = *req.Currency
	}
	if req.Coverage != nil {
		svc.Coverage = *req.Coverage
	}
	if req.TransactionLimit != nil {
		svc.TransactionLimit = *req.TransactionLimit
	}
	if req.TAT != nil {
		svc.TAT = *req.TAT
	}
	if req.FeeStructure != nil {
		svc.FeeStructure = *req.FeeStructure
	}
	return svc
}

func findRegion(tree []domain.Region, id string) int {
	for i, r := range tree {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func findCountry(countries []domain.Country, code string) int {
	for i, c := range countries {
		if c.Code == code {
			return i
		}
	}
	return -1
}

func findService(services []domain.Service, id string) int {
	for i, svc := range services {
		if svc.ID == id {
			return i
		}
	}
	return -1
}

func locate(tree []domain.Region, regionID, code string) (int, int, error) {
	ri := findRegion(tree, regionID)
	if ri < 0 {
		return -1, -1, regionNotFound(regionID)
	}
	ci := findCountry(tree[ri].Countries, code)
	if ci < 0 {
		return -1, -1, countryNotFound(regionID, code)
	}
	return ri, ci, nil
}

func locateCountry(tree []domain.Region, regionID, code string) (domain.Region, domain.Country, error) {
	ri, ci, err := locate(tree, regionID, code)
	if err != nil {
		return domain.Region{}, domain.Country{}, err
	}
	return tree[ri], tree[ri].Countries[ci], nil
}

// replaceRegion returns a new top-level slice with index i swapped for r.
func replaceRegion(tree []domain.Region, i int, r domain.Region) []domain.Region {
	next := make([]domain.Region, len(tree))
	copy(next, tree)
	next[i] = r
	return next
}

func replaceCountry(countries []domain.Country, i int, c domain.Country) []domain.Country {
	next := make([]domain.Country, len(countries))
	copy(next, countries)
	next[i] = c
	return next
}

func regionNotFound(id string) error {
	return fmt.Errorf("%w: region %q", domain.ErrNotFound, id)
}

func countryNotFound(regionID, code string) error {
	return fmt.Errorf("%w: country %q in region %q", domain.ErrNotFound, code, regionID)
}

func serviceNotFound(regionID, code, serviceID string) error {
	return fmt.Errorf("%w: service %q in %s/%s", domain.ErrNotFound, serviceID, regionID, code)
}

func statsOf(tree []domain.Region) domain.CatalogStats {
	stats := domain.CatalogStats{Regions: len(tree)}
	for _, r := range tree {
		stats.Countries += len(r.Countries)
		for _, c := range r.Countries {
			stats.Services += len(c.Services)
		}
	}
	return stats
}

func statsFields(tree []domain.Region) map[string]any {
	stats := statsOf(tree)
	return map[string]any{
		"regions":   stats.Regions,
		"countries": stats.Countries,
		"services":  stats.Services,
	}
}

func etagOf(tree []domain.Region) string {
	if tree == nil {
		tree = []domain.Region{}
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
