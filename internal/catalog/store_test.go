package catalog

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/bcnelson/pricing-catalog/internal/storage/memory"
	"github.com/bcnelson/pricing-catalog/internal/validation"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Test doubles
// ============================================

type toggleGuard struct {
	allowed atomic.Bool
}

func newToggleGuard(allowed bool) *toggleGuard {
	g := &toggleGuard{}
	g.allowed.Store(allowed)
	return g
}

func (g *toggleGuard) CanEdit(context.Context) bool { return g.allowed.Load() }

// fakeGateway wraps an in-memory document and can be told to fail.
type fakeGateway struct {
	mu      sync.Mutex
	doc     []domain.Region
	hasDoc  bool
	loadErr error
	saveErr error
	saves   int
}

func (g *fakeGateway) LoadCatalog(ctx context.Context) ([]domain.Region, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	if !g.hasDoc {
		return nil, domain.ErrNotFound
	}
	return CloneRegions(g.doc), nil
}

func (g *fakeGateway) SaveCatalog(ctx context.Context, regions []domain.Region) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saveErr != nil {
		return g.saveErr
	}
	g.doc = CloneRegions(regions)
	g.hasDoc = true
	g.saves++
	return nil
}

func (g *fakeGateway) setSaveErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saveErr = err
}

func (g *fakeGateway) saveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saves
}

type recordedOp struct {
	op, result string
}

type fakeRecorder struct {
	mu       sync.Mutex
	ops      []recordedOp
	persists int
	stats    domain.CatalogStats
}

func (r *fakeRecorder) ObserveOperation(op, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, recordedOp{op, result})
}

func (r *fakeRecorder) ObservePersist(op string, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persists++
}

func (r *fakeRecorder) SetTreeSize(stats domain.CatalogStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = stats
}

func emptyCatalog() []domain.Region { return []domain.Region{} }

func newTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	if opts.Gateway == nil {
		opts.Gateway = memory.New()
	}
	if opts.Guard == nil {
		opts.Guard = newToggleGuard(true)
	}
	if opts.Logger == nil {
		logger, _ := test.NewNullLogger()
		opts.Logger = logger
	}
	store, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))
	return store
}

func sepaService() domain.Service {
	return domain.Service{
		ID:               "sepa",
		Name:             "SEPA",
		Type:             domain.ServiceTypeBankPayout,
		Currency:         "EUR",
		Coverage:         "All SEPA banks",
		TransactionLimit: domain.TransactionLimit{Min: 1, Max: 1000000},
		TAT:              "T+1",
		FeeStructure:     domain.FeeStructure{Fixed: 0.25, Percentage: 0, Currency: "EUR"},
	}
}

func instantService() domain.Service {
	svc := sepaService()
	svc.ID = "sepa-instant"
	svc.Name = "SEPA Instant"
	svc.TAT = "Real Time"
	return svc
}

func mustRegions(t *testing.T, s *Store) []domain.Region {
	t.Helper()
	regions, err := s.Regions()
	require.NoError(t, err)
	return regions
}

func ptr[T any](v T) *T { return &v }

// ============================================
// Lifecycle
// ============================================

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{Guard: newToggleGuard(true)})
	assert.Error(t, err)

	_, err = New(Options{Gateway: memory.New()})
	assert.Error(t, err)
}

func TestOperationsBeforeLoad(t *testing.T) {
	store, err := New(Options{Gateway: memory.New(), Guard: newToggleGuard(true)})
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, StateUninitialized, store.State())
	_, err = store.Regions()
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.ErrorIs(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}), domain.ErrNotReady)
	assert.ErrorIs(t, store.SaveChanges(ctx), domain.ErrNotReady)
	assert.ErrorIs(t, store.LastError(), domain.ErrNotReady)

	require.NoError(t, store.Load(ctx))
	assert.Equal(t, StateReady, store.State())
	assert.NoError(t, store.LastError())
}

func TestLoad_SeedsDefaultsWhenEmpty(t *testing.T) {
	gw := &fakeGateway{}
	store := newTestStore(t, Options{Gateway: gw})

	assert.Equal(t, DefaultCatalog(), mustRegions(t, store))
	assert.Equal(t, 1, gw.saveCount())
	assert.Equal(t, DefaultCatalog(), gw.doc)
}

func TestLoad_UsesStoredDocument(t *testing.T) {
	stored := []domain.Region{{
		ID:   "eu",
		Name: "Europe",
		Countries: []domain.Country{{
			Code:     "DE",
			Name:     "Germany",
			Services: []domain.Service{sepaService()},
		}},
	}}
	gw := &fakeGateway{doc: stored, hasDoc: true}
	store := newTestStore(t, Options{Gateway: gw})

	assert.Equal(t, stored, mustRegions(t, store))
	assert.Zero(t, gw.saveCount())
}

func TestLoad_UnreadableDocumentFallsBackToDefaults(t *testing.T) {
	gw := &fakeGateway{loadErr: errors.New("decoding catalog: unexpected EOF")}
	logger, hook := test.NewNullLogger()
	store := newTestStore(t, Options{Gateway: gw, Logger: logger})

	assert.Equal(t, DefaultCatalog(), mustRegions(t, store))
	assert.Equal(t, 1, gw.saveCount())
	assert.NoError(t, store.LastError())

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Message == "stored catalog unusable, seeding defaults" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestLoad_InvalidDocumentFallsBackToDefaults(t *testing.T) {
	gw := &fakeGateway{hasDoc: true, doc: []domain.Region{
		{ID: "eu", Name: "Europe"},
		{ID: "eu", Name: "Europe again"},
	}}
	store := newTestStore(t, Options{Gateway: gw})

	assert.Equal(t, DefaultCatalog(), mustRegions(t, store))
}

func TestLoad_PersistFailureReported(t *testing.T) {
	gw := &fakeGateway{saveErr: errors.New("read-only filesystem")}
	store, err := New(Options{Gateway: gw, Guard: newToggleGuard(true)})
	require.NoError(t, err)

	err = store.Load(context.Background())
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, StateReady, store.State())
	assert.ErrorIs(t, store.LastError(), domain.ErrPersistence)
	assert.Equal(t, DefaultCatalog(), mustRegions(t, store))
}

// ============================================
// Adds and uniqueness
// ============================================

func TestSEPAScenario(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.Empty(t, mustRegions(t, store))

	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe", Countries: []domain.Country{}}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "DE", Name: "Germany", Services: []domain.Service{}}))
	require.NoError(t, store.AddService(ctx, "eu", "DE", sepaService()))

	regions := mustRegions(t, store)
	require.Len(t, regions, 1)
	require.Len(t, regions[0].Countries, 1)
	require.Len(t, regions[0].Countries[0].Services, 1)
	assert.Equal(t, sepaService(), regions[0].Countries[0].Services[0])

	err := store.AddService(ctx, "eu", "DE", sepaService())
	require.ErrorIs(t, err, domain.ErrDuplicateKey)
	assert.ErrorIs(t, store.LastError(), domain.ErrDuplicateKey)

	regions = mustRegions(t, store)
	assert.Len(t, regions[0].Countries[0].Services, 1)
}

func TestDuplicatesLeaveTreeUnchanged(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "DE", Name: "Germany"}))
	require.NoError(t, store.AddService(ctx, "eu", "DE", sepaService()))

	tests := []struct {
		name string
		op   func() error
	}{
		{"region", func() error {
			return store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe two"})
		}},
		{"country", func() error {
			return store.AddCountry(ctx, "eu", domain.Country{Code: "DE", Name: "Germany two"})
		}},
		{"country lowercase", func() error {
			return store.AddCountry(ctx, "eu", domain.Country{Code: "de", Name: "Germany two"})
		}},
		{"service", func() error {
			svc := sepaService()
			svc.Name = "Other"
			return store.AddService(ctx, "eu", "DE", svc)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := mustRegions(t, store)
			etag := store.ETag()

			err := tt.op()
			require.ErrorIs(t, err, domain.ErrDuplicateKey)
			assert.ErrorIs(t, store.LastError(), domain.ErrDuplicateKey)
			assert.Equal(t, before, mustRegions(t, store))
			assert.Equal(t, etag, store.ETag())
		})
	}
}

func TestUniquenessIsScoped(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "emea", Name: "EMEA"}))

	// The same country code may appear in two regions, and the same service
	// id in two countries.
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "DE", Name: "Germany"}))
	require.NoError(t, store.AddCountry(ctx, "emea", domain.Country{Code: "DE", Name: "Germany"}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "FR", Name: "France"}))
	require.NoError(t, store.AddService(ctx, "eu", "DE", sepaService()))
	require.NoError(t, store.AddService(ctx, "eu", "FR", sepaService()))

	assert.Equal(t, domain.CatalogStats{Regions: 2, Countries: 3, Services: 2}, store.Stats())
}

func TestAddCountry_NormalizesCode(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: " de ", Name: "Germany"}))

	country, err := store.Country("eu", "de")
	require.NoError(t, err)
	assert.Equal(t, "DE", country.Code)
	assert.NotNil(t, country.Services)
}

func TestAddRegion_WithNestedChildren(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()

	err := store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe", Countries: []domain.Country{
		{Code: "de", Name: "Germany", Services: []domain.Service{sepaService(), sepaService()}},
	}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, mustRegions(t, store))

	err = store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe", Countries: []domain.Country{
		{Code: "de", Name: "Germany", Services: []domain.Service{sepaService(), instantService()}},
	}})
	require.NoError(t, err)
	svc, err := store.Service("eu", "DE", "sepa-instant")
	require.NoError(t, err)
	assert.Equal(t, "Real Time", svc.TAT)
}

// ============================================
// Field validation
// ============================================

func TestFieldInvariantsRejected(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "DE", Name: "Germany"}))

	tests := []struct {
		name   string
		mutate func(*domain.Service)
		field  string
	}{
		{"min equals max", func(s *domain.Service) { s.TransactionLimit = domain.TransactionLimit{Min: 10, Max: 10} }, "transactionLimit"},
		{"min above max", func(s *domain.Service) { s.TransactionLimit = domain.TransactionLimit{Min: 100, Max: 1} }, "transactionLimit"},
		{"zero min", func(s *domain.Service) { s.TransactionLimit.Min = 0 }, "transactionLimit"},
		{"infinite max", func(s *domain.Service) { s.TransactionLimit.Max = math.Inf(1) }, "transactionLimit"},
		{"infinite fixed fee", func(s *domain.Service) { s.FeeStructure.Fixed = math.Inf(1) }, "feeStructure.fixed"},
		{"lowercase currency", func(s *domain.Service) { s.Currency = "eur" }, "currency"},
		{"bad fee currency", func(s *domain.Service) { s.FeeStructure.Currency = "EURO" }, "feeStructure.currency"},
		{"negative percentage", func(s *domain.Service) { s.FeeStructure.Percentage = -0.5 }, "feeStructure.percentage"},
		{"unknown type", func(s *domain.Service) { s.Type = "crypto" }, "type"},
		{"missing tat", func(s *domain.Service) { s.TAT = "" }, "tat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := sepaService()
			tt.mutate(&svc)

			err := store.AddService(ctx, "eu", "DE", svc)
			require.ErrorIs(t, err, domain.ErrInvalidInput)

			var verrs validation.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field)

			country, err := store.Country("eu", "DE")
			require.NoError(t, err)
			assert.Empty(t, country.Services)
		})
	}
}

func TestAddCountry_InvalidCode(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))

	err := store.AddCountry(ctx, "eu", domain.Country{Code: "DEU", Name: "Germany"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	region, err := store.Region("eu")
	require.NoError(t, err)
	assert.Empty(t, region.Countries)
}

// ============================================
// Updates
// ============================================

func TestUpdateRegion(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))

	require.NoError(t, store.UpdateRegion(ctx, "eu", domain.UpdateRegionRequest{
		ID:   ptr("renamed"),
		Name: ptr("European Economic Area"),
	}))
	region, err := store.Region("eu")
	require.NoError(t, err)
	assert.Equal(t, "eu", region.ID)
	assert.Equal(t, "European Economic Area", region.Name)

	_, err = store.Region("renamed")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.UpdateRegion(ctx, "eu", domain.UpdateRegionRequest{Name: ptr("  ")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateCountry_CodeImmutable(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "DE", Name: "Germany"}))
	require.NoError(t, store.AddService(ctx, "eu", "DE", sepaService()))

	require.NoError(t, store.UpdateCountry(ctx, "eu", "de", domain.UpdateCountryRequest{
		Code: ptr("AT"),
		Name: ptr("Deutschland"),
	}))

	country, err := store.Country("eu", "DE")
	require.NoError(t, err)
	assert.Equal(t, "Deutschland", country.Name)
	assert.Len(t, country.Services, 1)

	_, err = store.Country("eu", "AT")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateService_MergesFields(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "DE", Name: "Germany"}))
	require.NoError(t, store.AddService(ctx, "eu", "DE", sepaService()))
	require.NoError(t, store.AddService(ctx, "eu", "DE", instantService()))

	require.NoError(t, store.UpdateService(ctx, "eu", "DE", "sepa", domain.UpdateServiceRequest{
		ID:           ptr("sepa-instant"),
		TAT:          ptr("T+0"),
		FeeStructure: &domain.FeeStructure{Fixed: 0.1, Percentage: 0.05, Currency: "EUR"},
	}))

	svc, err := store.Service("eu", "DE", "sepa")
	require.NoError(t, err)
	want := sepaService()
	want.TAT = "T+0"
	want.FeeStructure = domain.FeeStructure{Fixed: 0.1, Percentage: 0.05, Currency: "EUR"}
	assert.Equal(t, want, svc)

	// The other service is untouched and order is preserved.
	country, err := store.Country("eu", "DE")
	require.NoError(t, err)
	require.Len(t, country.Services, 2)
	assert.Equal(t, "sepa", country.Services[0].ID)
	assert.Equal(t, instantService(), country.Services[1])
}

func TestUpdateService_RejectsInvalidMerge(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "DE", Name: "Germany"}))
	require.NoError(t, store.AddService(ctx, "eu", "DE", sepaService()))
	before := mustRegions(t, store)

	err := store.UpdateService(ctx, "eu", "DE", "sepa", domain.UpdateServiceRequest{
		TransactionLimit: &domain.TransactionLimit{Min: 5000, Max: 10},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, before, mustRegions(t, store))
}

func TestMissingKeysAreReported(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "DE", Name: "Germany"}))
	before := mustRegions(t, store)

	ops := map[string]func() error{
		"update region":  func() error { return store.UpdateRegion(ctx, "apac", domain.UpdateRegionRequest{Name: ptr("x")}) },
		"delete region":  func() error { return store.DeleteRegion(ctx, "apac") },
		"add country":    func() error { return store.AddCountry(ctx, "apac", domain.Country{Code: "IN", Name: "India"}) },
		"update country": func() error { return store.UpdateCountry(ctx, "eu", "FR", domain.UpdateCountryRequest{Name: ptr("x")}) },
		"delete country": func() error { return store.DeleteCountry(ctx, "eu", "FR") },
		"add service":    func() error { return store.AddService(ctx, "eu", "FR", sepaService()) },
		"update service": func() error { return store.UpdateService(ctx, "eu", "DE", "ach", domain.UpdateServiceRequest{}) },
		"delete service": func() error { return store.DeleteService(ctx, "eu", "DE", "ach") },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			require.ErrorIs(t, err, domain.ErrNotFound)
			assert.ErrorIs(t, store.LastError(), domain.ErrNotFound)
			assert.Equal(t, before, mustRegions(t, store))
		})
	}
}

// ============================================
// Deletes
// ============================================

func TestDeleteRegion_Cascades(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "africa", Name: "Africa"}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "DE", Name: "Germany"}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "FR", Name: "France"}))
	require.NoError(t, store.AddService(ctx, "eu", "DE", sepaService()))
	require.NoError(t, store.AddService(ctx, "eu", "DE", instantService()))

	require.NoError(t, store.DeleteRegion(ctx, "eu"))

	_, err := store.Region("eu")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Country("eu", "DE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Country("eu", "FR")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Service("eu", "DE", "sepa")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Service("eu", "DE", "sepa-instant")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, domain.CatalogStats{Regions: 1}, store.Stats())
	regions := mustRegions(t, store)
	require.Len(t, regions, 1)
	assert.Equal(t, "africa", regions[0].ID)
}

func TestDeleteCountry_Cascades(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "DE", Name: "Germany"}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "FR", Name: "France"}))
	require.NoError(t, store.AddService(ctx, "eu", "DE", sepaService()))

	require.NoError(t, store.DeleteCountry(ctx, "eu", "de"))

	_, err := store.Service("eu", "DE", "sepa")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	region, err := store.Region("eu")
	require.NoError(t, err)
	require.Len(t, region.Countries, 1)
	assert.Equal(t, "FR", region.Countries[0].Code)
}

func TestDeleteService(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	require.NoError(t, store.AddCountry(ctx, "eu", domain.Country{Code: "DE", Name: "Germany"}))
	require.NoError(t, store.AddService(ctx, "eu", "DE", sepaService()))
	require.NoError(t, store.AddService(ctx, "eu", "DE", instantService()))

	require.NoError(t, store.DeleteService(ctx, "eu", "DE", "sepa"))

	country, err := store.Country("eu", "DE")
	require.NoError(t, err)
	assert.Equal(t, []domain.Service{instantService()}, country.Services)
}

// ============================================
// Permission gate
// ============================================

func TestPermissionGate(t *testing.T) {
	guard := newToggleGuard(true)
	gw := &fakeGateway{}
	store := newTestStore(t, Options{Gateway: gw, Guard: guard})
	ctx := context.Background()
	guard.allowed.Store(false)

	before := mustRegions(t, store)
	saves := gw.saveCount()

	ops := map[string]func() error{
		"add region":     func() error { return store.AddRegion(ctx, domain.Region{ID: "latam", Name: "Latin America"}) },
		"update region":  func() error { return store.UpdateRegion(ctx, "europe", domain.UpdateRegionRequest{Name: ptr("EU")}) },
		"delete region":  func() error { return store.DeleteRegion(ctx, "europe") },
		"add country":    func() error { return store.AddCountry(ctx, "europe", domain.Country{Code: "ES", Name: "Spain"}) },
		"update country": func() error { return store.UpdateCountry(ctx, "europe", "DE", domain.UpdateCountryRequest{Name: ptr("x")}) },
		"delete country": func() error { return store.DeleteCountry(ctx, "europe", "DE") },
		"add service":    func() error { return store.AddService(ctx, "europe", "FR", instantService()) },
		"update service": func() error { return store.UpdateService(ctx, "europe", "DE", "sepa", domain.UpdateServiceRequest{TAT: ptr("T+0")}) },
		"delete service": func() error { return store.DeleteService(ctx, "europe", "DE", "sepa") },
		"replace":        func() error { return store.Replace(ctx, nil) },
		"save":           func() error { return store.SaveChanges(ctx) },
		"reset":          func() error { return store.ResetToDefault(ctx) },
		"reload":         func() error { return store.Reload(ctx) },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			store.ClearError()
			err := op()
			require.ErrorIs(t, err, domain.ErrPermissionDenied)
			assert.ErrorIs(t, store.LastError(), domain.ErrPermissionDenied)
			assert.Equal(t, before, mustRegions(t, store))
		})
	}
	assert.Equal(t, saves, gw.saveCount())
}

func TestPermissionReevaluatedPerCall(t *testing.T) {
	guard := newToggleGuard(true)
	store := newTestStore(t, Options{Guard: guard, Defaults: emptyCatalog})
	ctx := context.Background()

	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	guard.allowed.Store(false)
	require.ErrorIs(t, store.AddRegion(ctx, domain.Region{ID: "africa", Name: "Africa"}), domain.ErrPermissionDenied)
	guard.allowed.Store(true)
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "africa", Name: "Africa"}))
	assert.NoError(t, store.LastError())
}

func TestGuardFunc_ReceivesContext(t *testing.T) {
	type key struct{}
	guard := GuardFunc(func(ctx context.Context) bool { return ctx.Value(key{}) == "editor" })
	store := newTestStore(t, Options{Guard: guard, Defaults: emptyCatalog})

	err := store.AddRegion(context.Background(), domain.Region{ID: "eu", Name: "Europe"})
	require.ErrorIs(t, err, domain.ErrPermissionDenied)

	ctx := context.WithValue(context.Background(), key{}, "editor")
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
}

// ============================================
// Persistence and reset
// ============================================

func TestSaveChanges_FailureKeepsTree(t *testing.T) {
	gw := &fakeGateway{}
	store := newTestStore(t, Options{Gateway: gw, Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	before := mustRegions(t, store)

	gw.setSaveErr(errors.New("disk full"))
	err := store.SaveChanges(ctx)
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Contains(t, err.Error(), "disk full")
	assert.ErrorIs(t, store.LastError(), domain.ErrPersistence)
	assert.Equal(t, before, mustRegions(t, store))

	gw.setSaveErr(nil)
	require.NoError(t, store.SaveChanges(ctx))
	assert.NoError(t, store.LastError())
	assert.Equal(t, before, gw.doc)
}

func TestSaveChanges_Timeout(t *testing.T) {
	gw := &slowGateway{fakeGateway: &fakeGateway{}}
	store := newTestStore(t, Options{Gateway: gw, Defaults: emptyCatalog, PersistTimeout: 20 * time.Millisecond})

	gw.delay.Store(int64(time.Second))
	err := store.SaveChanges(context.Background())
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type slowGateway struct {
	*fakeGateway
	delay atomic.Int64
}

func (g *slowGateway) SaveCatalog(ctx context.Context, regions []domain.Region) error {
	select {
	case <-time.After(time.Duration(g.delay.Load())):
		return g.fakeGateway.SaveCatalog(ctx, regions)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestResetToDefault_Idempotent(t *testing.T) {
	gw := &fakeGateway{}
	store := newTestStore(t, Options{Gateway: gw})
	ctx := context.Background()
	require.NoError(t, store.DeleteRegion(ctx, "europe"))

	require.NoError(t, store.ResetToDefault(ctx))
	first := mustRegions(t, store)
	require.NoError(t, store.ResetToDefault(ctx))
	second := mustRegions(t, store)

	assert.Equal(t, first, second)
	assert.Equal(t, DefaultCatalog(), first)
	assert.Equal(t, DefaultCatalog(), gw.doc)
}

func TestResetToDefault_PersistFailureKeepsDefaults(t *testing.T) {
	gw := &fakeGateway{}
	store := newTestStore(t, Options{Gateway: gw})
	ctx := context.Background()
	require.NoError(t, store.DeleteRegion(ctx, "europe"))

	gw.setSaveErr(errors.New("bucket unavailable"))
	err := store.ResetToDefault(ctx)
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, DefaultCatalog(), mustRegions(t, store))
}

func TestRoundTripThroughGateway(t *testing.T) {
	gw := memory.New()
	store := newTestStore(t, Options{Gateway: gw})
	ctx := context.Background()
	require.NoError(t, store.AddCountry(ctx, "europe", domain.Country{Code: "es", Name: "Spain"}))
	require.NoError(t, store.AddService(ctx, "europe", "ES", sepaService()))
	require.NoError(t, store.SaveChanges(ctx))

	reloaded := newTestStore(t, Options{Gateway: gw})
	assert.Equal(t, mustRegions(t, store), mustRegions(t, reloaded))
	assert.Equal(t, store.ETag(), reloaded.ETag())
}

func TestLoad_DiscardsUnsavedChanges(t *testing.T) {
	store := newTestStore(t, Options{})
	ctx := context.Background()
	require.NoError(t, store.DeleteRegion(ctx, "africa"))

	require.NoError(t, store.Load(ctx))
	_, err := store.Region("africa")
	assert.NoError(t, err)
}

func TestReload_RequiresEditRights(t *testing.T) {
	guard := newToggleGuard(true)
	store := newTestStore(t, Options{Guard: guard})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "latam", Name: "Latin America"}))
	guard.allowed.Store(false)

	require.ErrorIs(t, store.Reload(ctx), domain.ErrPermissionDenied)
	assert.ErrorIs(t, store.LastError(), domain.ErrPermissionDenied)
	require.ErrorIs(t, store.Load(ctx), domain.ErrPermissionDenied)

	_, err := store.Region("latam")
	assert.NoError(t, err)

	guard.allowed.Store(true)
	require.NoError(t, store.Reload(ctx))
	_, err = store.Region("latam")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, store.LastError())
}

// ============================================
// Replace
// ============================================

func TestReplace(t *testing.T) {
	store := newTestStore(t, Options{})
	ctx := context.Background()

	next := []domain.Region{{ID: "eu", Name: "Europe", Countries: []domain.Country{
		{Code: "de", Name: "Germany", Services: []domain.Service{sepaService()}},
	}}}
	require.NoError(t, store.Replace(ctx, next))

	regions := mustRegions(t, store)
	require.Len(t, regions, 1)
	assert.Equal(t, "DE", regions[0].Countries[0].Code)
	// The caller's slice is not retained.
	assert.Equal(t, "de", next[0].Countries[0].Code)

	before := mustRegions(t, store)
	err := store.Replace(ctx, []domain.Region{{ID: "eu", Name: "Europe"}, {ID: "eu", Name: "Again"}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, before, mustRegions(t, store))

	require.NoError(t, store.Replace(ctx, nil))
	assert.Equal(t, []domain.Region{}, mustRegions(t, store))
}

// ============================================
// Snapshots, error slot, hooks
// ============================================

func TestSnapshotsAreIsolated(t *testing.T) {
	store := newTestStore(t, Options{})
	ctx := context.Background()

	snapshot := mustRegions(t, store)
	snapshot[0].Name = "mutated"
	snapshot[0].Countries[0].Services[0].Currency = "XXX"

	fresh := mustRegions(t, store)
	assert.Equal(t, DefaultCatalog(), fresh)

	require.NoError(t, store.UpdateService(ctx, "europe", "DE", "sepa", domain.UpdateServiceRequest{TAT: ptr("T+0")}))
	assert.Equal(t, "T+1", fresh[0].Countries[0].Services[0].TAT)
}

func TestErrorSlot_MostRecentWins(t *testing.T) {
	guard := newToggleGuard(true)
	store := newTestStore(t, Options{Guard: guard})
	ctx := context.Background()

	require.Error(t, store.AddRegion(ctx, domain.Region{ID: "europe", Name: "Europe"}))
	assert.ErrorIs(t, store.LastError(), domain.ErrDuplicateKey)

	guard.allowed.Store(false)
	require.Error(t, store.DeleteRegion(ctx, "europe"))
	assert.ErrorIs(t, store.LastError(), domain.ErrPermissionDenied)
	assert.NotErrorIs(t, store.LastError(), domain.ErrDuplicateKey)

	status := store.Status()
	assert.Equal(t, "ready", status.State)
	assert.Equal(t, domain.ErrPermissionDenied.Error(), status.Error)

	store.ClearError()
	assert.NoError(t, store.LastError())
	assert.Empty(t, store.Status().Error)
}

func TestOnChangeAndRecorder(t *testing.T) {
	var changes atomic.Int32
	rec := &fakeRecorder{}
	store := newTestStore(t, Options{
		Defaults: emptyCatalog,
		Recorder: rec,
		OnChange: func() { changes.Add(1) },
	})
	ctx := context.Background()

	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	require.Error(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))
	require.NoError(t, store.SaveChanges(ctx))

	assert.Equal(t, int32(1), changes.Load())
	assert.Contains(t, rec.ops, recordedOp{OpAddRegion, "success"})
	assert.Contains(t, rec.ops, recordedOp{OpAddRegion, "duplicate"})
	assert.Contains(t, rec.ops, recordedOp{OpSave, "success"})
	assert.Equal(t, domain.CatalogStats{Regions: 1}, rec.stats)
	// Seeding on load plus the explicit save.
	assert.Equal(t, 2, rec.persists)
}

func TestETagTracksContent(t *testing.T) {
	store := newTestStore(t, Options{})
	ctx := context.Background()
	etag := store.ETag()
	assert.Len(t, etag, 64)

	require.NoError(t, store.UpdateRegion(ctx, "europe", domain.UpdateRegionRequest{Name: ptr("EEA")}))
	changed := store.ETag()
	assert.NotEqual(t, etag, changed)

	require.NoError(t, store.UpdateRegion(ctx, "europe", domain.UpdateRegionRequest{Name: ptr("Europe")}))
	assert.Equal(t, etag, store.ETag())
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "success", ResultLabel(nil))
	assert.Equal(t, "denied", ResultLabel(domain.ErrPermissionDenied))
	assert.Equal(t, "not_found", ResultLabel(regionNotFound("eu")))
	assert.Equal(t, "invalid", ResultLabel(validation.ValidateService(domain.Service{})))
	assert.Equal(t, "error", ResultLabel(errors.New("boom")))
}

func TestConcurrentMutationsKeepInvariants(t *testing.T) {
	store := newTestStore(t, Options{Defaults: emptyCatalog})
	ctx := context.Background()
	require.NoError(t, store.AddRegion(ctx, domain.Region{ID: "eu", Name: "Europe"}))

	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.AddCountry(ctx, "eu", domain.Country{Code: "DE", Name: "Germany"}) == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	region, err := store.Region("eu")
	require.NoError(t, err)
	assert.Len(t, region.Countries, 1)
}
