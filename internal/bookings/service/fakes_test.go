package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/validator"
	"staybook/pkg/config"
	mongotx "staybook/pkg/db/mongo"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ────────────────────────────────────────────────
// Booking repository fake
// ────────────────────────────────────────────────

// fakeBookingRepository mimics the parts of a Mongo transaction the service
// relies on: inserts stay invisible until commit, and a commit fails with a
// retryable write conflict when another commit bumped a listing guard the
// transaction also bumped.
type fakeBookingRepository struct {
	mu         sync.Mutex
	bookings   map[string]*model.Booking
	guards     map[string]int
	guardCalls map[string]int

	overlapCalls int
	// onOverlap runs after HasOverlap computed its answer, like a slow
	// reader holding an old snapshot.
	onOverlap func(ctx context.Context, call int)
}

type fakeTxKey struct{}

type fakeTx struct {
	guards  map[string]int
	pending []*model.Booking
}

var errFakeWriteConflict = errors.New("write conflict")

const fakeTxAttempts = 5

func newFakeBookingRepository(seed ...*model.Booking) *fakeBookingRepository {
	r := &fakeBookingRepository{
		bookings:   map[string]*model.Booking{},
		guards:     map[string]int{},
		guardCalls: map[string]int{},
	}
	for _, b := range seed {
		if b.ID == "" {
			b.ID = primitive.NewObjectID().Hex()
		}
		r.bookings[b.ID] = b
	}
	return r
}

func (r *fakeBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	now := time.Now().UTC()
	booking.ID = primitive.NewObjectID().Hex()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	stored := *booking

	if tx, ok := ctx.Value(fakeTxKey{}).(*fakeTx); ok {
		tx.pending = append(tx.pending, &stored)
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[booking.ID] = &stored
	return nil
}

func (r *fakeBookingRepository) GuardListing(ctx context.Context, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guardCalls[listingID]++
	if tx, ok := ctx.Value(fakeTxKey{}).(*fakeTx); ok {
		if _, seen := tx.guards[listingID]; !seen {
			tx.guards[listingID] = r.guards[listingID]
		}
		return nil
	}
	r.guards[listingID]++
	return nil
}

func (r *fakeBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	all := r.filter(func(*model.Booking) bool { return true })
	if offset >= int64(len(all)) {
		return []*model.Booking{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeBookingRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.bookings)), nil
}

func (r *fakeBookingRepository) CountByStatus(ctx context.Context, status model.BookingStatus) (int64, error) {
	return int64(len(r.filter(func(b *model.Booking) bool { return b.Status == status }))), nil
}

func (r *fakeBookingRepository) HasOverlap(ctx context.Context, listingID string, start, end model.Date, excludeID string) (bool, error) {
	found := r.filter(func(b *model.Booking) bool {
		return b.ID != excludeID && b.RentalPropertyID == listingID && b.Status.IsBlocking() && b.Overlaps(start, end)
	})

	r.mu.Lock()
	r.overlapCalls++
	call := r.overlapCalls
	hook := r.onOverlap
	r.mu.Unlock()
	if hook != nil {
		hook(ctx, call)
	}
	return len(found) > 0, nil
}

func (r *fakeBookingRepository) FindBlocking(ctx context.Context, listingID string, from, to model.Date) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		return b.RentalPropertyID == listingID && b.Status.IsBlocking() && b.Overlaps(from, to)
	}), nil
}

func (r *fakeBookingRepository) ListByListing(ctx context.Context, listingID string) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.RentalPropertyID == listingID }), nil
}

func (r *fakeBookingRepository) ListByGuestEmail(ctx context.Context, email string) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.GuestEmail == email }), nil
}

func (r *fakeBookingRepository) ListByStatus(ctx context.Context, status model.BookingStatus) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.Status == status }), nil
}

func (r *fakeBookingRepository) ListUpcoming(ctx context.Context, today model.Date) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		return b.Status == model.BookingConfirmed && !b.StartDate.Before(today)
	}), nil
}

func (r *fakeBookingRepository) ListActive(ctx context.Context, today model.Date) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		return b.Status == model.BookingConfirmed && !b.StartDate.After(today) && !b.EndDate.Before(today)
	}), nil
}

func (r *fakeBookingRepository) UpdateStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	for _, s := range from {
		if b.Status == s {
			b.Status = to
			b.UpdatedAt = time.Now().UTC()
			copied := *b
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", bookingserrors.ErrStatusChanged, id)
}

func (r *fakeBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	for range fakeTxAttempts {
		tx := &fakeTx{guards: map[string]int{}}
		if err := fn(context.WithValue(ctx, fakeTxKey{}, tx)); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.commit(tx) {
			return nil
		}
	}
	return errFakeWriteConflict
}

func (r *fakeBookingRepository) commit(tx *fakeTx) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, seen := range tx.guards {
		if r.guards[id] != seen {
			return false
		}
	}
	for id := range tx.guards {
		r.guards[id]++
	}
	for _, b := range tx.pending {
		r.bookings[b.ID] = b
	}
	return true
}

func (r *fakeBookingRepository) guardCount(listingID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.guardCalls[listingID]
}

// filter returns copies ordered by start date.
func (r *fakeBookingRepository) filter(keep func(*model.Booking) bool) []*model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Booking{}
	for _, b := range r.bookings {
		if keep(b) {
			copied := *b
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}

func (r *fakeBookingRepository) blockingFor(listingID string) []*model.Booking {
	return r.filter(func(b *model.Booking) bool {
		return b.RentalPropertyID == listingID && b.Status.IsBlocking()
	})
}

// ────────────────────────────────────────────────
// Lock repository fake
// ────────────────────────────────────────────────

type fakeLockRepository struct {
	mu    sync.Mutex
	locks map[string]model.BookingLock
}

func newFakeLockRepository() *fakeLockRepository {
	return &fakeLockRepository{locks: map[string]model.BookingLock{}}
}

func (r *fakeLockRepository) Create(ctx context.Context, lock *model.BookingLock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.locks[lock.ID]; held {
		return fmt.Errorf("%w: %s", bookingserrors.ErrLockHeld, lock.ID)
	}
	r.locks[lock.ID] = *lock
	return nil
}

// lockFor returns a copy of the stored lock, or nil.
func (r *fakeLockRepository) lockFor(id string) *model.BookingLock {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[id]
	if !ok {
		return nil
	}
	return &lock
}

func (r *fakeLockRepository) Release(ctx context.Context, id, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lock, ok := r.locks[id]; ok && lock.Owner == owner {
		delete(r.locks, id)
	}
	return nil
}

func (r *fakeLockRepository) DeleteExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[id]
	if !ok || !lock.Expired(now) {
		return false, nil
	}
	delete(r.locks, id)
	return true, nil
}

func (r *fakeLockRepository) held() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

// ────────────────────────────────────────────────
// Collaborator fakes
// ────────────────────────────────────────────────

type fakeListings struct {
	mu        sync.Mutex
	listings  map[string]*model.RentalListing
	provision func(ctx context.Context, propertyID string) (*model.RentalListing, error)
}

func newFakeListings(seed ...*model.RentalListing) *fakeListings {
	f := &fakeListings{listings: map[string]*model.RentalListing{}}
	for _, l := range seed {
		if l.ID == "" {
			l.ID = primitive.NewObjectID().Hex()
		}
		f.listings[l.ID] = l
	}
	return f
}

func (f *fakeListings) GetByID(ctx context.Context, id string) (*model.RentalListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("Rental listing", id)
	}
	copied := *l
	return &copied, nil
}

func (f *fakeListings) GetByPropertyID(ctx context.Context, propertyID string) (*model.RentalListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.listings {
		if l.PropertyID == propertyID {
			copied := *l
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("No rental listing found for property ID: " + propertyID)
}

func (f *fakeListings) ResolveOrAutoProvision(ctx context.Context, propertyID string) (*model.RentalListing, error) {
	if f.provision != nil {
		return f.provision(ctx, propertyID)
	}
	return f.GetByPropertyID(ctx, propertyID)
}

type recordedEvent struct {
	eventType string
	bookingID string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, booking *model.Booking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{eventType: eventType, bookingID: booking.ID})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}

// ────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────

func testConfig() *config.Config {
	return &config.Config{
		Log:             logger.Discard(),
		Location:        time.UTC,
		MaxStayDays:     365,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		BookingLockTTL:  10 * time.Second,
		BookingLockWait: 3 * time.Second,
	}
}

func testListing() *model.RentalListing {
	return &model.RentalListing{
		ID:           primitive.NewObjectID().Hex(),
		PropertyID:   "prop-1",
		NightlyRate:  model.Cents(10000),
		CleaningFee:  model.Cents(2500),
		MaxGuests:    4,
		CheckInTime:  "15:00",
		CheckOutTime: "11:00",
		Active:       true,
		Property:     &model.PropertySummary{Title: "Sea view flat", City: "Lisbon"},
	}
}

type testEnv struct {
	service   BookingService
	repo      *fakeBookingRepository
	locks     *fakeLockRepository
	listings  *fakeListings
	publisher *recordingPublisher
	cfg       *config.Config
}

func newTestEnv(listings ...*model.RentalListing) *testEnv {
	return newTestEnvWithConfig(testConfig(), listings...)
}

func newTestEnvWithConfig(cfg *config.Config, listings ...*model.RentalListing) *testEnv {
	env := &testEnv{
		repo:      newFakeBookingRepository(),
		locks:     newFakeLockRepository(),
		listings:  newFakeListings(listings...),
		publisher: &recordingPublisher{},
		cfg:       cfg,
	}
	locker := NewListingLocker(env.locks, cfg.BookingLockTTL, cfg.BookingLockWait, cfg.Log)
	env.useLocker(locker)
	return env
}

func (env *testEnv) useLocker(locker ListingLocker) {
	env.service = NewBookingService(env.repo, env.listings, locker, validator.NewBookingValidator(env.cfg.Log), env.publisher, env.cfg)
}

// passthroughLocker runs fn without taking a lock.
type passthroughLocker struct{}

func (passthroughLocker) WithListingLock(ctx context.Context, listingID string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func daysFromToday(n int) model.Date {
	return model.Today(time.UTC).AddDays(n)
}

func bookingRequest(listingID string, start, end model.Date, guests int) *model.BookingRequest {
	return &model.BookingRequest{
		RentalPropertyID: listingID,
		StartDate:        start,
		EndDate:          end,
		NumberOfGuests:   guests,
		GuestName:        "Ana Silva",
		GuestEmail:       "ana@example.com",
	}
}
