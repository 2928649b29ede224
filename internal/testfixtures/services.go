package testfixtures

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/example/civisos/internal/application"
	"github.com/example/civisos/internal/persistence"
)

// ErrPINMismatch is returned by PlainPINVerifier for a wrong PIN.
var ErrPINMismatch = errors.New("pin mismatch")

// PlainPINHasher stores PINs as "plain:<pin>" so tests skip argon2id.
func PlainPINHasher(pin string) (string, error) {
	return "plain:" + pin, nil
}

// PlainPINVerifier checks hashes produced by PlainPINHasher.
func PlainPINVerifier(encoded, pin string) error {
	if encoded != "plain:"+pin {
		return ErrPINMismatch
	}
	return nil
}

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
	EventLimit  int
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      slog.New(slog.DiscardHandler),
		EventLimit:  100,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger routes service logs to logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// WithEventLimit caps the device event log.
func WithEventLimit(limit int) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.EventLimit = limit
	}
}

// Services bundles every application service over one store.
type Services struct {
	Staff    *application.StaffService
	Parking  *application.ParkingService
	Facility *application.FacilityService
	Deposits *application.DepositService
	Devices  *application.DeviceService
	Fees     *application.FeeService
	Imports  *application.ImportService
}

// NewServices builds the full service set over store.
func (f *ServiceFactory) NewServices(store persistence.Store) Services {
	now := f.Clock.NowFunc()
	ids := f.IDGenerator.NextFunc()
	return Services{
		Staff:    application.NewStaffServiceWithLogger(store, PlainPINVerifier, PlainPINHasher, now, f.Logger),
		Parking:  application.NewParkingServiceWithLogger(store, now, f.Logger),
		Facility: application.NewFacilityServiceWithLogger(store, ids, now, f.Logger),
		Deposits: application.NewDepositServiceWithLogger(store, ids, now, f.Logger),
		Devices:  application.NewDeviceServiceWithLogger(store, ids, now, f.EventLimit, f.Logger),
		Fees:     application.NewFeeServiceWithLogger(store, now, f.Logger),
		Imports:  application.NewImportService(f.Logger),
	}
}

// SeedStaff creates accounts with DefaultPIN, defaulting to DefaultStaff.
func (s Services) SeedStaff(tb testing.TB, accounts ...StaffAccount) {
	tb.Helper()

	if len(accounts) == 0 {
		accounts = DefaultStaff
	}
	for _, account := range accounts {
		if _, err := s.Staff.CreateStaff(context.Background(), application.CreateStaffParams{
			Principal: application.SystemPrincipal,
			Name:      account.Name,
			Role:      account.Role,
			PIN:       DefaultPIN,
		}); err != nil {
			tb.Fatalf("failed to seed staff %q: %v", account.Name, err)
		}
	}
}
