package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/civisos/internal/persistence"
)

// StaffRepository captures the persistence operations needed for staff accounts.
type StaffRepository interface {
	CreateStaff(ctx context.Context, staff persistence.Staff) error
	UpdateStaff(ctx context.Context, staff persistence.Staff) error
	GetStaff(ctx context.Context, name string) (persistence.Staff, error)
	ListStaff(ctx context.Context) ([]persistence.Staff, error)
}

// PINVerifier compares a stored hash with a candidate PIN.
type PINVerifier func(encoded, pin string) error

// PINHasher derives a storable hash from a PIN.
type PINHasher func(pin string) (string, error)

const minPINLength = 4

// StaffService authenticates staff and manages their accounts.
type StaffService struct {
	staff  StaffRepository
	verify PINVerifier
	hash   PINHasher
	now    func() time.Time
	logger *slog.Logger
}

// NewStaffService constructs a staff service with the provided dependencies.
// Nil verify and hash functions default to argon2id.
func NewStaffService(staff StaffRepository, verify PINVerifier, hash PINHasher, now func() time.Time) *StaffService {
	return NewStaffServiceWithLogger(staff, verify, hash, now, nil)
}

// NewStaffServiceWithLogger constructs a staff service with a specified logger.
func NewStaffServiceWithLogger(staff StaffRepository, verify PINVerifier, hash PINHasher, now func() time.Time, logger *slog.Logger) *StaffService {
	if verify == nil {
		verify = VerifyPIN
	}
	if hash == nil {
		hash = func(pin string) (string, error) { return HashPIN(pin, DefaultArgon2idParams) }
	}
	if now == nil {
		now = time.Now
	}
	return &StaffService{staff: staff, verify: verify, hash: hash, now: now, logger: defaultLogger(logger)}
}

func (s *StaffService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StaffService", operation, attrs...)
}

// Authenticate checks a staff name and PIN and returns the acting principal.
func (s *StaffService) Authenticate(ctx context.Context, name, pin string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("StaffService is nil")
		return
	}
	if s.staff == nil {
		err = fmt.Errorf("staff repository not configured")
		return
	}

	name = strings.TrimSpace(name)

	logger := s.loggerWith(ctx, "Authenticate",
		"staff", name,
	)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("role", string(principal.Role)).DebugContext(ctx, "authentication succeeded")
	}()

	if name == "" || pin == "" {
		err = ErrInvalidCredentials
		return
	}

	var account persistence.Staff
	account, err = s.staff.GetStaff(ctx, name)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if account.Disabled {
		err = ErrAccountDisabled
		return
	}

	if err = s.verify(account.PINHash, pin); err != nil {
		err = ErrInvalidCredentials
		return
	}

	principal = Principal{StaffName: account.Name, Role: Role(account.Role)}
	return
}

// CreateStaff registers a staff account. Only administrators may do so.
func (s *StaffService) CreateStaff(ctx context.Context, params CreateStaffParams) (staff Staff, err error) {
	if s == nil {
		err = fmt.Errorf("StaffService is nil")
		return
	}
	if s.staff == nil {
		err = fmt.Errorf("staff repository not configured")
		return
	}

	name := strings.TrimSpace(params.Name)

	logger := s.loggerWith(ctx, "CreateStaff",
		"staff", params.Principal.StaffName,
		"new_staff", name,
		"role", string(params.Role),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create staff", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "staff created")
	}()

	if err = authorize(params.Principal, RoleAdmin); err != nil {
		return
	}

	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	}
	if !params.Role.Valid() {
		vErr.add("role", fmt.Sprintf("unknown role %q", params.Role))
	}
	if len(params.PIN) < minPINLength {
		vErr.add("pin", fmt.Sprintf("pin must have at least %d characters", minPINLength))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hash(params.PIN)
	if err != nil {
		err = fmt.Errorf("hash pin: %w", err)
		return
	}

	now := s.now()
	record := persistence.Staff{
		Name:      name,
		Role:      string(params.Role),
		PINHash:   hash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = s.staff.CreateStaff(ctx, record); err != nil {
		err = mapDomainError(err)
		return
	}

	staff = toStaff(record)
	return
}

// SetDisabled enables or disables a staff account.
func (s *StaffService) SetDisabled(ctx context.Context, principal Principal, name string, disabled bool) (staff Staff, err error) {
	if s == nil {
		err = fmt.Errorf("StaffService is nil")
		return
	}
	if s.staff == nil {
		err = fmt.Errorf("staff repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "SetDisabled",
		"staff", principal.StaffName,
		"target", name,
		"disabled", disabled,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update staff", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "staff updated")
	}()

	if err = authorize(principal, RoleAdmin); err != nil {
		return
	}

	var record persistence.Staff
	record, err = s.staff.GetStaff(ctx, name)
	if err != nil {
		err = mapDomainError(err)
		return
	}

	record.Disabled = disabled
	record.UpdatedAt = s.now()
	if err = s.staff.UpdateStaff(ctx, record); err != nil {
		err = mapDomainError(err)
		return
	}

	staff = toStaff(record)
	return
}

// ListStaff returns every staff account without credential material.
func (s *StaffService) ListStaff(ctx context.Context, principal Principal) (staff []Staff, err error) {
	if s == nil {
		err = fmt.Errorf("StaffService is nil")
		return
	}
	if err = authorize(principal, RoleManager); err != nil {
		return
	}
	if s.staff == nil {
		return nil, nil
	}

	var records []persistence.Staff
	records, err = s.staff.ListStaff(ctx)
	if err != nil {
		return
	}

	staff = make([]Staff, 0, len(records))
	for _, record := range records {
		staff = append(staff, toStaff(record))
	}
	return
}

// HasStaff reports whether any account exists.
func (s *StaffService) HasStaff(ctx context.Context) (bool, error) {
	if s == nil || s.staff == nil {
		return false, fmt.Errorf("staff repository not configured")
	}
	records, err := s.staff.ListStaff(ctx)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

func toStaff(record persistence.Staff) Staff {
	return Staff{
		Name:      record.Name,
		Role:      Role(record.Role),
		Disabled:  record.Disabled,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
