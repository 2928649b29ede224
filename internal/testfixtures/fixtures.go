package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/civisos/internal/application"
	"github.com/example/civisos/internal/deposit"
	"github.com/example/civisos/internal/facility"
	"github.com/example/civisos/internal/fee"
	"github.com/example/civisos/internal/iot"
	"github.com/example/civisos/internal/parking"
	"github.com/example/civisos/internal/scheduler"
)

var (
	spaceCounter    uint64
	facilityCounter uint64
	depositCounter  uint64
	deviceCounter   uint64
	unitCounter     uint64
)

var referenceTime = time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// DefaultPIN is the PIN given to staff created by SeedStaff.
const DefaultPIN = "1234"

// StaffAccount names a staff member and role to seed.
type StaffAccount struct {
	Name string
	Role application.Role
}

// DefaultStaff covers one account per role.
var DefaultStaff = []StaffAccount{
	{Name: "alice", Role: application.RoleAdmin},
	{Name: "mei", Role: application.RoleManager},
	{Name: "bob", Role: application.RoleStaff},
	{Name: "rita", Role: application.RoleResident},
}

// Principal returns the principal the account authenticates as.
func (a StaffAccount) Principal() application.Principal {
	return application.Principal{StaffName: a.Name, Role: a.Role}
}

// ----------------------------- Parking fixtures -----------------------------

// SpaceOption configures a generated parking space.
type SpaceOption func(*parking.Space)

// NewSpace returns an available resident space with a unique ID.
func NewSpace(opts ...SpaceOption) parking.Space {
	idx := atomic.AddUint64(&spaceCounter, 1)
	space := parking.Space{
		ID:     fmt.Sprintf("S-%03d", idx),
		Area:   "S",
		Number: fmt.Sprintf("%03d", idx),
		Type:   parking.TypeResident,
		Status: parking.StatusAvailable,
	}
	for _, opt := range opts {
		opt(&space)
	}
	return space
}

// WithSpaceID overrides the generated ID, area and number.
func WithSpaceID(area, number string) SpaceOption {
	return func(s *parking.Space) {
		s.ID = area + "-" + number
		s.Area = area
		s.Number = number
	}
}

// WithSpaceType overrides the space type.
func WithSpaceType(t parking.SpaceType) SpaceOption {
	return func(s *parking.Space) {
		s.Type = t
	}
}

// WithSpaceMaintenance puts the space under maintenance for reason.
func WithSpaceMaintenance(reason string) SpaceOption {
	return func(s *parking.Space) {
		s.Status = parking.StatusMaintenance
		s.Reason = reason
	}
}

// ----------------------------- Facility fixtures -----------------------------

// FacilityOption configures a generated facility.
type FacilityOption func(*facility.Facility)

// NewFacility returns an available facility charging 200 per hour.
func NewFacility(opts ...FacilityOption) facility.Facility {
	idx := atomic.AddUint64(&facilityCounter, 1)
	f := facility.Facility{
		ID:         fmt.Sprintf("facility-%03d", idx),
		Name:       fmt.Sprintf("Facility %03d", idx),
		Type:       "room",
		Capacity:   10,
		HourlyRate: decimal.NewFromInt(200),
		Available:  true,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// WithFacilityID overrides the generated facility ID.
func WithFacilityID(id string) FacilityOption {
	return func(f *facility.Facility) {
		f.ID = id
	}
}

// WithHourlyRate overrides the hourly rate.
func WithHourlyRate(rate decimal.Decimal) FacilityOption {
	return func(f *facility.Facility) {
		f.HourlyRate = rate
	}
}

// WithFacilityUnavailable marks the facility as closed for bookings.
func WithFacilityUnavailable() FacilityOption {
	return func(f *facility.Facility) {
		f.Available = false
	}
}

// BookingOption configures a booking draft.
type BookingOption func(*facility.Booking)

// NewBooking returns a resident booking draft for facilityID on the
// reference day from 10:00 to 11:00.
func NewBooking(facilityID string, opts ...BookingOption) facility.Booking {
	b := facility.Booking{
		FacilityID:         facilityID,
		BookingType:        facility.BookingResident,
		ResidentBuildingID: "A",
		ResidentUnitID:     "A-1-1",
		ResidentName:       "Lin",
		BookingDate:        referenceTime.Format(time.DateOnly),
		StartTime:          scheduler.NewClock(10, 0),
		EndTime:            scheduler.NewClock(11, 0),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// WithWindow overrides the booking window with "HH:MM" clocks.
func WithWindow(start, end string) BookingOption {
	return func(b *facility.Booking) {
		b.StartTime = mustClock(start)
		b.EndTime = mustClock(end)
	}
}

// WithBookingDate overrides the booking date.
func WithBookingDate(date string) BookingOption {
	return func(b *facility.Booking) {
		b.BookingDate = date
	}
}

// WithFee sets the booking fee.
func WithFee(fee decimal.Decimal) BookingOption {
	return func(b *facility.Booking) {
		b.Fee = fee
	}
}

// WithExternalGuest turns the draft into an external booking.
func WithExternalGuest(name, contact string) BookingOption {
	return func(b *facility.Booking) {
		b.BookingType = facility.BookingExternal
		b.ResidentBuildingID = ""
		b.ResidentUnitID = ""
		b.ResidentName = ""
		b.ExternalName = name
		b.ExternalContact = contact
	}
}

func mustClock(raw string) scheduler.Clock {
	c, err := scheduler.ParseClock(raw)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: invalid clock %q: %v", raw, err))
	}
	return c
}

// ----------------------------- Deposit fixtures -----------------------------

// DepositOption configures a deposit draft.
type DepositOption func(*deposit.Item)

// NewDeposit returns an item deposit draft from an external courier to a
// resident.
func NewDeposit(opts ...DepositOption) deposit.Item {
	idx := atomic.AddUint64(&depositCounter, 1)
	item := deposit.Item{
		Types:    []deposit.Type{deposit.TypeItem},
		ItemName: fmt.Sprintf("Parcel %03d", idx),
		Sender:   deposit.Person{Type: deposit.PersonExternal, Name: "Courier"},
		Receiver: deposit.Person{Type: deposit.PersonResident, Name: "Lin", BuildingID: "A", UnitID: "A-1-1"},
	}
	for _, opt := range opts {
		opt(&item)
	}
	return item
}

// WithMoney adds the money type and an initial balance.
func WithMoney(balance decimal.Decimal) DepositOption {
	return func(item *deposit.Item) {
		item.Types = append(item.Types, deposit.TypeMoney)
		item.Balance = balance
	}
}

// WithReceiver overrides the receiver.
func WithReceiver(person deposit.Person) DepositOption {
	return func(item *deposit.Item) {
		item.Receiver = person
	}
}

// ----------------------------- Device fixtures -----------------------------

// DeviceOption configures a generated device.
type DeviceOption func(*iot.Device)

// NewDevice returns an online lobby sensor with an empty data map.
func NewDevice(opts ...DeviceOption) iot.Device {
	idx := atomic.AddUint64(&deviceCounter, 1)
	device := iot.Device{
		ID:       fmt.Sprintf("device-%03d", idx),
		Name:     fmt.Sprintf("Sensor %03d", idx),
		Type:     iot.DeviceSensor,
		Location: "lobby",
		Status:   iot.DeviceOnline,
		LastSeen: referenceTime,
		Data:     map[string]any{},
	}
	for _, opt := range opts {
		opt(&device)
	}
	return device
}

// WithDeviceID overrides the generated device ID.
func WithDeviceID(id string) DeviceOption {
	return func(d *iot.Device) {
		d.ID = id
	}
}

// WithDeviceType overrides the device type.
func WithDeviceType(t iot.DeviceType) DeviceOption {
	return func(d *iot.Device) {
		d.Type = t
	}
}

// ----------------------------- Fee fixtures -----------------------------

// UnitOption configures a generated fee unit.
type UnitOption func(*fee.Unit)

// NewFeeUnit returns an unpaid unit that uses the slice defaults.
func NewFeeUnit(opts ...UnitOption) fee.Unit {
	idx := atomic.AddUint64(&unitCounter, 1)
	unit := fee.Unit{
		ID:            fmt.Sprintf("unit-%03d", idx),
		UnitID:        fmt.Sprintf("A-%d", idx),
		BuildingID:    "A",
		PaymentStatus: fee.PaymentUnpaid,
	}
	for _, opt := range opts {
		opt(&unit)
	}
	return unit
}

// WithUnitID overrides both the record ID and the unit number.
func WithUnitID(id, unitID string) UnitOption {
	return func(u *fee.Unit) {
		u.ID = id
		u.UnitID = unitID
	}
}

// WithCustomArea sets a per-unit area override.
func WithCustomArea(area decimal.Decimal) UnitOption {
	return func(u *fee.Unit) {
		u.CustomArea = &area
	}
}

// WithCustomPrice sets a per-unit price override.
func WithCustomPrice(price decimal.Decimal) UnitOption {
	return func(u *fee.Unit) {
		u.CustomPrice = &price
	}
}
