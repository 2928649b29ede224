package persistence

import "time"

// Slice names under which domain state snapshots are stored.
const (
	SliceParking  = "parking"
	SliceFacility = "facility"
	SliceDeposit  = "deposit"
	SliceIoT      = "iot"
	SliceFee      = "fee"
)

// Snapshot is the serialized state of one domain slice.
type Snapshot struct {
	Name      string
	Payload   []byte
	Version   int64
	UpdatedAt time.Time
}

// Staff represents an operator account allowed to use the API.
type Staff struct {
	Name      string
	Role      string
	PINHash   string
	Disabled  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
