package model

// RecordType is the leading discriminator of a raw Linear Road record.
type RecordType int8

const (
	TypePositionReport    RecordType = 0
	TypeAccountBalance    RecordType = 2
	TypeDailyExpenditure  RecordType = 3
	TypeTravelTimeRequest RecordType = 4
	TypeTravelTimeQuery   RecordType = 5
)

// String returns a human-readable representation of the record type.
func (t RecordType) String() string {
	switch t {
	case TypePositionReport:
		return "position_report"
	case TypeAccountBalance:
		return "account_balance"
	case TypeDailyExpenditure:
		return "daily_expenditure"
	case TypeTravelTimeRequest:
		return "travel_time_request"
	case TypeTravelTimeQuery:
		return "travel_time_query"
	default:
		return "unknown"
	}
}

// Known reports whether the injector recognizes the record type.
func (t RecordType) Known() bool {
	switch t {
	case TypePositionReport, TypeAccountBalance, TypeDailyExpenditure,
		TypeTravelTimeRequest, TypeTravelTimeQuery:
		return true
	}
	return false
}

// Field positions inside a raw record.
const (
	FieldType       = 0
	FieldTime       = 1
	FieldVehicleID  = 2
	FieldSpeed      = 3
	FieldExpressway = 4
	FieldLane       = 5
	FieldDirection  = 6
	FieldMile       = 7
	FieldPosition   = 8
	FieldQueryID    = 9
	FieldDay        = 14
)

// FeetPerMile converts an absolute position into a mile index and offset.
const FeetPerMile = 5280
