package model

// Event is a parsed input record.
type Event interface {
	Type() RecordType
}

// Emittable is an event forwarded to an output channel. Values are ordered
// according to the channel schema.
type Emittable interface {
	Event
	Channel() Channel
	Values() []any
}

// PositionReport is emitted by every vehicle every 30 seconds of simulation.
type PositionReport struct {
	Time       int64 // seconds since start of simulation
	VehicleID  int32
	Speed      int8 // mph, 0..100
	Expressway int8 // 0..9
	Lane       int8 // 0=ramp in, 1..3 travel lanes, 4=ramp out (0..7 overall)
	Direction  int8 // 0=west, 1=east
	Mile       int8 // segment, 0..99
	Offset     int16
}

func (PositionReport) Type() RecordType { return TypePositionReport }
func (PositionReport) Channel() Channel { return PositionChannel }

func (p PositionReport) Values() []any {
	return []any{p.Time, p.VehicleID, p.Speed, p.Expressway, p.Lane, p.Direction, p.Mile, p.Offset}
}

// AccountBalanceQuery asks for the toll balance of a vehicle.
type AccountBalanceQuery struct {
	Time      int64
	VehicleID int32
	QueryID   int32
}

func (AccountBalanceQuery) Type() RecordType { return TypeAccountBalance }
func (AccountBalanceQuery) Channel() Channel { return BalanceChannel }

func (q AccountBalanceQuery) Values() []any {
	return []any{q.Time, q.VehicleID, q.QueryID}
}

// DailyExpenditureReport asks for the tolls spent on an expressway on a past
// day. Day 1 is yesterday.
type DailyExpenditureReport struct {
	Time       int64
	VehicleID  int32
	Expressway int8
	QueryID    int32
	Day        int32
}

func (DailyExpenditureReport) Type() RecordType { return TypeDailyExpenditure }
func (DailyExpenditureReport) Channel() Channel { return ExpenditureChannel }

func (r DailyExpenditureReport) Values() []any {
	return []any{r.Time, r.VehicleID, r.Expressway, r.QueryID, r.Day}
}

// TravelTimeRequest is recognized but never emitted.
type TravelTimeRequest struct {
	Raw string
}

func (TravelTimeRequest) Type() RecordType { return TypeTravelTimeRequest }

// TravelTimeQueryNotice only produces a diagnostic line.
type TravelTimeQueryNotice struct {
	Raw string
}

func (TravelTimeQueryNotice) Type() RecordType { return TypeTravelTimeQuery }
