// Package parser turns raw Linear Road car data lines into typed events.
//
// Each line is a wrapped, space separated list of numeric fields such as
//
//	#(0 120 42 55 3 1 0 10 53000)
//
// The first two characters and the last one form the wrapper. The first
// field selects the record type.
package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kilianp07/lrinject/core/model"
)

// Unwrap strips the wrapper characters around the field list.
func Unwrap(line string) (string, error) {
	line = strings.TrimRight(line, "\r")
	if len(line) < 3 {
		return "", fmt.Errorf("%w: line too short: %q", ErrMalformedRecord, line)
	}
	return line[2 : len(line)-1], nil
}

// Blank reports whether a line carries no record at all. Blank lines are
// skipped rather than treated as malformed.
func Blank(line string) bool {
	return strings.TrimRight(line, "\r") == ""
}

// ParseRecord parses one raw line. Unknown record types yield a nil event and
// a nil error.
func ParseRecord(line string) (model.Event, error) {
	body, err := Unwrap(line)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no discriminator", ErrMalformedRecord)
	}
	typ, err := parseInt(fields, model.FieldType, "type", 8)
	if err != nil {
		return nil, err
	}

	rt := model.RecordType(typ)
	if !rt.Known() {
		return nil, nil
	}
	switch rt {
	case model.TypePositionReport:
		return parsePositionReport(fields)
	case model.TypeAccountBalance:
		return parseAccountBalance(fields)
	case model.TypeDailyExpenditure:
		return parseDailyExpenditure(fields)
	case model.TypeTravelTimeRequest:
		return model.TravelTimeRequest{Raw: body}, nil
	case model.TypeTravelTimeQuery:
		return model.TravelTimeQueryNotice{Raw: body}, nil
	}
	return nil, fmt.Errorf("record type %s has no decoder", rt)
}

// Offset returns the distance in feet from the last mile post.
func Offset(position, mile int64) (int16, error) {
	off := position - mile*model.FeetPerMile
	if off < math.MinInt16 || off > math.MaxInt16 {
		return 0, &ParseError{
			Index: model.FieldPosition,
			Field: "offset",
			Value: strconv.FormatInt(off, 10),
			Err:   ErrOutOfRange,
		}
	}
	return int16(off), nil
}

func parsePositionReport(fields []string) (model.Event, error) {
	var (
		p   model.PositionReport
		err error
	)
	if p.Time, err = parseInt(fields, model.FieldTime, "time", 64); err != nil {
		return nil, err
	}
	vid, err := parseInt(fields, model.FieldVehicleID, "vid", 32)
	if err != nil {
		return nil, err
	}
	p.VehicleID = int32(vid)

	small := []struct {
		idx  int
		name string
		max  int64
		dst  *int8
	}{
		{model.FieldSpeed, "speed", 100, &p.Speed},
		{model.FieldExpressway, "xway", 9, &p.Expressway},
		{model.FieldLane, "lane", 7, &p.Lane},
		{model.FieldDirection, "dir", 1, &p.Direction},
		{model.FieldMile, "mile", 99, &p.Mile},
	}
	for _, f := range small {
		v, err := parseBounded(fields, f.idx, f.name, 0, f.max)
		if err != nil {
			return nil, err
		}
		*f.dst = int8(v)
	}

	pos, err := parseInt(fields, model.FieldPosition, "pos", 32)
	if err != nil {
		return nil, err
	}
	if p.Offset, err = Offset(pos, int64(p.Mile)); err != nil {
		return nil, err
	}
	return p, nil
}

func parseAccountBalance(fields []string) (model.Event, error) {
	t, err := parseInt(fields, model.FieldTime, "time", 64)
	if err != nil {
		return nil, err
	}
	vid, err := parseInt(fields, model.FieldVehicleID, "vid", 32)
	if err != nil {
		return nil, err
	}
	qid, err := parseInt(fields, model.FieldQueryID, "qid", 32)
	if err != nil {
		return nil, err
	}
	return model.AccountBalanceQuery{Time: t, VehicleID: int32(vid), QueryID: int32(qid)}, nil
}

func parseDailyExpenditure(fields []string) (model.Event, error) {
	t, err := parseInt(fields, model.FieldTime, "time", 64)
	if err != nil {
		return nil, err
	}
	vid, err := parseInt(fields, model.FieldVehicleID, "vid", 32)
	if err != nil {
		return nil, err
	}
	xway, err := parseInt(fields, model.FieldExpressway, "xway", 8)
	if err != nil {
		return nil, err
	}
	qid, err := parseInt(fields, model.FieldQueryID, "qid", 32)
	if err != nil {
		return nil, err
	}
	day, err := parseInt(fields, model.FieldDay, "day", 32)
	if err != nil {
		return nil, err
	}
	return model.DailyExpenditureReport{
		Time:       t,
		VehicleID:  int32(vid),
		Expressway: int8(xway),
		QueryID:    int32(qid),
		Day:        int32(day),
	}, nil
}

func parseInt(fields []string, idx int, name string, bits int) (int64, error) {
	if idx >= len(fields) {
		return 0, &ParseError{Index: idx, Field: name, Err: ErrMissingField}
	}
	v, err := strconv.ParseInt(fields[idx], 10, bits)
	if err != nil {
		return 0, &ParseError{Index: idx, Field: name, Value: fields[idx], Err: fmt.Errorf("%w: %v", ErrInvalidNumber, err)}
	}
	return v, nil
}

func parseBounded(fields []string, idx int, name string, lo, hi int64) (int64, error) {
	v, err := parseInt(fields, idx, name, 8)
	if err != nil {
		return 0, err
	}
	if v < lo || v > hi {
		return 0, &ParseError{
			Index: idx,
			Field: name,
			Value: fields[idx],
			Err:   fmt.Errorf("%w: want %d..%d", ErrOutOfRange, lo, hi),
		}
	}
	return v, nil
}
