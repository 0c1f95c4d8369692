package parser

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lrinject/core/model"
)

func wrap(body string) string { return "#(" + body + ")" }

func TestParseRecord(t *testing.T) {
	tests := map[string]struct {
		line     string
		expected model.Event
	}{
		"position report": {
			line: wrap("0 120 42 55 3 1 0 10 53000"),
			expected: model.PositionReport{
				Time: 120, VehicleID: 42, Speed: 55, Expressway: 3,
				Lane: 1, Direction: 0, Mile: 10, Offset: 200,
			},
		},
		"position report with trailing unused fields": {
			line: wrap("0 0 107 32 0 0 0 10 53320 -1 -1 -1 -1 -1 -1"),
			expected: model.PositionReport{
				Time: 0, VehicleID: 107, Speed: 32, Mile: 10, Offset: 520,
			},
		},
		"account balance": {
			line:     wrap("2 4 107 -1 -1 -1 -1 -1 -1 88 -1 -1 -1 -1 -1"),
			expected: model.AccountBalanceQuery{Time: 4, VehicleID: 107, QueryID: 88},
		},
		"daily expenditure": {
			line:     wrap("3 100 7 -1 2 -1 -1 -1 -1 55 -1 -1 -1 -1 4"),
			expected: model.DailyExpenditureReport{Time: 100, VehicleID: 7, Expressway: 2, QueryID: 55, Day: 4},
		},
		"travel time request": {
			line:     wrap("4 10 7 -1 1 -1 -1 -1 -1 9 3 8 2 600 -1"),
			expected: model.TravelTimeRequest{Raw: "4 10 7 -1 1 -1 -1 -1 -1 9 3 8 2 600 -1"},
		},
		"travel time query": {
			line:     wrap("5 10 7"),
			expected: model.TravelTimeQueryNotice{Raw: "5 10 7"},
		},
		"carriage return is dropped": {
			line:     wrap("2 4 107 -1 -1 -1 -1 -1 -1 88") + "\r",
			expected: model.AccountBalanceQuery{Time: 4, VehicleID: 107, QueryID: 88},
		},
		"tab and double space separators": {
			line:     wrap("2\t4  107 -1 -1 -1 -1 -1 -1 88"),
			expected: model.AccountBalanceQuery{Time: 4, VehicleID: 107, QueryID: 88},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ev, err := ParseRecord(test.line)
			require.NoError(t, err)
			assert.Equal(t, test.expected, ev)
		})
	}
}

func TestParseRecordUnknownTypeIgnored(t *testing.T) {
	for _, body := range []string{"1 2 3", "6 1 1", "-3 0 0", "9"} {
		ev, err := ParseRecord(wrap(body))
		assert.NoError(t, err, body)
		assert.Nil(t, ev, body)
	}
	for typ := model.RecordType(-1); typ <= 9; typ++ {
		if typ.Known() {
			continue
		}
		ev, err := ParseRecord(wrap(fmt.Sprintf("%d 1 1", typ)))
		assert.NoError(t, err, typ)
		assert.Nil(t, ev, typ)
	}
}

func TestParseRecordErrors(t *testing.T) {
	tests := map[string]struct {
		line  string
		want  error
		index int
	}{
		"empty line":             {line: "", want: ErrMalformedRecord, index: -1},
		"only wrapper":           {line: "#()", want: ErrMalformedRecord, index: -1},
		"non numeric type":       {line: wrap("x 1 2"), want: ErrInvalidNumber, index: 0},
		"type overflows int8":    {line: wrap("300 1 2"), want: ErrInvalidNumber, index: 0},
		"position too short":     {line: wrap("0 120 42 55 3 1 0 10"), want: ErrMissingField, index: 8},
		"balance missing qid":    {line: wrap("2 4 107"), want: ErrMissingField, index: 9},
		"expenditure no day":     {line: wrap("3 100 7 -1 2 -1 -1 -1 -1 55"), want: ErrMissingField, index: 14},
		"non numeric vid":        {line: wrap("2 4 abc -1 -1 -1 -1 -1 -1 88"), want: ErrInvalidNumber, index: 2},
		"speed above range":      {line: wrap("0 1 1 101 0 0 0 0 0"), want: ErrOutOfRange, index: 3},
		"speed overflows int8":   {line: wrap("0 1 1 200 0 0 0 0 0"), want: ErrInvalidNumber, index: 3},
		"direction above range":  {line: wrap("0 1 1 10 0 0 2 0 0"), want: ErrOutOfRange, index: 6},
		"negative mile":          {line: wrap("0 1 1 10 0 0 0 -1 0"), want: ErrOutOfRange, index: 7},
		"offset overflows int16": {line: wrap("0 1 1 10 0 0 0 0 40000"), want: ErrOutOfRange, index: 8},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ev, err := ParseRecord(test.line)
			require.Error(t, err)
			assert.Nil(t, ev)
			assert.ErrorIs(t, err, test.want)
			var pe *ParseError
			if test.index < 0 {
				assert.False(t, errors.As(err, &pe))
				return
			}
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, test.index, pe.Index)
		})
	}
}

func TestOffsetFitsInt16ForValidDomain(t *testing.T) {
	for mile := int64(0); mile <= 99; mile++ {
		for _, delta := range []int64{0, 1, 1759, 5279} {
			pos := mile*model.FeetPerMile + delta
			if pos > 527999 {
				continue
			}
			off, err := Offset(pos, mile)
			require.NoError(t, err)
			assert.Equal(t, int16(delta), off)
		}
	}
	// position before the mile post is still representable
	off, err := Offset(0, 6)
	require.NoError(t, err)
	assert.Equal(t, int16(-31680), off)
}

func TestOffsetProperty(t *testing.T) {
	for pos := int64(0); pos <= 527999; pos += 997 {
		mile := pos / model.FeetPerMile
		line := wrap(fmt.Sprintf("0 1 1 50 0 1 0 %d %d", mile, pos))
		ev, err := ParseRecord(line)
		require.NoError(t, err, line)
		pr := ev.(model.PositionReport)
		assert.Equal(t, pos-mile*model.FeetPerMile, int64(pr.Offset))
		assert.GreaterOrEqual(t, int64(pr.Offset), int64(math.MinInt16))
		assert.LessOrEqual(t, int64(pr.Offset), int64(math.MaxInt16))
	}
}

func TestBlank(t *testing.T) {
	assert.True(t, Blank(""))
	assert.True(t, Blank("\r"))
	assert.True(t, Blank("\r\r"))
	assert.False(t, Blank(" "))
	assert.False(t, Blank("#(0 0 1 0 0 0 0 0 0)"))
}

func TestUnwrap(t *testing.T) {
	body, err := Unwrap("#(1 3 0 31)")
	require.NoError(t, err)
	assert.Equal(t, "1 3 0 31", body)

	_, err = Unwrap("()")
	assert.ErrorIs(t, err, ErrMalformedRecord)
}
