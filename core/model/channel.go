package model

import (
	"errors"
	"fmt"
)

// ErrSchemaMismatch is returned when values do not match a channel schema.
var ErrSchemaMismatch = errors.New("values do not match channel schema")

// Channel is a named output stream with a fixed, ordered field schema.
type Channel struct {
	Name   string   `json:"name" yaml:"name"`
	Fields []string `json:"fields" yaml:"fields"`
}

var (
	// PositionChannel carries position reports (type 0).
	PositionChannel = Channel{
		Name:   "position_report",
		Fields: []string{"secfromstart", "vid", "speed", "xway", "lane", "dir", "mile", "ofst"},
	}
	// BalanceChannel carries account balance queries (type 2).
	BalanceChannel = Channel{
		Name:   "accbal_report",
		Fields: []string{"secfromstart", "vid", "qid"},
	}
	// ExpenditureChannel carries daily expenditure queries (type 3).
	ExpenditureChannel = Channel{
		Name:   "daily_exp",
		Fields: []string{"secfromstart", "vid", "xway", "qid", "day"},
	}
)

// Channels returns the declared output channels in declaration order.
func Channels() []Channel {
	return []Channel{PositionChannel, BalanceChannel, ExpenditureChannel}
}

// LookupChannel finds a declared channel by name.
func LookupChannel(name string) (Channel, bool) {
	for _, c := range Channels() {
		if c.Name == name {
			return c, true
		}
	}
	return Channel{}, false
}

// Bind pairs values with the schema field names.
func (c Channel) Bind(values []any) (map[string]any, error) {
	if len(values) != len(c.Fields) {
		return nil, fmt.Errorf("%s: got %d values for %d fields: %w", c.Name, len(values), len(c.Fields), ErrSchemaMismatch)
	}
	out := make(map[string]any, len(values))
	for i, f := range c.Fields {
		out[f] = values[i]
	}
	return out, nil
}

func (c Channel) String() string { return c.Name }
