package fuzzy

import (
	"errors"
	"fmt"
)

// Options tune the approximate matcher. Threshold is the worst accepted score
// (0 is a perfect match, 1 matches anything). Location is the expected match
// offset and Distance how far from it a match may drift before its score
// degrades to 1.
type Options struct {
	Sort               bool    `mapstructure:"sort" json:"sort"`
	Threshold          float64 `mapstructure:"threshold" json:"threshold"`
	Location           int     `mapstructure:"location" json:"location"`
	Distance           int     `mapstructure:"distance" json:"distance"`
	MaxPatternLength   int     `mapstructure:"max_pattern_length" json:"max_pattern_length"`
	MinMatchCharLength int     `mapstructure:"min_match_char_length" json:"min_match_char_length"`
}

func DefaultOptions() Options {
	return Options{
		Sort:               true,
		Threshold:          0.15,
		Location:           0,
		Distance:           100,
		MaxPatternLength:   32,
		MinMatchCharLength: 1,
	}
}

// ErrInvalidOptions marks matcher settings that cannot be searched with.
var ErrInvalidOptions = errors.New("invalid fuzzy options")

// Validate rejects settings that have no meaning for the matcher.
func (o Options) Validate() error {
	switch {
	case o.Threshold < 0 || o.Threshold > 1:
		return fmt.Errorf("%w: threshold must be within [0,1], got %v", ErrInvalidOptions, o.Threshold)
	case o.Location < 0:
		return fmt.Errorf("%w: location must not be negative, got %d", ErrInvalidOptions, o.Location)
	case o.Distance < 0:
		return fmt.Errorf("%w: distance must not be negative, got %d", ErrInvalidOptions, o.Distance)
	case o.MaxPatternLength <= 0:
		return fmt.Errorf("%w: max pattern length must be positive, got %d", ErrInvalidOptions, o.MaxPatternLength)
	case o.MinMatchCharLength < 0:
		return fmt.Errorf("%w: min match char length must not be negative, got %d", ErrInvalidOptions, o.MinMatchCharLength)
	}
	return nil
}

// Overrides replace Options field by field; nil fields keep the base value.
type Overrides struct {
	Sort               *bool
	Threshold          *float64
	Location           *int
	Distance           *int
	MaxPatternLength   *int
	MinMatchCharLength *int
}

func (o Options) Merge(ov Overrides) Options {
	if ov.Sort != nil {
		o.Sort = *ov.Sort
	}
	if ov.Threshold != nil {
		o.Threshold = *ov.Threshold
	}
	if ov.Location != nil {
		o.Location = *ov.Location
	}
	if ov.Distance != nil {
		o.Distance = *ov.Distance
	}
	if ov.MaxPatternLength != nil {
		o.MaxPatternLength = *ov.MaxPatternLength
	}
	if ov.MinMatchCharLength != nil {
		o.MinMatchCharLength = *ov.MinMatchCharLength
	}

	return o
}

func (ov Overrides) IsZero() bool {
	return ov == Overrides{}
}
