package places

import (
	"errors"
	"fmt"
)

// Stage identifies the pipeline step a lookup failed in
type Stage string

const (
	StageNearbySearch Stage = "nearby-search"
	StageDetailFetch  Stage = "detail-fetch"
)

var (
	// ErrNearbySearch matches any failure of the nearby-search stage
	ErrNearbySearch = errors.New("nearby-search failed")
	// ErrDetailFetch matches any failure of the detail-fetch stage
	ErrDetailFetch = errors.New("detail-fetch failed")
)

// StageError wraps the cause of a failed lookup with the stage it happened in
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNearbySearch) and errors.Is(err, ErrDetailFetch) identify the stage
func (e *StageError) Is(target error) bool {
	switch target {
	case ErrNearbySearch:
		return e.Stage == StageNearbySearch
	case ErrDetailFetch:
		return e.Stage == StageDetailFetch
	}
	return false
}

// TransportError is a failed remote call
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError is a malformed backend payload
type ParseError struct {
	PlaceID string
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	msg := "malformed place payload"
	if e.PlaceID != "" {
		msg = fmt.Sprintf("malformed place payload for %s", e.PlaceID)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
