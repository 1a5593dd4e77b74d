package offer

import (
	"errors"
	"strings"
)

// Kind is the class of work an offer represents.
type Kind string

const (
	KindRide   Kind = "ride"
	KindCheap  Kind = "cheap"
	KindParcel Kind = "parcel"
)

var ErrInvalidKind = errors.New("invalid offer kind")

// ParseKind normalizes (lowercases+trims) and validates a kind string.
func ParseKind(in string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(in)))
	if kind.Valid() {
		return kind, nil
	}
	return "", ErrInvalidKind
}

// Valid reports whether kind is one of the allowed kind constants.
func (kind Kind) Valid() bool {
	switch kind {
	case KindRide, KindCheap, KindParcel:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Kind.
func (kind Kind) String() string {
	return string(kind)
}

// BaseFare returns the minimum fare for the kind; the generator adds a
// random premium on top of it.
func (kind Kind) BaseFare() int {
	switch kind {
	case KindCheap:
		return 800
	case KindParcel:
		return 1200
	default:
		return 1500
	}
}

// Offer is an unassigned job candidate shown to an online driver.
// Offers are immutable once generated and consumed exactly once:
// accepted into a Job, or rejected/expired and discarded.
type Offer struct {
	ID               string
	Kind             Kind
	Pickup           string
	Dropoff          string
	Fare             int
	DistanceToPickup string
	Note             string // empty unless the kind carries one
}
