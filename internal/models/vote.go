package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// VoteValue is a closed sum type: Equal, Different or Preferred.
type VoteValue interface {
	Kind() VoteKind
	isVoteValue()
}

type VoteKind string

const (
	VoteKindEqual     VoteKind = "equal"
	VoteKindDifferent VoteKind = "different"
	VoteKindPreferred VoteKind = "preferred"
)

type Equal struct{}

func (Equal) Kind() VoteKind { return VoteKindEqual }
func (Equal) isVoteValue()   {}

type Different struct{}

func (Different) Kind() VoteKind { return VoteKindDifferent }
func (Different) isVoteValue()   {}

// Preferred names the image the user picked.
type Preferred struct {
	Image string
}

func (Preferred) Kind() VoteKind { return VoteKindPreferred }
func (Preferred) isVoteValue()   {}

var ErrInvalidVoteValue = errors.New("invalid vote value")

// EncodeVoteValue splits a value into its stored kind and optional image column.
func EncodeVoteValue(v VoteValue) (VoteKind, *string) {
	if p, ok := v.(Preferred); ok {
		image := p.Image
		return VoteKindPreferred, &image
	}
	return v.Kind(), nil
}

// DecodeVoteValue is the inverse of EncodeVoteValue.
func DecodeVoteValue(kind VoteKind, image *string) (VoteValue, error) {
	switch kind {
	case VoteKindEqual:
		return Equal{}, nil
	case VoteKindDifferent:
		return Different{}, nil
	case VoteKindPreferred:
		if image == nil || *image == "" {
			return nil, ErrInvalidVoteValue
		}
		return Preferred{Image: *image}, nil
	default:
		return nil, ErrInvalidVoteValue
	}
}

type Vote struct {
	ID           string
	ComparisonID uuid.UUID
	UserID       uuid.UUID
	Value        VoteValue
	CreatedAt    time.Time
	ClientIP     *string
}
