package pgqueue

import (
	"strconv"

	"github.com/google/uuid"
)

// IDCodec converts an adapter's ID type to and from the TEXT column pgqueue
// stores ids in. The relational backend needs this because, unlike the
// in-memory map or the Redis hash key, a SQL column has a fixed concrete
// type rather than Go's `comparable`.
type IDCodec[ID comparable] interface {
	EncodeID(id ID) string
	DecodeID(s string) (ID, error)
}

// UUIDCodec is the default id codec, matching the system-wide default id
// type (see SPEC_FULL.md §9).
type UUIDCodec struct{}

func (UUIDCodec) EncodeID(id uuid.UUID) string { return id.String() }

func (UUIDCodec) DecodeID(s string) (uuid.UUID, error) { return uuid.Parse(s) }

// StringCodec is the identity codec for string-typed ids.
type StringCodec struct{}

func (StringCodec) EncodeID(id string) string { return id }

func (StringCodec) DecodeID(s string) (string, error) { return s, nil }

// Int64Codec encodes int64-typed ids as their base-10 representation.
type Int64Codec struct{}

func (Int64Codec) EncodeID(id int64) string { return strconv.FormatInt(id, 10) }

func (Int64Codec) DecodeID(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }
