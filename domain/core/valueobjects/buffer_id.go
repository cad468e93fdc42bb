package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// BufferID is a value object representing a unique buffer identifier
type BufferID struct {
	value string
}

// NewBufferID creates a new random BufferID
func NewBufferID() BufferID {
	return BufferID{value: uuid.New().String()}
}

// NewBufferIDFromString creates a BufferID from an existing string
func NewBufferIDFromString(id string) (BufferID, error) {
	if id == "" {
		return BufferID{}, errors.New("buffer ID cannot be empty")
	}
	if !isValidUUID(id) {
		return BufferID{}, errors.New("buffer ID must be a valid UUID")
	}
	return BufferID{value: id}, nil
}

// String returns the string representation of the BufferID
func (id BufferID) String() string {
	return id.value
}

// Equals checks if two BufferIDs are equal
func (id BufferID) Equals(other BufferID) bool {
	return id.value == other.value
}

// IsZero checks if the BufferID is the zero value
func (id BufferID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id BufferID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *BufferID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("BufferID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}
