package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SubjectID is the authenticated subject extracted from the credential's `id` claim.
//
// Older clients send numeric ids while newer ones send strings, so JSON decoding accepts both and
// normalizes numbers to their decimal text. Two SubjectIDs are equal iff their strings are equal.
type SubjectID string

func (s *SubjectID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = SubjectID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("subject id must be a string or number: %w", err)
	}
	*s = SubjectID(normalizeNumber(n))
	return nil
}

// normalizeNumber renders integral numbers without exponent or fraction (1e0 and 1.0 both become "1").
func normalizeNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil {
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return n.String()
}

// PlaceID is the store-assigned identifier of a place. Valid ids are positive.
type PlaceID int64

// UserID is the store-assigned identifier of a user. Valid ids are positive.
type UserID int64

func (id PlaceID) Valid() bool { return id > 0 }
func (id UserID) Valid() bool  { return id > 0 }

// Subject returns the subject that owns the user record: the user itself.
func (id UserID) Subject() SubjectID {
	return SubjectID(strconv.FormatInt(int64(id), 10))
}

// ParsePlaceID parses a decimal path parameter.
func ParsePlaceID(s string) (PlaceID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return PlaceID(n), nil
}

// ParseUserID parses a decimal path parameter.
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return UserID(n), nil
}
