package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID         ID
	EventID       ID
	ImpactLinkID  ID
	IndicatorCode ID
)

// String conversions for domain IDs
func (id RunID) String() string         { return ID(id).String() }
func (id EventID) String() string       { return ID(id).String() }
func (id ImpactLinkID) String() string  { return ID(id).String() }
func (c IndicatorCode) String() string  { return ID(c).String() }
func (id EventID) IsEmpty() bool        { return ID(id).IsEmpty() }
func (c IndicatorCode) IsEmpty() bool   { return ID(c).IsEmpty() }

// NewRunID creates a time-ordered identifier for one forecast run
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseEventID parses a string into EventID. Identifiers coming out of
// spreadsheets are frequently floats ("12.0"); those are folded to "12"
// so that they compare equal to integer-typed parent references.
func ParseEventID(s string) (EventID, error) {
	s = normalizeIdentifier(s)
	if s == "" {
		return "", fmt.Errorf("event ID cannot be empty")
	}
	return EventID(s), nil
}

// ParseImpactLinkID parses a string into ImpactLinkID
func ParseImpactLinkID(s string) (ImpactLinkID, error) {
	s = normalizeIdentifier(s)
	if s == "" {
		return "", fmt.Errorf("impact link ID cannot be empty")
	}
	return ImpactLinkID(s), nil
}

// ParseIndicatorCode parses a string into IndicatorCode
func ParseIndicatorCode(s string) (IndicatorCode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("indicator code cannot be empty")
	}
	return IndicatorCode(s), nil
}

func normalizeIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".0") {
		head := strings.TrimSuffix(s, ".0")
		if head != "" && strings.Trim(head, "0123456789-") == "" {
			return head
		}
	}
	return s
}
