package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	emptyID := ID("")
	if !emptyID.IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}

	nonEmptyID := ID("not-empty")
	if nonEmptyID.IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseEventID tests event ID parsing, including spreadsheet float IDs
func TestParseEventID(t *testing.T) {
	tests := []struct {
		input    string
		expected EventID
		hasError bool
	}{
		{"evt-1", EventID("evt-1"), false},
		{"12.0", EventID("12"), false},
		{" 42 ", EventID("42"), false},
		{"12.5", EventID("12.5"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseEventID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestParseIndicatorCode tests indicator code parsing
func TestParseIndicatorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected IndicatorCode
		hasError bool
	}{
		{"ACC_OWNERSHIP", IndicatorCode("ACC_OWNERSHIP"), false},
		{"  BANK_ACCTS_MN ", IndicatorCode("BANK_ACCTS_MN"), false},
		{"", "", true},
	}

	for _, test := range tests {
		result, err := ParseIndicatorCode(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}
