package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the recorded event log to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Events   []string // Full event log for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nRecorded events:\n")
	for i, event := range e.Events {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, event)
	}

	return buf.String()
}

// assertEventContains checks if the event log contains the event.
func assertEventContains(events []string, assertion Assertion) error {
	for _, event := range events {
		if event == assertion.Event {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("event %q present", assertion.Event),
		Actual:   "not found in event log",
		Events:   events,
	}
}

// assertEventOrder checks if events appear in the specified order.
// Events don't need to be consecutive (intervening events are allowed);
// the first occurrence of each expected event determines its position.
func assertEventOrder(events []string, assertion Assertion) error {
	positions := make(map[string]int)

	for i, event := range events {
		for _, expected := range assertion.Events {
			if event == expected && positions[expected] == 0 {
				positions[expected] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, expected := range assertion.Events {
		if positions[expected] == 0 {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("all events present: %v", assertion.Events),
				Actual:   fmt.Sprintf("missing event: %s", expected),
				Events:   events,
			}
		}
	}

	for i := 1; i < len(assertion.Events); i++ {
		prev := assertion.Events[i-1]
		curr := assertion.Events[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Events),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Events: events,
			}
		}
	}

	return nil
}

// assertEventCount checks if the event appears exactly the specified
// number of times.
func assertEventCount(events []string, assertion Assertion) error {
	count := 0
	for _, event := range events {
		if event == assertion.Event {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %q", assertion.Count, assertion.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Events:   events,
		}
	}

	return nil
}

// assertValueEquals checks a recorded value by key.
func assertValueEquals(result *Result, assertion Assertion) error {
	actual, exists := result.Values[assertion.Key]
	if !exists {
		return &AssertionError{
			Type:     AssertValueEquals,
			Expected: fmt.Sprintf("recorded value %q = %d", assertion.Key, assertion.Value),
			Actual:   fmt.Sprintf("key %q not recorded", assertion.Key),
			Events:   result.Events,
		}
	}

	if actual != assertion.Value {
		return &AssertionError{
			Type:     AssertValueEquals,
			Expected: fmt.Sprintf("recorded value %q = %d", assertion.Key, assertion.Value),
			Actual:   fmt.Sprintf("recorded value %q = %d", assertion.Key, actual),
			Events:   result.Events,
		}
	}

	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEventContains:
			err = assertEventContains(result.Events, assertion)
		case AssertEventOrder:
			err = assertEventOrder(result.Events, assertion)
		case AssertEventCount:
			err = assertEventCount(result.Events, assertion)
		case AssertValueEquals:
			err = assertValueEquals(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
