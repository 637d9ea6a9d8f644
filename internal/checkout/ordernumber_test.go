package checkout

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)

	number, err := GenerateOrderNumber(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pattern := regexp.MustCompile(`^ORD-20260314-[A-Z2-9]{6}$`)
	if !pattern.MatchString(number) {
		t.Fatalf("order number %q does not match expected format", number)
	}

	suffix := number[len(number)-6:]
	for _, ch := range suffix {
		if !strings.ContainsRune(orderNumberAlphabet, ch) {
			t.Fatalf("suffix character %q outside alphabet", ch)
		}
	}
}

func TestGenerateOrderNumberUsesUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// Local date is already March 15 but UTC is still March 14.
	now := time.Date(2026, time.March, 15, 5, 0, 0, 0, loc)

	number, err := GenerateOrderNumber(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(number, "ORD-20260314-") {
		t.Fatalf("expected UTC date in %q", number)
	}
}

func TestGenerateOrderNumberVaries(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		number, err := GenerateOrderNumber(now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[number] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("expected random suffixes, got %d distinct values", len(seen))
	}
}
