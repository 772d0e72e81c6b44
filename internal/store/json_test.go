package store

import (
	"reflect"
	"testing"

	"github.com/rawblock/nicefield/pkg/models"
)

// expand(shrink(d)) should equal d for both distribution and numbers, in
// both the slice and the map representation.

func TestNumbersJSONRoundTrip(t *testing.T) {
	in := []models.NiceNumber{{Number: "69", NumUniques: 10}, {Number: "123456789", NumUniques: 9}}
	out := numbersFromJSON(numbersToJSON(in))
	if !reflect.DeepEqual(in, out) {
		t.Errorf("numbers round trip mismatch: got %v, want %v", out, in)
	}
}

func TestNumbersJSONRoundTripEmpty(t *testing.T) {
	if got := numbersFromJSON(numbersToJSON(nil)); got != nil {
		t.Errorf("empty numbers round trip should stay nil, got %v", got)
	}
}

func TestDistributionJSONRoundTrip(t *testing.T) {
	in := []models.DistributionBucket{{NumUniques: 9, Count: 80}, {NumUniques: 10, Count: 10}}
	out := distributionFromJSON(distributionToJSON(in))
	if !reflect.DeepEqual(in, out) {
		t.Errorf("distribution round trip mismatch: got %v, want %v", out, in)
	}
}

func TestDistributionJSONRoundTripNil(t *testing.T) {
	if got := distributionFromJSON(distributionToJSON(nil)); got != nil {
		t.Errorf("nil distribution round trip should stay nil, got %v", got)
	}
}

func TestDistributionMapJSONRoundTrip(t *testing.T) {
	in := map[uint32]uint64{9: 80, 10: 10}
	out := distributionMapFromJSON(distributionMapToJSON(in))
	if !reflect.DeepEqual(in, out) {
		t.Errorf("distribution map round trip mismatch: got %v, want %v", out, in)
	}
}

func TestNumbersMapJSONRoundTrip(t *testing.T) {
	in := map[string]uint32{"69": 10, "123456789": 9}
	out := numbersMapFromJSON(numbersMapToJSON(in))
	if !reflect.DeepEqual(in, out) {
		t.Errorf("numbers map round trip mismatch: got %v, want %v", out, in)
	}
}

func TestNumbersMapJSONRoundTripNil(t *testing.T) {
	if got := numbersMapFromJSON(numbersMapToJSON(nil)); got != nil {
		t.Errorf("nil numbers map round trip should stay nil, got %v", got)
	}
}
