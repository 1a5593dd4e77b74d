package offer

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"
)

var distanceFormat = regexp.MustCompile(`^[1-6] km$`)

func TestGenerateProducesValidOffers(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(42)))

	seen := map[Kind]bool{}
	ids := map[string]bool{}

	for i := 0; i < 200; i++ {
		o := gen.Generate()

		if !strings.HasPrefix(o.ID, "offer-") {
			t.Fatalf("id = %q, want offer- prefix", o.ID)
		}
		if ids[o.ID] {
			t.Fatalf("duplicate id %q", o.ID)
		}
		ids[o.ID] = true

		if !o.Kind.Valid() {
			t.Fatalf("invalid kind %q", o.Kind)
		}
		seen[o.Kind] = true

		if !strings.HasSuffix(o.Pickup, " Zone") {
			t.Errorf("pickup = %q, want Zone suffix", o.Pickup)
		}
		if o.Dropoff == "" {
			t.Error("empty dropoff")
		}

		base := o.Kind.BaseFare()
		if o.Fare < base || o.Fare >= base+800 {
			t.Errorf("fare %d outside [%d, %d)", o.Fare, base, base+800)
		}
		if !distanceFormat.MatchString(o.DistanceToPickup) {
			t.Errorf("distance = %q", o.DistanceToPickup)
		}

		if o.Kind == KindParcel && o.Note == "" {
			t.Error("parcel offer without note")
		}
		if o.Kind != KindParcel && o.Note != "" {
			t.Errorf("%s offer carries note %q", o.Kind, o.Note)
		}
	}

	for _, k := range []Kind{KindRide, KindCheap, KindParcel} {
		if !seen[k] {
			t.Errorf("kind %s never generated in 200 draws", k)
		}
	}
}

func TestKindBaseFares(t *testing.T) {
	cases := map[Kind]int{
		KindRide:   1500,
		KindCheap:  800,
		KindParcel: 1200,
	}
	for k, want := range cases {
		if got := k.BaseFare(); got != want {
			t.Errorf("%s base fare = %d, want %d", k, got, want)
		}
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("  Parcel "); err != nil || k != KindParcel {
		t.Fatalf("ParseKind = %q, %v", k, err)
	}
	if _, err := ParseKind("bus"); err == nil {
		t.Fatal("invalid kind accepted")
	}
}
