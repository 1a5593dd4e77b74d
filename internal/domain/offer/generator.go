package offer

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// farePremiumSpan is the width of the uniform premium added to a kind's base fare.
const farePremiumSpan = 800

var (
	kinds = []Kind{KindRide, KindCheap, KindParcel}

	pickupPool  = []string{"Market", "Station", "Mall", "School"}
	dropoffPool = []string{"Airport", "Center", "Harbor", "Clinic"}
)

// Generator produces randomized offers from an injected random source,
// so tests can seed it and replay identical sequences.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator backed by the given random source.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate returns a fresh random offer. It has no side effects beyond
// consuming the random source.
func (g *Generator) Generate() Offer {
	kind := kinds[g.rng.Intn(len(kinds))]

	o := Offer{
		ID:               "offer-" + uuid.NewString(),
		Kind:             kind,
		Pickup:           pickupPool[g.rng.Intn(len(pickupPool))] + " Zone",
		Dropoff:          dropoffPool[g.rng.Intn(len(dropoffPool))],
		Fare:             kind.BaseFare() + g.rng.Intn(farePremiumSpan),
		DistanceToPickup: fmt.Sprintf("%d km", 1+g.rng.Intn(6)),
	}
	if kind == KindParcel {
		o.Note = "Small parcel"
	}
	return o
}
