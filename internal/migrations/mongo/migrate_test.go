package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_CoverEveryStore(t *testing.T) {
	collections := Collections()

	for _, name := range []string{"Rental_listings", "Bookings", "Booking_locks"} {
		def, ok := collections[name]
		if !ok {
			t.Errorf("missing collection %s", name)
			continue
		}
		if len(def.Indexes) == 0 {
			t.Errorf("%s has no indexes", name)
		}
		if _, ok := def.Validator["$jsonSchema"]; !ok {
			t.Errorf("%s has no $jsonSchema validator", name)
		}
	}
}

func TestCollections_BookingGuards(t *testing.T) {
	def, ok := Collections()["Booking_guards"]
	if !ok {
		t.Fatal("missing collection Booking_guards")
	}
	if len(def.Indexes) != 0 {
		t.Errorf("guards are looked up by _id only, got %d extra indexes", len(def.Indexes))
	}
	if _, ok := def.Validator["$jsonSchema"]; !ok {
		t.Error("Booking_guards has no $jsonSchema validator")
	}
}

func TestRentalListings_PropertyIDIsUnique(t *testing.T) {
	idx := RentalListingsIndexes[0]
	keys, ok := idx.Keys.(bson.D)
	if !ok || len(keys) != 1 || keys[0].Key != "property_id" {
		t.Fatalf("first index should be on property_id, got %v", idx.Keys)
	}
	if idx.Options == nil || idx.Options.Unique == nil || !*idx.Options.Unique {
		t.Error("property_id index must be unique")
	}
}

func TestBookingLocks_TTLIndex(t *testing.T) {
	idx := BookingLocksIndexes[0]
	if idx.Options == nil || idx.Options.ExpireAfterSeconds == nil || *idx.Options.ExpireAfterSeconds != 0 {
		t.Error("expires_at index must expire documents at the stored time")
	}
}
