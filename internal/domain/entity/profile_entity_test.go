package entity

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestKindCollections(t *testing.T) {
	assert.Equal(t, "driver_profiles", KindDriver.Collection())
	assert.Equal(t, "customer_profiles", KindCustomer.Collection())
}

func TestIsComplete(t *testing.T) {
	customer := &Profile{Kind: KindCustomer, Name: "Sari", Phone: "+628222"}
	assert.Equal(t, true, customer.IsComplete())

	customer.Phone = ""
	assert.Equal(t, false, customer.IsComplete())

	driver := &Profile{Kind: KindDriver, Name: "Budi", Phone: "+628111"}
	// drivers additionally need the listing fields
	assert.Equal(t, false, driver.IsComplete())

	driver.TruckType = "pickup"
	driver.TruckCapacity = "1t"
	driver.City = "Jakarta"
	driver.Area = "Kemang"
	assert.Equal(t, true, driver.IsComplete())
}
