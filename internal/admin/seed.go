package admin

import "time"

// SeedStore populates the store with a small, deterministic data set so
// the admin surface has something to show before real traffic arrives.
func SeedStore(s *Store) {
	now := s.clk.Now().UTC()
	day := 24 * time.Hour

	driverID := 1
	rideStarted := now.Add(-95 * time.Minute)
	rideDone := now.Add(-80 * time.Minute)
	orderDone := now.Add(-40 * time.Minute)

	s.LoadFixtures(Fixtures{
		Customers: []Customer{
			{
				ID:          1,
				Name:        "Alice Mbuh",
				Email:       "alice@example.com",
				Phone:       "+237 650 000 001",
				ProfileType: ProfileStudent,
				Status:      StatusActive,
				Wallet:      6500,
				JoinedAt:    now.Add(-120 * day),
				LastActive:  now.Add(-2 * time.Hour),
				TotalRides:  42,
				Rating:      4.8,
			},
			{
				ID:          2,
				Name:        "Bob Tango",
				Email:       "bob@example.com",
				Phone:       "+237 650 000 002",
				ProfileType: ProfileWorker,
				Status:      StatusActive,
				Wallet:      1200,
				JoinedAt:    now.Add(-45 * day),
				LastActive:  now.Add(-26 * time.Hour),
				TotalRides:  17,
				Rating:      4.5,
			},
		},
		Drivers: []Driver{
			{
				ID:         driverID,
				Name:       "John Doe",
				Email:      "john@example.com",
				Phone:      "+237 650 000 010",
				Bike:       "Yamaha XTZ",
				Status:     StatusActive,
				Rating:     4.7,
				TotalTrips: 318,
				Earnings:   285000,
				CancelRate: 0.03,
			},
		},
		Shops: []Shop{
			{
				ID:             1,
				Name:           "Fresh Market",
				Owner:          "Marie Ngono",
				Phone:          "+237 650 000 020",
				Category:       "groceries",
				Status:         StatusActive,
				RegisteredAt:   now.Add(-200 * day),
				ProductCount:   86,
				OrdersAccepted: 412,
				OrdersRejected: 9,
				Rating:         4.6,
			},
		},
		Rides: []Ride{
			{
				ID:              "ride-001",
				CustomerID:      1,
				DriverID:        &driverID,
				PickupLocation:  "Market Zone",
				DropoffLocation: "Airport",
				Status:          RideCompleted,
				Fare:            4500,
				CreatedAt:       now.Add(-100 * time.Minute),
				StartedAt:       &rideStarted,
				CompletedAt:     &rideDone,
				Distance:        5,
			},
		},
		Orders: []Order{
			{
				ID:          "order-001",
				CustomerID:  2,
				ShopID:      1,
				DriverID:    &driverID,
				Status:      OrderCompleted,
				Total:       8500,
				Items:       []string{"Bread", "Milk", "Eggs"},
				CreatedAt:   now.Add(-70 * time.Minute),
				CompletedAt: &orderDone,
			},
		},
		Promotions: []Promotion{
			{
				ID:           "promo-student-15",
				Name:         "Student 15% Off",
				Description:  "Discount on all rides for verified students",
				Discount:     15,
				ApplicableTo: []ProfileType{ProfileStudent},
				Active:       true,
				CreatedAt:    now.Add(-30 * day),
				UsageCount:   231,
			},
			{
				ID:           "promo-worker-morning",
				Name:         "Worker Morning Pass",
				Description:  "Reduced fares on commutes before 9am",
				Discount:     10,
				ApplicableTo: []ProfileType{ProfileWorker},
				Active:       true,
				CreatedAt:    now.Add(-14 * day),
				UsageCount:   97,
			},
		},
		Financial: &FinancialData{
			TotalUserWallet:  13000,
			TopUpToday:       25000,
			RideRevenue:      185000,
			OrderRevenue:     245000,
			RefundsToday:     5000,
			DriverPayoutsDue: 142500,
		},
	})
}
