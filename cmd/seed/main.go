package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/movemate/movesync/config"
	pgstore "github.com/movemate/movesync/internal/docstore/postgres"
	"github.com/movemate/movesync/internal/domain/entity"
	"github.com/movemate/movesync/internal/identity"
	"github.com/movemate/movesync/internal/infrastructure/docrepo"
	"github.com/movemate/movesync/pkg/helpers"
)

// Seeds a demo driver, a demo customer, and a few reviews through the
// repositories so documents carry the exact schema the service writes.

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)

	ctx := context.Background()
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	store := pgstore.NewStore(pool, logger)

	const driverID = "demo-driver"
	const customerID = "demo-customer"

	driverRepo := docrepo.NewProfileRepository(store, identity.Static{ID: driverID}, entity.KindDriver, logger)
	customerRepo := docrepo.NewProfileRepository(store, identity.Static{ID: customerID}, entity.KindCustomer, logger)
	reviewRepo := docrepo.NewReviewRepository(store, logger)

	driver, err := driverRepo.SaveProfile(ctx, &entity.Profile{
		Name:          "Demo Driver",
		Phone:         "+15550100",
		Email:         "driver@example.com",
		City:          "Austin",
		Area:          "Downtown",
		TruckType:     "box",
		TruckCapacity: "2t",
		WorkingHours:  "08:00-18:00",
		IsAvailable:   true,
	})
	if err != nil {
		log.Fatalf("failed to seed driver: %v", err)
	}
	fmt.Printf("seeded driver: subject_id=%s\n", driver.SubjectID)

	customer, err := customerRepo.SaveProfile(ctx, &entity.Profile{
		Name:  "Demo Customer",
		Phone: "+15550101",
		Email: "customer@example.com",
		City:  "Austin",
	})
	if err != nil {
		log.Fatalf("failed to seed customer: %v", err)
	}
	fmt.Printf("seeded customer: subject_id=%s\n", customer.SubjectID)

	for i, rating := range []float64{5, 3, 4} {
		r, err := reviewRepo.AddReview(ctx, &entity.Review{
			SubjectID:  driver.SubjectID,
			AuthorID:   customer.SubjectID,
			AuthorName: customer.Name,
			Rating:     rating,
			Comment:    fmt.Sprintf("demo review %d", i+1),
		})
		if err != nil {
			log.Fatalf("failed to seed review: %v", err)
		}
		fmt.Printf("seeded review: id=%s rating=%.0f\n", r.ID, r.Rating)
	}

	avg, err := reviewRepo.AverageRating(ctx, driver.SubjectID)
	if err != nil {
		log.Fatalf("failed to read average: %v", err)
	}
	fmt.Printf("driver average rating: %.2f\n", avg)
}
