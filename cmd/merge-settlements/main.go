// Command merge-settlements is a one-shot maintenance tool that collapses
// duplicate settlement periods, either for a single vehicle or fleet-wide.
// It exists so operators can repair historic data without going through the
// API.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/vanledger/vanledger-api/internal/config"
	"github.com/vanledger/vanledger-api/internal/database"
	"github.com/vanledger/vanledger-api/internal/locks"
	"github.com/vanledger/vanledger-api/internal/repository"
	"github.com/vanledger/vanledger-api/internal/services"
	"github.com/vanledger/vanledger-api/pkg/logger"
)

func main() {
	vehicleID := flag.String("vehicle", "", "repair a single vehicle (default: scan the whole fleet)")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Setup(cfg.Environment)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	rdb, err := locks.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	locker := locks.NewRedisLocker(rdb)

	repos := repository.NewRepositories(db)
	auditSvc := services.NewAuditService(repos.Audit)
	mergeSvc := services.NewMergeService(db, auditSvc, locker)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *vehicleID != "" {
		result, err := mergeSvc.MergeVehicle(ctx, *vehicleID, "merge-settlements")
		if err == services.ErrNotDuplicated {
			logger.Info("No duplicate settlements found", "vehicle_id", *vehicleID)
			return
		}
		if err != nil {
			log.Fatalf("Merge failed for vehicle %s: %v", *vehicleID, err)
		}
		logger.Info("Merge complete",
			"vehicle_id", result.VehicleID,
			"groups_merged", result.GroupsMerged,
			"removed", len(result.Removed))
		return
	}

	results, err := mergeSvc.MergeAll(ctx, "merge-settlements")
	if err != nil {
		log.Fatalf("Fleet merge failed: %v", err)
	}
	total := 0
	for _, result := range results {
		total += len(result.Removed)
		logger.Info("Merged duplicates",
			"vehicle_id", result.VehicleID,
			"groups_merged", result.GroupsMerged,
			"removed", len(result.Removed))
	}
	logger.Info("Fleet merge complete", "vehicles", len(results), "rows_removed", total)
}
