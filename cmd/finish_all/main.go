// Command finish_all force-finishes every live reservation, releasing the
// spots. Used before maintenance windows.
package main

import (
	"context"
	"fmt"

	"parkshare/config"
	"parkshare/pkg/logger"
	"parkshare/service"
	"parkshare/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	ctx := context.Background()

	pg, err := postgres.New(ctx, cfg, log)
	if err != nil {
		panic(err)
	}
	defer pg.Close()

	svc := service.New(pg, log, service.Deps{
		Billing:            cfg.Billing(),
		MinDurationMinutes: cfg.MinDurationMinutes,
		BcryptCost:         cfg.BcryptCost,
	})

	live, err := svc.Reservation().ListLive(ctx)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to list live reservations: %v", err))
		return
	}

	finished := 0
	for _, r := range live {
		if _, err := svc.Reservation().ForceFinish(ctx, r.ID); err != nil {
			log.Warning("force finish failed", logger.Int64("reservation_id", r.ID), logger.Error(err))
			continue
		}
		finished++
	}
	log.Info(fmt.Sprintf("Finished %d of %d live reservations.", finished, len(live)))
}
