package background

import (
	"context"
	"log"
	"sync"
	"time"

	"fabworks/internal/common"
	"fabworks/internal/repositories"
	"fabworks/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// System identity used when a background job computes requirement views;
// it has no stored coverage preference, so the default applies.
var systemUserID = uuid.Nil

// JobScheduler runs the periodic background jobs: shortfall alert scans
// and cache warmup across every tenant with open orders.
type JobScheduler struct {
	scheduler          gocron.Scheduler
	requirementService services.RequirementService
	orderRepo          repositories.OrderRepository
	jobs               map[string]gocron.Job
	mu                 sync.RWMutex
}

func NewJobScheduler(requirementService services.RequirementService, orderRepo repositories.OrderRepository) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:          scheduler,
		requirementService: requirementService,
		orderRepo:          orderRepo,
		jobs:               make(map[string]gocron.Job),
	}

	js.registerJobs()
	return js
}

func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	alertsJob, err := js.scheduler.NewJob(
		gocron.DurationJob(30*time.Minute),
		gocron.NewTask(js.scanShortfalls, context.Background()),
		gocron.WithName("shortfall-alerts"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create shortfall alerts job: %v", err)
	} else {
		js.mu.Lock()
		js.jobs["shortfall-alerts"] = alertsJob
		js.mu.Unlock()
	}

	warmupJob, err := js.scheduler.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(js.warmRequirementViews, context.Background()),
		gocron.WithName("requirement-cache-warmup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create cache warmup job: %v", err)
	} else {
		js.mu.Lock()
		js.jobs["requirement-cache-warmup"] = warmupJob
		js.mu.Unlock()
	}

	js.mu.RLock()
	log.Printf("Registered %d background jobs", len(js.jobs))
	js.mu.RUnlock()
}

// scanShortfalls logs every open order whose components carry a real
// shortfall. Delivery of the alert beyond the log is out of scope.
func (js *JobScheduler) scanShortfalls(ctx context.Context) {
	tenants, err := js.orderRepo.ListTenantsWithOpenOrders(ctx)
	if err != nil {
		log.Printf("Shortfall scan: failed to list tenants: %v", err)
		return
	}

	for _, tenantID := range tenants {
		orders, err := js.orderRepo.ListOpen(ctx, tenantID)
		if err != nil {
			log.Printf("Shortfall scan: failed to list open orders for tenant %s: %v", tenantID.String(), err)
			continue
		}
		for _, order := range orders {
			view, err := js.requirementService.GetView(ctx, tenantID, order.ID, systemUserID, nil)
			if err != nil {
				log.Printf("Shortfall scan: failed to compute requirements for order %s: %v", order.ID.String(), err)
				continue
			}
			for _, req := range view.Components {
				if req.RealShortfall > 0 {
					log.Printf("ALERT: order %s component %s short by %s (apparent %s)",
						order.ID.String(), req.Code,
						common.FormatQuantity(req.RealShortfall),
						common.FormatQuantity(req.ApparentShortfall))
				}
			}
		}
	}
}

// warmRequirementViews precomputes the default requirement view for every
// open order so interactive reads hit the cache.
func (js *JobScheduler) warmRequirementViews(ctx context.Context) {
	tenants, err := js.orderRepo.ListTenantsWithOpenOrders(ctx)
	if err != nil {
		log.Printf("Cache warmup: failed to list tenants: %v", err)
		return
	}

	warmed := 0
	for _, tenantID := range tenants {
		orders, err := js.orderRepo.ListOpen(ctx, tenantID)
		if err != nil {
			log.Printf("Cache warmup: failed to list open orders for tenant %s: %v", tenantID.String(), err)
			continue
		}
		for _, order := range orders {
			if _, err := js.requirementService.GetView(ctx, tenantID, order.ID, systemUserID, nil); err != nil {
				log.Printf("Cache warmup: failed for order %s: %v", order.ID.String(), err)
				continue
			}
			warmed++
		}
	}
	log.Printf("Cache warmup: %d requirement views refreshed", warmed)
}
