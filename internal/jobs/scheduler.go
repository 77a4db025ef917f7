package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"invoicegen/internal/repositories"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages background jobs
type JobScheduler struct {
	scheduler   gocron.Scheduler
	invoiceRepo repositories.InvoiceRepository
	jobs        map[string]gocron.Job
	mu          sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(invoiceRepo repositories.InvoiceRepository) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:   scheduler,
		invoiceRepo: invoiceRepo,
		jobs:        make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	overdueJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.sweepOverdueInvoices, context.Background()),
		gocron.WithName("overdue-invoice-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create overdue sweep job: %v", err)
	} else {
		js.jobs["overdue-sweep"] = overdueJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// sweepOverdueInvoices moves past-due draft and sent invoices to
// overdue.
func (js *JobScheduler) sweepOverdueInvoices(ctx context.Context) error {
	log.Printf("Starting overdue invoice sweep")

	updated, err := js.invoiceRepo.MarkOverdue(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Overdue invoice sweep failed: %v", err)
		return err
	}

	log.Printf("Overdue invoice sweep completed, %d invoices marked overdue", updated)
	return nil
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}

	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       names,
	}
}
