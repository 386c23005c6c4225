/*
Package jobqueue provides a River-based job queue for delivering operator
alerts. Reply sends stay synchronous inside the webhook delivery so thread
ordering is preserved; alert delivery has no ordering requirement, so it is
queued and retried out of band.

For configuration options and retry policies, see queue_config.go.
*/
package jobqueue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/replypilot/internal/alerts"
)

// AlertJobArgs represents the arguments for an operator alert delivery job
type AlertJobArgs struct {
	ThreadID  string    `json:"thread_id"`
	MessageID string    `json:"message_id"`
	From      string    `json:"from"`
	Template  string    `json:"template"`
	Reasons   []string  `json:"reasons"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Kind returns the job kind for River
func (AlertJobArgs) Kind() string {
	return "operator_alert"
}

// AlertWorker delivers operator alerts to the configured sink
type AlertWorker struct {
	river.WorkerDefaults[AlertJobArgs]
	sink   alerts.Sink
	config *QueueConfig
}

// Work delivers one queued alert
func (w *AlertWorker) Work(ctx context.Context, job *river.Job[AlertJobArgs]) error {
	args := job.Args

	log.Printf("Delivering operator alert for thread %s (message %s)", args.ThreadID, args.MessageID)

	ctx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	err := w.sink.Notify(ctx, alerts.Alert{
		ThreadID:  args.ThreadID,
		MessageID: args.MessageID,
		From:      args.From,
		Template:  args.Template,
		Reasons:   args.Reasons,
		Summary:   args.Summary,
		CreatedAt: args.CreatedAt,
	})
	if err != nil {
		log.Printf("Failed to deliver alert for thread %s: %v", args.ThreadID, err)
		return fmt.Errorf("failed to deliver alert: %w", err)
	}

	log.Printf("Alert delivered for thread %s", args.ThreadID)
	return nil
}

// JobQueue manages the River job queue
type JobQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	config *QueueConfig
}

// NewJobQueue creates a new job queue instance backed by Postgres
func NewJobQueue(databaseURL string, sink alerts.Sink) (*JobQueue, error) {
	config := GetQueueConfig()

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &AlertWorker{sink: sink, config: config})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:  config.RiverQueueConfig(),
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &JobQueue{
		client: client,
		pool:   pool,
		config: config,
	}, nil
}

// Start starts the job queue workers
func (jq *JobQueue) Start(ctx context.Context) error {
	return jq.client.Start(ctx)
}

// Stop stops the job queue workers
func (jq *JobQueue) Stop(ctx context.Context) error {
	err := jq.client.Stop(ctx)
	jq.pool.Close()
	return err
}

// QueueAlert queues an operator alert for delivery
func (jq *JobQueue) QueueAlert(ctx context.Context, alert alerts.Alert) error {
	args := AlertJobArgs{
		ThreadID:  alert.ThreadID,
		MessageID: alert.MessageID,
		From:      alert.From,
		Template:  alert.Template,
		Reasons:   alert.Reasons,
		Summary:   alert.Summary,
		CreatedAt: alert.CreatedAt,
	}

	_, err := jq.client.Insert(ctx, args, nil)
	if err != nil {
		return fmt.Errorf("failed to queue alert job: %w", err)
	}

	return nil
}
