package notification

import (
	"context"
	"log/slog"
	"sync"
)

// MailJob is one queued delivery.
type MailJob struct {
	To        string
	Subject   string
	Body      string
	ExpenseID string
}

type worker struct {
	id         int
	workerPool chan chan MailJob
	jobChannel chan MailJob
	logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan MailJob, logger *slog.Logger) *worker {
	return &worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan MailJob),
		logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, processFunc func(MailJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.workerPool <- w.jobChannel

			select {
			case job := <-w.jobChannel:
				w.logger.Debug("worker delivering mail", "worker_id", w.id, "recipient", job.To)
				processFunc(job)
			case <-ctx.Done():
				w.logger.Debug("mail worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

// DeliveryQueue fans queued mail out to a fixed pool of workers so a slow
// SMTP relay never blocks the event handlers feeding it.
type DeliveryQueue struct {
	mailer Mailer
	logger *slog.Logger

	jobQueue   chan MailJob
	workerPool chan chan MailJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

type QueueConfig struct {
	MaxWorkers   int
	JobQueueSize int
}

func NewDeliveryQueue(mailer Mailer, cfg QueueConfig, logger *slog.Logger) *DeliveryQueue {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	jobQueueSize := cfg.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	q := &DeliveryQueue{
		mailer:     mailer,
		logger:     logger,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan MailJob, jobQueueSize),
		workerPool: make(chan chan MailJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	q.startWorkerPool()
	return q
}

func (q *DeliveryQueue) startWorkerPool() {
	q.once.Do(func() {
		for i := 0; i < q.maxWorkers; i++ {
			w := newWorker(i, q.workerPool, q.logger)
			w.start(q.ctx, &q.wg, q.deliver)
		}

		go q.dispatch()

		q.logger.Info("mail delivery queue started",
			"max_workers", q.maxWorkers,
			"queue_size", cap(q.jobQueue))
	})
}

func (q *DeliveryQueue) dispatch() {
	q.wg.Add(1)
	defer q.wg.Done()

	for {
		select {
		case job := <-q.jobQueue:
			select {
			case jobChannel := <-q.workerPool:
				select {
				case jobChannel <- job:
				case <-q.ctx.Done():
					return
				}
			case <-q.ctx.Done():
				return
			}
		case <-q.ctx.Done():
			return
		}
	}
}

// Enqueue queues a delivery. When the queue is full the job is dropped and
// logged; notifications are best effort.
func (q *DeliveryQueue) Enqueue(job MailJob) {
	select {
	case q.jobQueue <- job:
	default:
		q.logger.Warn("mail queue full, dropping notification",
			"recipient", job.To, "expense_id", job.ExpenseID)
	}
}

func (q *DeliveryQueue) deliver(job MailJob) {
	ctx, cancel := context.WithTimeout(q.ctx, sendTimeout)
	defer cancel()

	if err := q.mailer.Send(ctx, job.To, job.Subject, job.Body); err != nil {
		q.logger.Error("notification delivery failed",
			"error", err, "recipient", job.To, "expense_id", job.ExpenseID)
		return
	}
	q.logger.Info("notification sent",
		"recipient", job.To, "subject", job.Subject, "expense_id", job.ExpenseID)
}

func (q *DeliveryQueue) Shutdown() {
	q.logger.Info("shutting down mail delivery queue")
	q.cancel()
	q.wg.Wait()
	q.logger.Info("mail delivery queue shutdown complete")
}
