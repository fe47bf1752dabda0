package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
)

// RedisQueue publica jobs en listas redis (LPUSH) y los consume con BRPOP.
// Mismo esquema de colas "email" / "notification" que el worker espera.
//
// El lado productor pasa por un canal bufferizado drenado por una goroutine:
// si redis está caído o lento, el request que encoló no se entera.
type RedisQueue struct {
	client     *rdb.Client
	emailQueue string
	notifQueue string

	pending chan pendingJob
	done    chan struct{}
}

type pendingJob struct {
	queue string
	job   Job
}

type RedisConfig struct {
	Addr       string
	DB         int
	EmailQueue string
	NotifQueue string
	Buffer     int
}

func NewRedis(cfg RedisConfig) *RedisQueue {
	if cfg.EmailQueue == "" {
		cfg.EmailQueue = "email"
	}
	if cfg.NotifQueue == "" {
		cfg.NotifQueue = "notification"
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	return &RedisQueue{
		client:     rdb.NewClient(&rdb.Options{Addr: cfg.Addr, DB: cfg.DB}),
		emailQueue: cfg.EmailQueue,
		notifQueue: cfg.NotifQueue,
		pending:    make(chan pendingJob, cfg.Buffer),
		done:       make(chan struct{}),
	}
}

// Start drena el canal de pendientes hacia redis hasta que ctx se cancele.
// Debe correr en su propia goroutine (errgroup en main).
func (q *RedisQueue) Start(ctx context.Context) error {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p := <-q.pending:
			b, err := json.Marshal(p.job)
			if err != nil {
				logger.L().Error("queue: marshal job failed",
					logger.Queue(p.queue), logger.JobID(p.job.ID), logger.Err(err))
				continue
			}
			// Timeout corto: un redis colgado no debe frenar el dispatcher.
			pushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = q.client.LPush(pushCtx, p.queue, b).Err()
			cancel()
			if err != nil {
				logger.L().Error("queue: push failed, job dropped",
					logger.Queue(p.queue), logger.JobID(p.job.ID), logger.Err(err))
				continue
			}
			logger.L().Debug("queue: job pushed",
				logger.Queue(p.queue), logger.JobID(p.job.ID), logger.String("kind", p.job.Kind))
		}
	}
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func (q *RedisQueue) EnqueueEmail(ctx context.Context, job EmailJob) {
	q.enqueue(ctx, q.emailQueue, KindEmail, job)
}

func (q *RedisQueue) EnqueueNotifyUser(ctx context.Context, job NotifyUserJob) {
	q.enqueue(ctx, q.notifQueue, KindNotifyUser, job)
}

func (q *RedisQueue) EnqueueNotifyRole(ctx context.Context, job NotifyRoleJob) {
	q.enqueue(ctx, q.notifQueue, KindNotifyRole, job)
}

func (q *RedisQueue) enqueue(ctx context.Context, queueName, kind string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		logger.From(ctx).Error("queue: marshal payload failed",
			logger.Queue(queueName), logger.Err(err))
		return
	}
	job := Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    b,
		EnqueuedAt: time.Now().UTC(),
	}
	select {
	case q.pending <- pendingJob{queue: queueName, job: job}:
	default:
		// Buffer lleno: se descarta antes que bloquear el request.
		logger.From(ctx).Warn("queue: buffer full, job dropped",
			logger.Queue(queueName), logger.String("kind", kind))
	}
}

// Dequeue espera (BRPOP) el próximo job de la cola dada.
// Retorna (nil, nil) si venció el timeout sin jobs.
func (q *RedisQueue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*Job, error) {
	res, err := q.client.BRPop(ctx, timeout, queueName).Result()
	if err != nil {
		if errors.Is(err, rdb.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BRPOP retorna [key, value].
	if len(res) != 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		logger.From(ctx).Error("queue: malformed job discarded",
			logger.Queue(queueName), logger.Err(err))
		return nil, nil
	}
	return &job, nil
}

// EmailQueueName expone el nombre de la cola de emails (worker).
func (q *RedisQueue) EmailQueueName() string { return q.emailQueue }

// NotifQueueName expone el nombre de la cola de notificaciones.
func (q *RedisQueue) NotifQueueName() string { return q.notifQueue }
