package queue

import (
	"context"

	"go-booking-api/core/logger"

	"github.com/hibiken/asynq"
)

const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) opt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

// Enqueuer is the producer side used by services.
type Enqueuer interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error
}

type Client struct {
	client *asynq.Client
}

func NewClient(cfg RedisConfig) *Client {
	return &Client{client: asynq.NewClient(cfg.opt())}
}

func (c *Client) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		logger.Error("Queue:Enqueue:Error", "type", task.Type(), "error", err)
		return err
	}
	logger.Info("Queue:Enqueue:Success", "type", task.Type(), "id", info.ID, "queue", info.Queue)
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

type Server struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

func NewServer(cfg RedisConfig, concurrency int) *Server {
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(cfg.opt(), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Error("Queue:Task:Error", "type", task.Type(), "retry", retried, "max_retry", maxRetry, "error", err)
		}),
	})
	return &Server{srv: srv, mux: asynq.NewServeMux()}
}

func (s *Server) HandleFunc(pattern string, fn func(context.Context, *asynq.Task) error) {
	s.mux.HandleFunc(pattern, fn)
}

// Start runs the worker pool in the background.
func (s *Server) Start() error {
	return s.srv.Start(s.mux)
}

func (s *Server) Shutdown() {
	s.srv.Shutdown()
}
