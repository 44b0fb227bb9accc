package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"

	"gymhub/internal/logger"
	"gymhub/internal/metrics"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
	popTimeout     = 2 * time.Second
)

type EmailJob struct {
	Kind    string    `json:"kind"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Config struct {
	From     string
	FromName string
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
}

type Service struct {
	redis      *redis.Client
	cfg        Config
	deliver    func(EmailJob) error
	retryDelay time.Duration
}

func New(cfg Config, redisAddr string) *Service {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: redisAddr}), cfg)
}

func NewWithClient(rdb *redis.Client, cfg Config) *Service {
	s := &Service{redis: rdb, cfg: cfg, retryDelay: 5 * time.Second}
	s.deliver = s.sendNow
	return s
}

// Send queues a plain message.
func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	return s.enqueue(ctx, "generic", to, name, subject, body)
}

func (s *Service) enqueue(ctx context.Context, kind, to, name, subject, body string) error {
	job := EmailJob{
		Kind:    kind,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		metrics.RecordEmail(kind, "queue_failed")
		logger.Error("failed to queue email", "to", to, "kind", kind, "error", err)
		return err
	}

	metrics.RecordEmail(kind, "queued")
	logger.Debug("email queued", "to", to, "kind", kind)
	return nil
}

// Start drains the queue until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, popTimeout, queueKey).Result()
	if err != nil {
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("bad email payload", "error", err)
		return
	}

	job.Tries++
	if err := s.deliver(job); err != nil {
		logger.Warn("email delivery failed", "to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			if s.retryDelay > 0 {
				time.Sleep(s.retryDelay)
			}
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, string(data))
			return
		}

		metrics.RecordEmail(job.Kind, "failed")
		s.saveFailed(job, err)
		return
	}

	metrics.RecordEmail(job.Kind, "sent")
	logger.Info("email sent", "to", job.To, "kind", job.Kind)
}

func (s *Service) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" && s.cfg.SMTPPass != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort
	return smtp.SendMail(addr, auth, s.cfg.From, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, string(data))
	logger.Error("email moved to failed queue", "to", job.To, "kind", job.Kind)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
