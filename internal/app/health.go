package app

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/social-service/internal/service"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker pings the stores and reports the mail outbox backlog
type HealthChecker struct {
	infra  Infrastructure
	outbox *service.RedisOutbox
}

func NewHealthChecker(infra Infrastructure, outboxKey string) *HealthChecker {
	return &HealthChecker{
		infra:  infra,
		outbox: service.NewRedisOutbox(infra.Redis(), outboxKey),
	}
}

type healthReport struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks"`
	OutboxPending *int64            `json:"mail_outbox_pending,omitempty"`
}

func (h *HealthChecker) check(ctx context.Context) healthReport {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	pings := map[string]func(context.Context) error{
		"postgres": h.infra.Postgres().Ping,
		"redis":    h.infra.Redis().Ping,
	}

	report := healthReport{Status: "pass", Checks: make(map[string]string, len(pings))}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, ping := range pings {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := "pass"
			if err := ping(ctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			report.Checks[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, result := range report.Checks {
		if result != "pass" {
			report.Status = "fail"
		}
	}

	if report.Checks["redis"] == "pass" {
		if pending, err := h.outbox.Pending(ctx); err == nil {
			report.OutboxPending = &pending
		}
	}

	return report
}

func (h *HealthChecker) Handler(c *gin.Context) {
	report := h.check(c.Request.Context())
	if report.Status != "pass" {
		c.JSON(http.StatusServiceUnavailable, report)
		return
	}
	c.JSON(http.StatusOK, report)
}
