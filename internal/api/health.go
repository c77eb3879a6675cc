package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/ad-insights/internal/pkg/httputil"
)

// HealthStatus represents the overall health of the system.
type HealthStatus struct {
	Status  string                    `json:"status"` // "healthy", "degraded", "unhealthy"
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "degraded"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// BucketHeader is satisfied by *s3.Client.
type BucketHeader interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// QueueStats is satisfied by *worker.Pool.
type QueueStats interface {
	QueueDepth() int
	Capacity() int
}

// HealthChecker reports on the database, Redis, the creative bucket and
// the background worker queue. Any dependency may be nil.
type HealthChecker struct {
	db        Pinger
	redis     redis.UniversalClient
	s3        BucketHeader
	bucket    string
	workers   QueueStats
	version   string
	startTime time.Time
}

// NewHealthChecker creates a HealthChecker.
func NewHealthChecker(db Pinger, rdb redis.UniversalClient, s3c BucketHeader, bucket string, workers QueueStats, version string) *HealthChecker {
	return &HealthChecker{
		db:        db,
		redis:     rdb,
		s3:        s3c,
		bucket:    bucket,
		workers:   workers,
		version:   version,
		startTime: time.Now(),
	}
}

// HandleHealth always answers 200; the body carries the verdict.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())
	httputil.OK(w, HealthStatus{
		Status:  determineOverallStatus(checks),
		Version: hc.version,
		Uptime:  formatUptime(time.Since(hc.startTime)),
		Checks:  checks,
	})
}

//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.startTime)),
	})
}

// HandleReadiness answers 503 while a critical dependency is down.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())
	overall := determineOverallStatus(checks)

	ready := overall != "unhealthy"
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	httputil.JSON(w, status, map[string]any{
		"ready":  ready,
		"status": overall,
		"checks": checks,
	})
}

func (hc *HealthChecker) runAllChecks(ctx context.Context) map[string]ComponentCheck {
	type result struct {
		name  string
		check ComponentCheck
	}
	ch := make(chan result, 4)

	go func() { ch <- result{"database", hc.checkDatabase(ctx)} }()
	go func() { ch <- result{"redis", hc.checkRedis(ctx)} }()
	go func() { ch <- result{"s3", hc.checkS3(ctx)} }()
	go func() { ch <- result{"workers", hc.checkWorkers()} }()

	checks := make(map[string]ComponentCheck, 4)
	for i := 0; i < 4; i++ {
		r := <-ch
		checks[r.name] = r.check
	}
	return checks
}

func timedCheck(latency time.Duration, err error, slow time.Duration, failPrefix string) ComponentCheck {
	if err != nil {
		return ComponentCheck{
			Status:  "down",
			Latency: latency.String(),
			Message: fmt.Sprintf("%s: %v", failPrefix, err),
		}
	}
	if latency > slow {
		return ComponentCheck{
			Status:  "degraded",
			Latency: latency.String(),
			Message: fmt.Sprintf("slow response (%s)", latency),
		}
	}
	return ComponentCheck{Status: "up", Latency: latency.String(), Message: "connected"}
}

func (hc *HealthChecker) checkDatabase(ctx context.Context) ComponentCheck {
	if hc.db == nil {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.db.PingContext(ctx)
	return timedCheck(time.Since(start), err, time.Second, "ping failed")
}

func (hc *HealthChecker) checkRedis(ctx context.Context) ComponentCheck {
	if hc.redis == nil {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.redis.Ping(ctx).Err()
	return timedCheck(time.Since(start), err, 500*time.Millisecond, "ping failed")
}

func (hc *HealthChecker) checkS3(ctx context.Context) ComponentCheck {
	if hc.s3 == nil || hc.bucket == "" {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	_, err := hc.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &hc.bucket})
	c := timedCheck(time.Since(start), err, 2*time.Second, "HeadBucket failed")
	if c.Status == "up" {
		c.Message = fmt.Sprintf("bucket %q accessible", hc.bucket)
	}
	return c
}

// checkWorkers degrades once the queue is more than 80% full.
func (hc *HealthChecker) checkWorkers() ComponentCheck {
	if hc.workers == nil {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}
	depth, capacity := hc.workers.QueueDepth(), hc.workers.Capacity()
	if capacity > 0 && depth*5 > capacity*4 {
		return ComponentCheck{Status: "degraded", Message: fmt.Sprintf("high queue depth: %d/%d tasks queued", depth, capacity)}
	}
	return ComponentCheck{Status: "up", Message: fmt.Sprintf("%d/%d tasks queued", depth, capacity)}
}

// determineOverallStatus is "unhealthy" when a configured database is
// down, "degraded" when anything else is off, "healthy" otherwise.
func determineOverallStatus(checks map[string]ComponentCheck) string {
	if db, ok := checks["database"]; ok && db.Status == "down" && db.Message != "not configured" {
		return "unhealthy"
	}
	for _, c := range checks {
		if c.Status == "degraded" || (c.Status == "down" && c.Message != "not configured") {
			return "degraded"
		}
	}
	return "healthy"
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
