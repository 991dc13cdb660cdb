package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tikscope/tikscope/cache"
	"github.com/tikscope/tikscope/models"
	"github.com/tikscope/tikscope/scraper"
	"github.com/tikscope/tikscope/webhook"
)

// batchConcurrency bounds how many profiles a batch scrapes in parallel.
// Each slot is a full browser process, so this stays small.
const batchConcurrency = 3

// batchStore holds all in-flight and completed batch jobs.
var batchStore sync.Map

// batchJob tracks one batch scrape. Worker goroutines report results while
// status polls read them, so every access to the mutable fields goes through
// the mutex; createdAt is written once at construction and read freely.
type batchJob struct {
	id        string
	total     int
	createdAt int64

	mu        sync.Mutex
	status    string // "processing", "completed", "partial", "failed"
	completed int
	failed    int
	results   []*models.ScrapeResponse
}

func newBatchJob(id string, total int) *batchJob {
	return &batchJob{
		id:        id,
		total:     total,
		createdAt: time.Now().Unix(),
		status:    "processing",
		results:   make([]*models.ScrapeResponse, total),
	}
}

// setResult records one finished profile.
func (j *batchJob) setResult(idx int, resp *models.ScrapeResponse) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results[idx] = resp
	j.completed++
	if !resp.Success {
		j.failed++
	}
}

// finish settles the terminal status and returns it along with the failure
// count for logging.
func (j *batchJob) finish() (status string, failed int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch {
	case j.failed == j.total:
		j.status = "failed"
	case j.failed > 0:
		j.status = "partial"
	default:
		j.status = "completed"
	}
	return j.status, j.failed
}

// snapshot returns a consistent point-in-time view of the job. The results
// slice is copied so callers never alias the slice workers write into.
func (j *batchJob) snapshot() models.BatchStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()
	results := make([]*models.ScrapeResponse, len(j.results))
	copy(results, j.results)
	return models.BatchStatusResponse{
		ID:        j.id,
		Status:    j.status,
		Completed: j.completed,
		Total:     j.total,
		Results:   results,
	}
}

func init() {
	// Background goroutine to expire batch jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			batchStore.Range(func(key, value any) bool {
				if value.(*batchJob).createdAt < cutoff {
					batchStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// PostBatch returns a handler for POST /api/v1/batch/scrape.
// It validates the request, creates a batch job, and scrapes the profiles
// concurrently in the background. When a webhook URL is given, a signed
// batch.completed event is delivered on finish.
func PostBatch(sc *scraper.Scraper, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		jobID := "batch-" + uuid.NewString()
		job := newBatchJob(jobID, len(req.Usernames))
		batchStore.Store(jobID, job)

		go runBatch(sc, cc, job, req)

		c.JSON(http.StatusOK, models.BatchResponse{
			ID:     jobID,
			Status: "processing",
			Total:  len(req.Usernames),
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		val, ok := batchStore.Load(jobID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "batch job not found",
				},
			})
			return
		}

		c.JSON(http.StatusOK, val.(*batchJob).snapshot())
	}
}

// runBatch scrapes all profiles in a job with bounded concurrency.
func runBatch(sc *scraper.Scraper, cc *cache.Cache, job *batchJob, req models.BatchRequest) {
	sem := make(chan struct{}, batchConcurrency)

	var wg sync.WaitGroup
	for i, username := range req.Usernames {
		wg.Add(1)
		go func(idx int, username string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			job.setResult(idx, scrapeOne(sc, cc, username))
		}(i, username)
	}
	wg.Wait()

	status, failed := job.finish()
	slog.Info("batch job finished",
		"id", job.id,
		"status", status,
		"succeeded", job.total-failed,
		"failed", failed,
		"total", job.total,
	)

	if req.WebhookURL != "" {
		webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, &webhook.Event{
			Type:      "batch.completed",
			JobID:     job.id,
			Timestamp: time.Now().Unix(),
			Data:      job.snapshot(),
		})
	}
}

// scrapeOne scrapes a single profile and packages the result, success or
// failure, as a response entry.
func scrapeOne(sc *scraper.Scraper, cc *cache.Cache, username string) *models.ScrapeResponse {
	totalStart := time.Now()

	snap, err := sc.ScrapeAccount(context.Background(), username)
	if err != nil {
		scrapeErr, ok := err.(*models.ScrapeError)
		if !ok {
			scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
		}
		return &models.ScrapeResponse{
			Success: false,
			Error:   scrapeErr.ToDetail(),
			Timing: models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			},
		}
	}

	if cc != nil {
		cc.Set(cache.Key(username), snap)
	}

	return &models.ScrapeResponse{
		Success:  true,
		Snapshot: snap,
		Timing: models.TimingInfo{
			TotalMs: time.Since(totalStart).Milliseconds(),
		},
	}
}
