package handler

import (
	"sync"
	"testing"

	"github.com/tikscope/tikscope/models"
)

// Concurrent result writes and status polls must not tear the job state.
// Run with -race to get the full value of this test.
func TestBatchJob_ConcurrentWritesAndPolls(t *testing.T) {
	const total = 24
	job := newBatchJob("batch-test", total)

	stop := make(chan struct{})
	var pollers sync.WaitGroup
	for p := 0; p < 4; p++ {
		pollers.Add(1)
		go func() {
			defer pollers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				st := job.snapshot()
				if st.Completed < 0 || st.Completed > st.Total {
					t.Errorf("completed = %d, want within [0, %d]", st.Completed, st.Total)
					return
				}
				if len(st.Results) != total {
					t.Errorf("results length = %d, want %d", len(st.Results), total)
					return
				}
			}
		}()
	}

	var writers sync.WaitGroup
	for i := 0; i < total; i++ {
		writers.Add(1)
		go func(idx int) {
			defer writers.Done()
			job.setResult(idx, &models.ScrapeResponse{Success: idx%2 == 0})
		}(i)
	}
	writers.Wait()
	close(stop)
	pollers.Wait()

	status, failed := job.finish()
	if status != "partial" {
		t.Errorf("status = %q, want %q", status, "partial")
	}
	if failed != total/2 {
		t.Errorf("failed = %d, want %d", failed, total/2)
	}

	st := job.snapshot()
	if st.Completed != total {
		t.Errorf("completed = %d, want %d", st.Completed, total)
	}
	for i, r := range st.Results {
		if r == nil {
			t.Fatalf("results[%d] is nil after all writers finished", i)
		}
	}
}

func TestBatchJob_StatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		successes []bool
		want      string
	}{
		{"all succeed", []bool{true, true, true}, "completed"},
		{"some fail", []bool{true, false, true}, "partial"},
		{"all fail", []bool{false, false}, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newBatchJob("batch-test", len(tt.successes))
			for i, ok := range tt.successes {
				job.setResult(i, &models.ScrapeResponse{Success: ok})
			}
			if status, _ := job.finish(); status != tt.want {
				t.Errorf("status = %q, want %q", status, tt.want)
			}
		})
	}
}

// snapshot hands out a copy; mutating it must not reach back into the job.
func TestBatchJob_SnapshotIsDetached(t *testing.T) {
	job := newBatchJob("batch-test", 2)
	job.setResult(0, &models.ScrapeResponse{Success: true})

	st := job.snapshot()
	st.Results[0] = nil
	st.Results[1] = &models.ScrapeResponse{Success: false}

	again := job.snapshot()
	if again.Results[0] == nil {
		t.Error("overwriting a snapshot result leaked into the job")
	}
	if again.Results[1] != nil {
		t.Error("writing an empty snapshot slot leaked into the job")
	}
}
