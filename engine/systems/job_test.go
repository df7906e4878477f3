package systems

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewJobSystemValidation(t *testing.T) {
	if _, err := NewJobSystem(0, 8); !errors.Is(err, ErrNoWorkers) {
		t.Fatalf("NewJobSystem(0, 8) err = %v, want ErrNoWorkers", err)
	}
	if _, err := NewJobSystem(1, -1); !errors.Is(err, ErrNegativeChannelSize) {
		t.Fatalf("NewJobSystem(1, -1) err = %v, want ErrNegativeChannelSize", err)
	}
}

func TestJobSystemRunsSubmittedTask(t *testing.T) {
	js, err := NewJobSystem(1, 4)
	if err != nil {
		t.Fatalf("NewJobSystem: %v", err)
	}
	defer js.Shutdown()

	done := make(chan string, 1)
	js.Submit(JobTask{
		JobType:     JOB_TYPE_GENERAL,
		Priority:    JOB_PRIORITY_NORMAL,
		InputParams: []interface{}{"payload"},
		OnStart: func(params interface{}, resultChan chan<- interface{}) error {
			inputs := params.([]interface{})
			resultChan <- inputs[0]
			return nil
		},
		OnComplete: func(paramsChan <-chan interface{}) {
			if result, ok := <-paramsChan; ok {
				done <- result.(string)
			}
		},
	})

	select {
	case got := <-done:
		if got != "payload" {
			t.Fatalf("OnComplete received %q, want %q", got, "payload")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job did not complete in time")
	}
}

func TestJobSystemFailurePath(t *testing.T) {
	js, err := NewJobSystem(1, 4)
	if err != nil {
		t.Fatalf("NewJobSystem: %v", err)
	}
	defer js.Shutdown()

	var completed, failed atomic.Int32
	callback := make(chan struct{}, 1)
	js.Submit(JobTask{
		JobType:  JOB_TYPE_GENERAL,
		Priority: JOB_PRIORITY_NORMAL,
		OnStart: func(params interface{}, resultChan chan<- interface{}) error {
			resultChan <- "broken"
			return errors.New("boom")
		},
		OnComplete: func(paramsChan <-chan interface{}) {
			completed.Add(1)
		},
		OnFailure: func(paramsChan <-chan interface{}) {
			if _, ok := <-paramsChan; ok {
				failed.Add(1)
			}
		},
		OnCompletionCallback: func() {
			callback <- struct{}{}
		},
	})

	select {
	case <-callback:
	case <-time.After(2 * time.Second):
		t.Fatal("completion callback never ran")
	}
	if got := completed.Load(); got != 0 {
		t.Errorf("OnComplete ran %d times for a failed job", got)
	}
	if got := failed.Load(); got != 1 {
		t.Errorf("OnFailure ran %d times, want 1", got)
	}
}

func TestJobSystemShutdownDrainsQueue(t *testing.T) {
	js, err := NewJobSystem(2, 32)
	if err != nil {
		t.Fatalf("NewJobSystem: %v", err)
	}

	var ran atomic.Int32
	const jobs = 16
	for i := 0; i < jobs; i++ {
		js.Submit(JobTask{
			JobType:  JOB_TYPE_GENERAL,
			Priority: JOB_PRIORITY_NORMAL,
			OnStart: func(params interface{}, resultChan chan<- interface{}) error {
				ran.Add(1)
				return nil
			},
		})
	}

	if err := js.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := ran.Load(); got != jobs {
		t.Fatalf("ran %d jobs before shutdown returned, want %d", got, jobs)
	}
}

func TestJobSystemAddWorkNonBlocking(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	if err != nil {
		t.Fatalf("NewJobSystem: %v", err)
	}

	done := make(chan struct{})
	js.AddWorkNonBlocking(JobTask{
		JobType:  JOB_TYPE_GENERAL,
		Priority: JOB_PRIORITY_NORMAL,
		OnStart: func(params interface{}, resultChan chan<- interface{}) error {
			return nil
		},
		OnCompletionCallback: func() {
			close(done)
		},
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job submitted via AddWorkNonBlocking never ran")
	}
	if err := js.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
