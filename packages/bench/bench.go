// Package bench drives one request repeatedly through a client and
// summarizes latency and throughput.
package bench

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/awalters-dev/courier/packages/http"
)

// Options configures a benchmark run. Either a request budget or a duration
// must be set; when both are, the duration wins.
type Options struct {
	Requests    int           // total requests to send
	Concurrency int           // concurrent workers
	Rate        float64       // target requests per second, 0 means unlimited
	Duration    time.Duration // run for a fixed time instead of a fixed count
}

func (o *Options) Validate() error {
	if o.Requests <= 0 && o.Duration <= 0 {
		return fmt.Errorf("either requests or duration must be positive")
	}
	if o.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if o.Rate < 0 {
		return fmt.Errorf("rate cannot be negative")
	}
	return nil
}

// Runner repeatedly dispatches a request through a single client.
type Runner struct {
	client  *http.Client
	metrics *Metrics
}

func NewRunner(client *http.Client) *Runner {
	return &Runner{
		client:  client,
		metrics: NewMetrics(),
	}
}

// Run executes the benchmark. The request is cloned per dispatch so that
// interceptor mutations never leak between iterations or workers.
func (r *Runner) Run(ctx context.Context, req *http.Request, opts Options) (*Summary, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bench options: %w", err)
	}

	var limiter *rate.Limiter
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	jobs := make(chan struct{})
	var wg sync.WaitGroup

	r.metrics.Start()

	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return
					}
				}
				r.dispatch(cloneRequest(req))
			}
		}()
	}

feed:
	for sent := 0; opts.Duration > 0 || sent < opts.Requests; sent++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- struct{}{}:
		}
	}
	close(jobs)
	wg.Wait()

	r.metrics.Stop()
	return r.metrics.Summary(), nil
}

func (r *Runner) dispatch(req *http.Request) {
	start := time.Now()
	_, err := r.client.Execute(req)
	r.metrics.Record(time.Since(start), err)
}

func cloneRequest(req *http.Request) *http.Request {
	var clone *http.Request
	if body, ok := req.Body(); ok {
		switch req.Method() {
		case "PUT":
			clone = http.NewPutRequest(req.URL, body)
		case "PATCH":
			clone = http.NewPatchRequest(req.URL, body)
		default:
			clone = http.NewPostRequest(req.URL, body)
		}
	} else {
		switch req.Method() {
		case "HEAD":
			clone = http.NewHeadRequest(req.URL)
		case "OPTIONS":
			clone = http.NewOptionsRequest(req.URL)
		case "DELETE":
			clone = http.NewDeleteRequest(req.URL)
		default:
			clone = http.NewGetRequest(req.URL)
		}
	}
	clone.Headers = append([]http.Header(nil), req.Headers...)
	return clone
}
