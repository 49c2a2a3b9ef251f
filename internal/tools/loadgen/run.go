package loadgen

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/product-catalog-api/internal/observability"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
}

type request struct {
	method string
	path   string
	body   string
}

const demoProductBody = `{"title":"Produto de carga","price":"19.90","category":"carga","colors":["preto"],"quantity":3,"sizes":["M"]}`

func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	profile := strings.ToLower(cfg.Profile)
	if profile == "" {
		profile = "mixed"
	}
	reqs := requestsForProfile(profile)
	if len(reqs) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x9e3779b97f4a7c15))

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var total, failures, s2xx, s4xx, s5xx atomic.Int64
	jobs := make(chan request, cfg.Concurrency*2)

	g, gctx := errgroup.WithContext(ctx)
	for range cfg.Concurrency {
		g.Go(func() error {
			for job := range jobs {
				status, err := send(gctx, client, cfg.BaseURL, job)
				if err != nil {
					failures.Add(1)
					continue
				}
				total.Add(1)
				class := statusClass(status)
				observability.RecordLoadgenRequest(gctx, class, profile)
				switch class {
				case "2xx":
					s2xx.Add(1)
				case "4xx":
					s4xx.Add(1)
				case "5xx":
					s5xx.Add(1)
				}
			}
			return nil
		})
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
produce:
	for {
		select {
		case <-ctx.Done():
			break produce
		case <-ticker.C:
			job := reqs[rng.IntN(len(reqs))]
			select {
			case jobs <- job:
			case <-ctx.Done():
				break produce
			}
		}
	}
	close(jobs)
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return Result{
		TotalRequests: total.Load(),
		Failures:      failures.Load(),
		Status2xx:     s2xx.Load(),
		Status4xx:     s4xx.Load(),
		Status5xx:     s5xx.Load(),
	}, nil
}

func send(ctx context.Context, client *http.Client, baseURL string, job request) (int, error) {
	var body io.Reader
	if job.body != "" {
		body = strings.NewReader(job.body)
	}
	req, err := http.NewRequestWithContext(ctx, job.method, baseURL+job.path, body)
	if err != nil {
		return 0, err
	}
	if job.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}

func requestsForProfile(profile string) []request {
	read := []request{
		{method: http.MethodGet, path: "/products"},
		{method: http.MethodGet, path: "/products/1"},
		{method: http.MethodGet, path: "/products/2"},
		{method: http.MethodGet, path: "/health/ready"},
	}
	switch profile {
	case "read":
		return read
	case "mixed":
		return append(read,
			request{method: http.MethodPost, path: "/products", body: demoProductBody},
			request{method: http.MethodPut, path: "/products/1", body: demoProductBody},
		)
	case "error-heavy":
		return []request{
			{method: http.MethodGet, path: "/products/abc"},
			{method: http.MethodGet, path: "/products/999999999"},
			{method: http.MethodPost, path: "/products", body: `{"title":"sem preço"}`},
			{method: http.MethodDelete, path: "/products/999999999"},
			{method: http.MethodPost, path: "/upload", body: `{}`},
		}
	default:
		return nil
	}
}
