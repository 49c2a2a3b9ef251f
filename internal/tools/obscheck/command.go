package obscheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/product-catalog-api/internal/tools/common"
	"github.com/sandeepkv93/product-catalog-api/internal/tools/loadgen"
	"github.com/sandeepkv93/product-catalog-api/internal/tools/ui"
)

var errNoExemplar = errors.New("no trace_id exemplar found")

type options struct {
	grafanaURL      string
	grafanaUser     string
	grafanaPassword string
	serviceName     string
	window          time.Duration
	settle          time.Duration
	ci              bool
	baseURL         string
	exemplarMetric  string

	prometheusDS string
	lokiDS       string
	tempoDS      string
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "obscheck", Short: "Verify metrics, traces and logs correlation for the catalog API"}
	f := cmd.PersistentFlags()
	f.StringVar(&opts.grafanaURL, "grafana-url", "http://localhost:3000", "Grafana base URL")
	f.StringVar(&opts.grafanaUser, "grafana-user", "admin", "Grafana username")
	f.StringVar(&opts.grafanaPassword, "grafana-password", "admin", "Grafana password")
	f.StringVar(&opts.serviceName, "service-name", "product-catalog-api", "OTel service name")
	f.StringVar(&opts.exemplarMetric, "exemplar-metric", "product_operation_duration_seconds_bucket", "histogram queried for trace exemplars")
	f.StringVar(&opts.prometheusDS, "prometheus-datasource", "1", "Grafana datasource id for Prometheus")
	f.StringVar(&opts.lokiDS, "loki-datasource", "2", "Grafana datasource id for Loki")
	f.StringVar(&opts.tempoDS, "tempo-datasource", "3", "Grafana datasource id for Tempo")
	f.DurationVar(&opts.window, "window", 20*time.Minute, "query lookback window")
	f.DurationVar(&opts.settle, "settle", 30*time.Second, "how long to wait for exported telemetry to become queryable")
	f.BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	f.StringVar(&opts.baseURL, "base-url", "http://localhost:8000", "API base URL for traffic")
	cmd.AddCommand(newRunCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate catalog traffic and validate the exemplar to trace to log path",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			details, err := run(opts, "obscheck run", func(ctx context.Context) ([]string, error) {
				return check(ctx, *opts)
			})
			common.RecordRun(cmd.Context(), "obscheck", "run", start, err)
			if opts.ci {
				common.PrintCIResult(err == nil, "obscheck run", details, err)
			}
			if err != nil {
				os.Exit(4)
			}
			return nil
		},
	}
}

func check(ctx context.Context, opts options) ([]string, error) {
	lgRes, err := loadgen.Run(ctx, loadgen.Config{
		BaseURL:     opts.baseURL,
		Profile:     "mixed",
		Duration:    6 * time.Second,
		RPS:         20,
		Concurrency: 6,
		Seed:        42,
	})
	if err != nil {
		return nil, err
	}
	details := []string{
		fmt.Sprintf("traffic_total=%d", lgRes.TotalRequests),
		fmt.Sprintf("traffic_failures=%d", lgRes.Failures),
	}

	var traceID string
	err = poll(ctx, opts.settle, 2*time.Second, func() error {
		var err error
		traceID, err = fetchTraceIDFromExemplar(ctx, opts)
		return err
	})
	if err != nil {
		return details, err
	}
	details = append(details, "exemplar_trace_id="+traceID)

	var spans traceSummary
	err = poll(ctx, opts.settle, 2*time.Second, func() error {
		var err error
		spans, err = verifyTempoTrace(ctx, opts, traceID)
		return err
	})
	if err != nil {
		return details, err
	}
	details = append(details,
		fmt.Sprintf("tempo_spans=%d", spans.Total),
		fmt.Sprintf("tempo_catalog_spans=%d", spans.Catalog),
	)

	if err := poll(ctx, opts.settle, 2*time.Second, func() error {
		return verifyLokiTraceLogs(ctx, opts, traceID)
	}); err != nil {
		return details, err
	}
	details = append(details, "loki_correlation=ok")
	return details, nil
}

// poll retries fn every interval until it succeeds, budget runs out or ctx
// ends. The last error from fn is returned.
func poll(ctx context.Context, budget, interval time.Duration, fn func() error) error {
	deadline := time.Now().Add(budget)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-ticker.C:
		}
	}
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run(title, 3*time.Minute, fn)
}

func grafanaGET(ctx context.Context, opts options, path string, query url.Values) ([]byte, error) {
	u, err := url.Parse(opts.grafanaURL)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(opts.grafanaUser, opts.grafanaPassword)
	resp, err := (&http.Client{Timeout: 20 * time.Second}).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("grafana request %s failed: %s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func datasourcePath(id, rest string) string {
	return "/api/datasources/proxy/" + id + rest
}

type exemplarResponse struct {
	Data []struct {
		Exemplars []struct {
			Labels map[string]string `json:"labels"`
		} `json:"exemplars"`
	} `json:"data"`
}

func fetchTraceIDFromExemplar(ctx context.Context, opts options) (string, error) {
	now := time.Now()
	body, err := grafanaGET(ctx, opts, datasourcePath(opts.prometheusDS, "/api/v1/query_exemplars"), url.Values{
		"query": {opts.exemplarMetric},
		"start": {fmt.Sprint(now.Add(-opts.window).Unix())},
		"end":   {fmt.Sprint(now.Unix())},
	})
	if err != nil {
		return "", err
	}
	var payload exemplarResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode exemplars: %w", err)
	}
	for _, series := range payload.Data {
		for _, e := range series.Exemplars {
			if tid := e.Labels["trace_id"]; len(tid) == 32 {
				return tid, nil
			}
		}
	}
	return "", errNoExemplar
}

type tempoTrace struct {
	Batches []struct {
		ScopeSpans []struct {
			Spans []struct {
				Name string `json:"name"`
			} `json:"spans"`
		} `json:"scopeSpans"`
	} `json:"batches"`
}

type traceSummary struct {
	Total   int
	Catalog int
}

// verifyTempoTrace requires the trace to exist and counts the spans opened by
// the product and media layers.
func verifyTempoTrace(ctx context.Context, opts options, traceID string) (traceSummary, error) {
	body, err := grafanaGET(ctx, opts, datasourcePath(opts.tempoDS, "/api/traces/"+traceID), nil)
	if err != nil {
		return traceSummary{}, err
	}
	var payload tempoTrace
	if err := json.Unmarshal(body, &payload); err != nil {
		return traceSummary{}, fmt.Errorf("decode tempo trace: %w", err)
	}
	if len(payload.Batches) == 0 {
		return traceSummary{}, fmt.Errorf("tempo trace %s has no batches", traceID)
	}
	var sum traceSummary
	for _, b := range payload.Batches {
		for _, ss := range b.ScopeSpans {
			for _, s := range ss.Spans {
				sum.Total++
				if strings.HasPrefix(s.Name, "product.") || strings.HasPrefix(s.Name, "media.") {
					sum.Catalog++
				}
			}
		}
	}
	return sum, nil
}

type lokiResponse struct {
	Data struct {
		Result []json.RawMessage `json:"result"`
	} `json:"data"`
}

// verifyLokiTraceLogs matches the bare trace id so it finds both JSON stdout
// lines and records exported through the OTel log bridge.
func verifyLokiTraceLogs(ctx context.Context, opts options, traceID string) error {
	now := time.Now()
	body, err := grafanaGET(ctx, opts, datasourcePath(opts.lokiDS, "/loki/api/v1/query_range"), url.Values{
		"query":     {fmt.Sprintf("{service_name=%q} |= %q", opts.serviceName, traceID)},
		"start":     {fmt.Sprint(now.Add(-opts.window).UnixNano())},
		"end":       {fmt.Sprint(now.UnixNano())},
		"limit":     {"1"},
		"direction": {"backward"},
	})
	if err != nil {
		return err
	}
	var payload lokiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode loki result: %w", err)
	}
	if len(payload.Data.Result) == 0 {
		return fmt.Errorf("no correlated loki logs found for trace_id %s", traceID)
	}
	return nil
}
