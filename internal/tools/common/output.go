package common

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/sandeepkv93/product-catalog-api/internal/observability"
)

type CIResult struct {
	OK      bool     `json:"ok"`
	Title   string   `json:"title"`
	Details []string `json:"details,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func PrintCIResult(ok bool, title string, details []string, err error) {
	result := CIResult{OK: ok, Title: title, Details: details}
	if err != nil {
		result.Error = err.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}

// RecordRun reports a finished tool command to the tool metrics.
func RecordRun(ctx context.Context, tool, command string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordToolCommandRun(ctx, tool, command, outcome)
	observability.RecordToolCommandDuration(ctx, tool, command, outcome, time.Since(start))
}
