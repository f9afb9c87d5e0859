// Command cli prints the latest report from a running statuscheck API, or
// triggers a fresh run with -run. The exit code follows the same 75% rule as
// the statuscheck command.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hamed0406/statuscheck/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://127.0.0.1:8090"
	}
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	base := fs.String("api", api, "statuscheck API base URL")
	key := fs.String("key", os.Getenv("STATUSCHECK_API_KEY"), "API key (admin key for -run)")
	trigger := fs.Bool("run", false, "run the battery now instead of reading the latest report")
	timeout := fs.Duration("timeout", 2*time.Minute, "request timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	method, path := http.MethodGet, "/api/report/latest"
	if *trigger {
		method, path = http.MethodPost, "/api/runs"
	}
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(*base, "/")+path, nil)
	if err != nil {
		fmt.Fprintln(stderr, "Invalid API URL:", err)
		return 2
	}
	if *key != "" {
		req.Header.Set("X-API-Key", *key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintln(stderr, "Error contacting API:", err)
		return 2
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		fmt.Fprintf(stderr, "API returned status: %s %s\n", resp.Status, strings.TrimSpace(string(body)))
		return 2
	}

	doc, err := report.Decode(resp.Body)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	rep := doc.Report()
	rep.RunID = resp.Header.Get("X-Run-ID")
	if err := report.RenderText(stdout, rep); err != nil {
		fmt.Fprintln(stderr, err)
	}
	return rep.ExitCode()
}
