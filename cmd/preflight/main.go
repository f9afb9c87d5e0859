// cmd/preflight/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hamed0406/statuscheck/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run validates the configuration and the local prerequisites of a run.
// It returns 1 when any check fails; warnings do not fail.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("preflight", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("STATUSCHECK_CONFIG"), "YAML config file (optional)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	failed := false
	fail := func(msg string) {
		fmt.Fprintln(stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err.Error())
		return 1
	}
	if err := cfg.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "; ") {
			fail(line)
		}
	} else {
		ok("configuration valid")
	}
	ok("backend " + cfg.Backend.URL)
	ok("frontend " + cfg.Frontend.URL)

	db := cfg.Database
	switch db.Driver {
	case "mysql":
		if db.User == "" {
			fail("DB_USER is empty")
		}
		if db.Password == "" {
			warn("DB_PASSWORD empty; mysql probes will connect without a password.")
		} else {
			ok("database credentials present")
		}
		if _, err := exec.LookPath("mysql"); err != nil {
			fail("mysql client not on PATH; database probes will fail.")
		} else {
			ok("mysql client found")
		}
	case "postgres":
		if db.URL == "" && db.User == "" {
			fail("DATABASE_URL and DB_USER are empty")
		} else {
			ok("postgres DSN present")
		}
	case "none":
		warn("database driver is none; the database category will be empty (0%).")
	}

	projects := []struct{ name, dir string }{
		{"BACKEND_PATH", cfg.Backend.Path},
		{"FRONTEND_PATH", cfg.Frontend.Path},
	}
	for _, p := range projects {
		if p.dir == "" {
			continue
		}
		if st, err := os.Stat(p.dir); err != nil || !st.IsDir() {
			warn(p.name + "=" + p.dir + " not found; project file probes will warn or fail.")
		} else {
			abs, _ := filepath.Abs(p.dir)
			ok(p.name + "=" + abs)
		}
	}

	if len(cfg.API.AdminKeys) == 0 {
		warn("ADMIN_API_KEYS is empty; POST /api/runs is open.")
	}
	if len(cfg.API.PublicKeys) == 0 && len(cfg.API.AdminKeys) == 0 {
		warn("no API keys; report routes are open.")
	}
	if len(cfg.API.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; browsers will be blocked by CORS for cross-origin requests.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.API.AllowedOrigins, ","))
	}
	if cfg.Alerts.SlackWebhookURL == "" {
		warn("SLACK_WEBHOOK_URL empty; alerts go to the log only.")
	}

	if failed {
		return 1
	}
	ok("preflight passed")
	return 0
}
