// Package battery builds the default category plans from configuration.
package battery

import (
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/statuscheck/internal/config"
	"github.com/hamed0406/statuscheck/internal/probe"
	"github.com/hamed0406/statuscheck/internal/runner"
)

const (
	Database    = "database"
	Backend     = "backend"
	Frontend    = "frontend"
	Integration = "integration"
)

// Categories lists the default categories in report order.
var Categories = []string{Database, Backend, Frontend, Integration}

type builder struct {
	cfg     config.Config
	timeout time.Duration
}

// Plans returns the plans for every category, custom probes included.
func Plans(cfg config.Config) []runner.Plan {
	b := builder{cfg: cfg, timeout: cfg.Probe.Timeout()}
	plans := []runner.Plan{
		{Category: Database, Steps: b.database()},
		{Category: Backend, Steps: b.backend()},
		{Category: Frontend, Steps: b.frontend()},
		{Category: Integration, Steps: b.integration()},
	}
	return appendCustom(plans, cfg.Probes, b.timeout)
}

func (b builder) step(name string, c probe.Checker, t probe.Target) runner.Step {
	if t.Timeout == 0 {
		t = t.WithTimeout(b.timeout)
	}
	return runner.Step{Name: name, Checker: c, Target: t}
}

func (b builder) database() []runner.Step {
	db := b.cfg.Database
	var steps []runner.Step
	switch db.Driver {
	case "mysql":
		mysql := &probe.CommandChecker{}
		if db.Password != "" {
			mysql.Env = []string{"MYSQL_PWD=" + db.Password}
		}
		base := []string{"-h", db.Host, "-P", strconv.Itoa(db.Port), "-u", db.User}
		query := func(args ...string) probe.Target {
			return probe.Cmd("mysql", append(append([]string(nil), base...), args...)...)
		}
		steps = append(steps,
			b.step("MySQL Connection", mysql, query("-e", "SELECT VERSION();")),
			b.step("Database Exists", mysql, query("-D", db.Name, "-e", "SELECT 1;")),
		)
		if len(db.EssentialTables) > 0 {
			steps = append(steps, b.step("Essential Tables", mysql.ExpectOutput(db.EssentialTables...), query("-D", db.Name, "-e", "SHOW TABLES;")))
		}
		steps = append(steps, b.step("Database Port", probe.NewTCPChecker(), probe.Addr(net.JoinHostPort(db.Host, strconv.Itoa(db.Port)))))
	case "postgres":
		dsn := probe.Addr(db.DSN())
		steps = append(steps,
			b.step("PostgreSQL Connection", probe.NewPostgresChecker(probe.PGPing), dsn),
			b.step("Database Query", probe.NewPostgresChecker(probe.PGQuery), dsn),
			b.step("Database Write", probe.NewPostgresChecker(probe.PGWrite), dsn),
		)
	}
	if db.RedisAddr != "" {
		steps = append(steps, b.step("Redis PING", probe.NewRedisChecker(), probe.Addr(db.RedisAddr)))
	}
	if db.SQLitePath != "" {
		steps = append(steps, b.step("SQLite Database", probe.NewSQLiteChecker(), probe.File(db.SQLitePath)))
	}
	return steps
}

func (b builder) backend() []runner.Step {
	be := b.cfg.Backend
	base := strings.TrimRight(be.URL, "/")
	steps := []runner.Step{
		b.step("Health Endpoint", probe.NewHTTPChecker(), probe.URL(base+"/health")),
		b.step("Actuator Health", probe.NewHTTPChecker(), probe.URL(base+"/actuator/health")),
		b.step("CORS Configuration", probe.NewHTTPChecker(
			probe.Header("Origin", b.cfg.Backend.CORSOrigin),
			probe.ExpectHeader("Access-Control-Allow-Origin"),
		), probe.URL(base+"/health").AsOptional()),
	}
	guarded := probe.NewHTTPChecker(probe.AcceptStatus(http.StatusOK, http.StatusUnauthorized, http.StatusForbidden))
	for _, r := range be.Routes {
		steps = append(steps, b.step("API Route "+r, guarded, probe.URL(base+r)))
	}
	if be.LoginPath != "" {
		login := probe.NewHTTPChecker(
			probe.Method(http.MethodPost),
			probe.JSONBody(`{"email":"statuscheck@example.com","password":"wrongpassword"}`),
			probe.AcceptStatus(http.StatusBadRequest, http.StatusUnauthorized),
		)
		steps = append(steps, b.step("Authentication Endpoint", login, probe.URL(base+be.LoginPath)))
	}
	if be.Path != "" {
		steps = append(steps, b.step("Backend Project", probe.NewFileChecker(), probe.File(filepath.Join(be.Path, "pom.xml")).AsOptional()))
	}
	return steps
}

func (b builder) frontend() []runner.Step {
	fe := b.cfg.Frontend
	backendHost := hostPort(b.cfg.Backend.URL)
	steps := []runner.Step{
		b.step("Frontend Server", probe.NewHTTPChecker(), probe.URL(fe.URL)),
		b.step("HTML Response", probe.NewHTTPChecker(probe.ExpectBody("<html", "<!DOCTYPE", "<!doctype")), probe.URL(fe.URL)),
	}
	if fe.Path != "" {
		steps = append(steps,
			b.step("API Configuration", probe.NewFileChecker(probe.Contains(backendHost)),
				probe.File(filepath.Join(fe.Path, "src", "config", "api.ts")).AsOptional()),
			b.step("Environment Config", probe.NewFileChecker(probe.Contains(strings.TrimRight(b.cfg.Backend.URL, "/"))),
				probe.File(filepath.Join(fe.Path, ".env.local")).AsOptional()),
			b.step("Core Dependencies", probe.NewFileChecker(probe.JSONKeys("dependencies.react", "dependencies.next")),
				probe.File(filepath.Join(fe.Path, "package.json"))),
			b.step("HTTP Client", probe.NewFileChecker(probe.JSONKeys("dependencies.axios")),
				probe.File(filepath.Join(fe.Path, "package.json")).AsOptional()),
		)
	}
	steps = append(steps, b.step("Node.js", probe.NewCommandChecker(), probe.Cmd("node", "--version").AsOptional()))
	return steps
}

func (b builder) integration() []runner.Step {
	be := strings.TrimRight(b.cfg.Backend.URL, "/")
	origin := b.cfg.Backend.CORSOrigin
	steps := []runner.Step{
		b.step("Backend-Database", probe.NewHTTPChecker(probe.ExpectJSONField("components.db.status", "UP")),
			probe.URL(be+"/actuator/health")),
		b.step("Frontend-Backend", probe.NewHTTPChecker(), probe.URL(be+"/health")),
		b.step("CORS Integration", probe.NewHTTPChecker(
			probe.Method(http.MethodOptions),
			probe.Header("Origin", origin),
			probe.Header("Access-Control-Request-Method", http.MethodGet),
			probe.AcceptStatus(http.StatusOK, http.StatusNoContent),
		), probe.URL(be+"/health")),
	}
	for _, raw := range []string{b.cfg.Frontend.URL, b.cfg.Backend.URL} {
		hp := hostPort(raw)
		if hp == "" {
			continue
		}
		_, port, _ := net.SplitHostPort(hp)
		steps = append(steps, b.step("Port "+port+" Availability", probe.NewTCPChecker(), probe.Addr(hp)))
	}
	steps = append(steps,
		b.step("Backend DNS", probe.NewDNSChecker(), probe.URL(b.cfg.Backend.URL).AsOptional()),
		b.step("Maven", probe.NewCommandChecker(), probe.Cmd("mvn", "--version").AsOptional()),
	)
	return steps
}

// appendCustom adds configured probes to their category, creating
// categories that do not exist yet.
func appendCustom(plans []runner.Plan, custom []config.CustomProbe, timeout time.Duration) []runner.Plan {
	for _, cp := range custom {
		step, ok := CustomStep(cp, timeout)
		if !ok {
			continue
		}
		i := indexOf(plans, cp.Category)
		if i < 0 {
			plans = append(plans, runner.Plan{Category: cp.Category})
			i = len(plans) - 1
		}
		plans[i].Steps = append(plans[i].Steps, step)
	}
	return plans
}

// CustomStep turns a configured probe into a step. Unknown kinds report false.
func CustomStep(cp config.CustomProbe, timeout time.Duration) (runner.Step, bool) {
	var (
		c probe.Checker
		t probe.Target
	)
	switch cp.Kind {
	case "http":
		var opts []probe.HTTPOption
		if len(cp.Accept) > 0 {
			opts = append(opts, probe.AcceptStatus(cp.Accept...))
		}
		if len(cp.Contains) > 0 {
			opts = append(opts, probe.ExpectBody(cp.Contains...))
		}
		c, t = probe.NewHTTPChecker(opts...), probe.URL(cp.Target)
	case "command":
		argv := cp.Command
		if len(argv) == 0 || argv[0] == "" {
			return runner.Step{}, false
		}
		cmd := probe.NewCommandChecker()
		if len(cp.Contains) > 0 {
			cmd = cmd.ExpectOutput(cp.Contains...)
		}
		c, t = cmd, probe.Cmd(argv[0], argv[1:]...)
	case "file":
		c, t = probe.NewFileChecker(probe.Contains(cp.Contains...)), probe.File(cp.Target)
	case "tcp":
		c, t = probe.NewTCPChecker(), probe.Addr(cp.Target)
	default:
		return runner.Step{}, false
	}
	t = t.WithTimeout(timeout)
	if cp.TimeoutMS > 0 {
		t = t.WithTimeout(cp.Timeout())
	}
	if cp.Optional {
		t = t.AsOptional()
	}
	return runner.Step{Name: cp.Name, Checker: c, Target: t}, true
}

func indexOf(plans []runner.Plan, category string) int {
	for i, p := range plans {
		if p.Category == category {
			return i
		}
	}
	return -1
}

// hostPort returns host:port for a URL, filling the scheme's default port.
func hostPort(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}
