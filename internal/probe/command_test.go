package probe

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/statuscheck/internal/domain"
)

// TestHelperProcess is not a real test; the command tests re-exec the test
// binary into it.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("STATUSCHECK_HELPER") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}
	switch args[1] {
	case "echo":
		fmt.Println(strings.Join(args[2:], " "))
		os.Exit(0)
	case "env":
		fmt.Println(os.Getenv(args[2]))
		os.Exit(0)
	case "exit":
		code, _ := strconv.Atoi(args[2])
		fmt.Fprintln(os.Stderr, "failing on purpose")
		os.Exit(code)
	case "spam":
		fmt.Print(strings.Repeat("x", 1000))
		os.Exit(1)
	case "sleep":
		time.Sleep(5 * time.Second)
		os.Exit(0)
	}
	os.Exit(2)
}

func helper(args ...string) Target {
	return Cmd(os.Args[0], append([]string{"-test.run=TestHelperProcess", "--"}, args...)...)
}

func helperChecker() *CommandChecker {
	return &CommandChecker{Env: []string{"STATUSCHECK_HELPER=1"}}
}

func TestCommandChecker_ExitZero(t *testing.T) {
	out := helperChecker().Check(context.Background(), helper("echo", "mysql", "Ver", "8.0"))
	if out.Status != domain.StatusSuccess || out.StatusText != "EXIT 0" {
		t.Fatalf("want success, got %+v", out)
	}
	if !strings.Contains(out.Detail, "mysql Ver 8.0") {
		t.Fatalf("detail should carry output, got %q", out.Detail)
	}
}

func TestCommandChecker_NonZeroExit(t *testing.T) {
	out := helperChecker().Check(context.Background(), helper("exit", "3"))
	if out.Status != domain.StatusFailure || out.Code != 3 || out.StatusText != "EXIT 3" {
		t.Fatalf("want EXIT 3 failure, got %+v", out)
	}
	if !strings.Contains(out.Detail, "failing on purpose") {
		t.Fatalf("stderr should be captured, got %q", out.Detail)
	}
}

func TestCommandChecker_TruncatesOutput(t *testing.T) {
	out := helperChecker().Check(context.Background(), helper("spam"))
	if n := len([]rune(out.Detail)); n > MaxOutput+3 {
		t.Fatalf("detail not truncated: %d chars", n)
	}
}

func TestCommandChecker_Timeout(t *testing.T) {
	start := time.Now()
	out := helperChecker().Check(context.Background(), helper("sleep").WithTimeout(100*time.Millisecond))
	if !out.TimedOut() || out.Status != domain.StatusFailure {
		t.Fatalf("want TIMEOUT, got %+v", out)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("timeout not enforced, took %v", time.Since(start))
	}
}

func TestCommandChecker_MissingExecutable(t *testing.T) {
	out := NewCommandChecker().Check(context.Background(), Cmd("statuscheck-no-such-binary-xyz", "--version"))
	if out.Status != domain.StatusFailure || out.StatusText != domain.TextError {
		t.Fatalf("want ERROR, got %+v", out)
	}
}

func TestCommandChecker_EnvAndExpectOutput(t *testing.T) {
	c := &CommandChecker{Env: []string{"STATUSCHECK_HELPER=1", "MYSQL_PWD=s3cret"}}
	out := c.Check(context.Background(), helper("env", "MYSQL_PWD"))
	if out.Status != domain.StatusSuccess || !strings.Contains(out.Detail, "s3cret") {
		t.Fatalf("env not passed: %+v", out)
	}

	tables := helperChecker().ExpectOutput("user", "vendors")
	if out := tables.Check(context.Background(), helper("echo", "user", "vendors", "admins")); out.Status != domain.StatusSuccess {
		t.Fatalf("want success, got %+v", out)
	}
	out = tables.Check(context.Background(), helper("echo", "user"))
	if out.Status != domain.StatusFailure || !strings.Contains(out.Detail, "vendors") {
		t.Fatalf("want missing vendors, got %+v", out)
	}
}

func TestCmd_CopiesArguments(t *testing.T) {
	args := []string{"-u", "root"}
	tg := Cmd("mysql", args...)
	args[0] = "-p"
	if tg.Command[1] != "-u" {
		t.Fatalf("target shares caller slice: %v", tg.Command)
	}
}
