// Command meemo-users answers identity questions against the configured
// backend: the LDAP directory when LDAP_URL is set, the local credential
// file otherwise.
//
//	meemo-users verify <username>    reads the password from stdin
//	meemo-users profile <identifier>
//	meemo-users list
//
// Results are printed as JSON. The exit code is 0 on success, 1 when the
// user is unknown or the credentials are wrong, and 2 on any other failure.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/hashicorp/terraform-plugin-log/tfsdklog"
	"github.com/joho/godotenv"

	"github.com/maniacs-satm/meemo/internal/config"
	"github.com/maniacs-satm/meemo/internal/otel"
	"github.com/maniacs-satm/meemo/internal/users"
)

const (
	exitOK       = 0
	exitNotFound = 1
	exitFailure  = 2
)

var errNotFound = errors.New("not found")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("meemo-users", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env-file", ".env", "optional dotenv file loaded before reading the environment")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: meemo-users [-env-file path] verify <username> | profile <identifier> | list")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}

	// A missing dotenv file is fine; the process environment still applies.
	_ = godotenv.Load(*envFile)

	ctx = newRootLogger(ctx)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	shutdown, err := otel.Setup(ctx, "meemo-users", cfg.OTELEndpoint)
	if err != nil {
		fmt.Fprintln(stderr, "tracing:", err)
		return exitFailure
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			tflog.Warn(ctx, "Failed to flush traces", map[string]any{"error": err.Error()})
		}
	}()

	provider, err := users.New(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	result, err := dispatch(ctx, provider, fs.Args(), stdin)
	switch {
	case errors.Is(err, errNotFound):
		fmt.Fprintln(stderr, err)
		return exitNotFound
	case err != nil:
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	return exitOK
}

func dispatch(ctx context.Context, provider users.Provider, args []string, stdin io.Reader) (any, error) {
	if len(args) == 0 {
		return nil, errors.New("missing command")
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "verify":
		if len(rest) != 1 {
			return nil, errors.New("usage: verify <username>")
		}
		password, err := readPassword(stdin)
		if err != nil {
			return nil, err
		}
		profile, err := provider.VerifyCredentials(ctx, rest[0], password)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, fmt.Errorf("invalid credentials: %w", errNotFound)
		}
		return profile, nil

	case "profile":
		if len(rest) != 1 {
			return nil, errors.New("usage: profile <identifier>")
		}
		profile, err := provider.ResolveProfile(ctx, rest[0])
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, fmt.Errorf("user %q: %w", rest[0], errNotFound)
		}
		return profile, nil

	case "list":
		if len(rest) != 0 {
			return nil, errors.New("usage: list")
		}
		return provider.ListUsers(ctx)

	default:
		return nil, fmt.Errorf("unknown command %q", cmd)
	}
}

// readPassword returns the first line of r without its line terminator.
func readPassword(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return "", nil
	}
	return strings.TrimSuffix(scanner.Text(), "\r"), nil
}

// newRootLogger writes JSON logs to stderr at the level named by MEEMO_LOG,
// warnings and above by default.
func newRootLogger(ctx context.Context) context.Context {
	level := hclog.LevelFromString(os.Getenv("MEEMO_LOG"))
	if level == hclog.NoLevel {
		level = hclog.Warn
	}

	ctx = tfsdklog.NewRootProviderLogger(ctx,
		tfsdklog.WithLogName("meemo"),
		tfsdklog.WithLevel(level),
		tfsdklog.WithStderrFromInit(),
		tfsdklog.WithoutLocation(),
	)
	return tflog.MaskFieldValuesWithFieldKeys(ctx, "password", "bind_password")
}
