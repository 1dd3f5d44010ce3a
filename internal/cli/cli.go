// Package cli реализует команды nexusctl: вход, выход и чтение данных
// портала от имени сохраненной сессии.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"

	"nexusglobal/internal/apiclient"
	"nexusglobal/internal/nexus"
	"nexusglobal/internal/session"
	"nexusglobal/pkg/logger"
)

// HintLogin печатается, когда сессия больше не действует.
const HintLogin = "session expired or missing, run `nexusctl login` to sign in again"

const (
	sessionDir  = ".nexusctl"
	sessionFile = "session.json"
)

// Options - глобальные флаги и команды nexusctl.
type Options struct {
	APIURL      string        `long:"api-url" env:"NEXUS_API_PUBLIC_URL" description:"NEXUS API base URL"`
	SessionFile string        `long:"session-file" env:"NEXUSCTL_SESSION_FILE" description:"session file (default ~/.nexusctl/session.json)"`
	Timeout     time.Duration `long:"timeout" env:"NEXUS_API_TIMEOUT" default:"30s" description:"timeout of a single API call"`
	RefreshSkew time.Duration `long:"refresh-skew" env:"NEXUS_API_REFRESH_SKEW" default:"60s" description:"refresh the access token this long before it expires"`
	Verbose     bool          `short:"v" long:"verbose" description:"debug logging to stderr"`

	Login       LoginCmd       `command:"login" description:"Sign in and store the session"`
	Logout      LogoutCmd      `command:"logout" description:"Revoke and remove the stored session"`
	Whoami      WhoamiCmd      `command:"whoami" description:"Show the signed in user"`
	Team        TeamCmd        `command:"team" description:"Search the partner tree"`
	Points      PointsCmd      `command:"points" description:"Show points and rank progress"`
	Withdrawals WithdrawalsCmd `command:"withdrawals" description:"List or request withdrawals"`
	Payments    PaymentsCmd    `command:"payments" description:"List payments or submit one with vouchers"`
}

// App - состояние одного запуска nexusctl.
type App struct {
	ctx    context.Context
	opts   *Options
	stdin  *os.File
	out    io.Writer
	errOut io.Writer

	source *session.ClientSource
	base   *apiclient.Client
	api    *nexus.API
}

func newOptions(app *App) *Options {
	opts := &Options{}
	opts.Login.app = app
	opts.Logout.app = app
	opts.Whoami.app = app
	opts.Team.app = app
	opts.Points.app = app
	opts.Withdrawals.app = app
	opts.Payments.List.app = app
	opts.Payments.Create.app = app
	return opts
}

// Run разбирает аргументы, выполняет команду и возвращает код выхода.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := &App{ctx: ctx, stdin: os.Stdin, out: stdout, errOut: stderr}
	app.opts = newOptions(app)

	parser := flags.NewParser(app.opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "nexusctl"
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		if err := app.setup(); err != nil {
			return err
		}
		return cmd.Execute(args)
	}

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, flagsErr.Message)
			return 0
		}
		fmt.Fprintf(stderr, "nexusctl: %s\n", describe(err))
		if needsLogin(err) {
			fmt.Fprintln(stderr, HintLogin)
		}
		return 1
	}
	return 0
}

// setup создает клиент и источник токенов после разбора глобальных флагов.
func (a *App) setup() error {
	level := "error"
	if a.opts.Verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(logger.Development, level)
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(log)
	a.ctx = logger.NewRequestIDContext(a.ctx, "")

	base, err := apiclient.New(apiclient.Config{
		Context: apiclient.Browser,
		BaseURL: a.opts.APIURL,
		Timeout: a.opts.Timeout,
	})
	if err != nil {
		return err
	}

	path := a.opts.SessionFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, sessionDir, sessionFile)
	}

	policy := session.NewPolicy(session.NewAPIRefresher(base), session.WithSkew(a.opts.RefreshSkew))
	a.source = session.NewClientSource(policy, session.NewFileStore(path),
		session.WithSignOut(func(context.Context) {
			fmt.Fprintln(a.errOut, HintLogin)
		}))
	a.base = base
	a.api = nexus.New(base.WithTokens(a.source))
	return nil
}

// restore загружает сохраненную сессию.
func (a *App) restore() (*session.Session, error) {
	return a.source.Restore(a.ctx, "")
}

func describe(err error) string {
	if apiErr, ok := apiclient.AsError(err); ok && len(apiErr.Message) > 0 {
		return apiErr.Message.String()
	}
	return err.Error()
}

// needsLogin сообщает, что продолжить можно только после нового входа.
// Ответ 401 сюда не относится: подсказку печатает хук выхода.
func needsLogin(err error) bool {
	return errors.Is(err, session.ErrNoSession) ||
		errors.Is(err, session.ErrRefreshAccessToken) ||
		errors.Is(err, session.ErrInvalidToken)
}
