package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"kasbi-client/internal/bootstrap"
	"kasbi-client/internal/config"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/pkg/logger"
	"kasbi-client/internal/route"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// app is the per-invocation state shared by all commands.
type app struct {
	container *bootstrap.Container
	out       io.Writer
	errOut    io.Writer
	in        *bufio.Reader
	yes       bool
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// newRootCmd builds the command tree. The returned release func closes
// whatever the run opened and must be called after Execute, whether or
// not it failed.
func newRootCmd(loadConfig func() *config.Config) (*cobra.Command, func(context.Context) error) {
	a := &app{}
	var (
		apiURL    string
		ephemeral bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:           "kasbi",
		Short:         "Terminal client for KASBI, the BPMP Papua assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if apiURL != "" {
				cfg.API.BaseURL = apiURL
			}
			if ephemeral {
				cfg.Storage.Driver = "memory"
			}

			a.out = cmd.OutOrStdout()
			a.errOut = cmd.ErrOrStderr()
			a.in = bufio.NewReader(cmd.InOrStdin())

			// file-only logger keeps the terminal clean unless asked otherwise
			var log logger.ILogger = logger.NewIsolatedLogger(cfg.App.LogFilePath)
			if verbose {
				log = logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
			}
			c, err := bootstrap.NewContainer(cmd.Context(), cfg, log, cliNavigator{w: a.errOut})
			if err != nil {
				return err
			}
			a.container = c
			return c.Sessions.Init(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend base URL (overrides API_URL)")
	cmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep the session in memory for this run only")
	cmd.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "Answer yes to every confirmation")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Mirror log output to stderr")

	cmd.AddCommand(
		a.loginCmd(),
		a.registerCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.chatCmd(),
		a.historyCmd(),
		a.threadsCmd(),
		a.docsCmd(),
		a.adminsCmd(),
	)
	return cmd, a.release
}

func (a *app) release(ctx context.Context) error {
	if a.container == nil {
		return nil
	}
	c := a.container
	a.container = nil
	return c.Close(context.WithoutCancel(ctx))
}

// enter runs the route guard for r.
func (a *app) enter(ctx context.Context, r route.Route) (*entity.Session, error) {
	return a.container.Guard.Enter(ctx, r)
}

// prompt reads one line, printing label first.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm implements service.Confirmer.
func (a *app) Confirm(_ context.Context, question string) (bool, error) {
	if a.yes {
		return true, nil
	}
	answer, err := a.prompt(question + " [y/N] ")
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "ya", "yes":
		return true, nil
	}
	return false, nil
}

type cliNavigator struct {
	w io.Writer
}

func (n cliNavigator) Navigate(_ context.Context, path string) {
	if path == route.LoginPath {
		yellow.Fprintln(n.w, "Silakan login terlebih dahulu: kasbi login")
		return
	}
	faint.Fprintf(n.w, "-> %s\n", path)
}
