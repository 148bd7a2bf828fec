// Command billctl is a command-line client for the billplanner server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/billplanner/internal/api"
	"github.com/mmynk/billplanner/internal/middleware"
	"github.com/mmynk/billplanner/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the global flags and builds clients from them.
type app struct {
	server     string
	token      string
	logLevel   string
	configPath string
	out        io.Writer

	httpClient *http.Client
}

func (a *app) options() connect.ClientOption {
	return connect.WithInterceptors(middleware.BearerToken(a.token))
}

func (a *app) authClient() api.AuthServiceClient {
	return api.NewAuthServiceClient(a.httpClient, a.server, a.options())
}

func (a *app) billClient() api.BillServiceClient {
	return api.NewBillServiceClient(a.httpClient, a.server, a.options())
}

func (a *app) budgetClient() api.BudgetServiceClient {
	return api.NewBudgetServiceClient(a.httpClient, a.server, a.options())
}

func (a *app) feedClient() api.FeedServiceClient {
	return api.NewFeedServiceClient(a.httpClient, a.server, a.options())
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, httpClient: &http.Client{}}

	cmd := &cobra.Command{
		Use:           "billctl",
		Short:         "Manage bills, installments and the monthly budget",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupWithLevel(os.Stderr, logging.ParseLevel(a.logLevel, slog.LevelWarn))
			return a.applyFileConfig(cmd)
		},
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVar(&a.server, "server", envOr("BILLCTL_SERVER", "http://localhost:8080"), "Server base URL (env BILLCTL_SERVER)")
	cmd.PersistentFlags().StringVar(&a.token, "token", os.Getenv("BILLCTL_TOKEN"), "Session token (env BILLCTL_TOKEN)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.configPath, "config", envOr("BILLCTL_CONFIG", defaultConfigPath()), "Config file holding a saved server and token (env BILLCTL_CONFIG)")

	cmd.AddCommand(
		registerCmd(a),
		loginCmd(a),
		whoamiCmd(a),
		billsCmd(a),
		budgetCmd(a),
		watchCmd(a),
	)
	return cmd
}

// applyFileConfig fills server and token from the config file when neither
// a flag nor the environment set them.
func (a *app) applyFileConfig(cmd *cobra.Command) error {
	fc, err := loadFileConfig(a.configPath)
	if err != nil {
		return err
	}
	if fc.Server != "" && !cmd.Flags().Changed("server") && os.Getenv("BILLCTL_SERVER") == "" {
		a.server = fc.Server
	}
	if fc.Token != "" && !cmd.Flags().Changed("token") && os.Getenv("BILLCTL_TOKEN") == "" {
		a.token = fc.Token
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
