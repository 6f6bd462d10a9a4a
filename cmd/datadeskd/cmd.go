package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"datadesk/internal/config"
	"datadesk/internal/platform/autostart"
	"datadesk/internal/platform/paths"
	"datadesk/internal/secrets"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "datadeskd",
		Short:        "HTTP ingestion service for files, Google Sheets and SQL databases",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			envFile, _ := cmd.Flags().GetString("env-file")
			loadDotEnv(envFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cmd.Flags())
		},
	}

	root.PersistentFlags().String("env-file", ".env", "dotenv file with DB_* defaults")
	addServeFlags(root.Flags())

	root.AddCommand(newConfigCmd(), newPasswordCmd(), newServiceCmd())
	return root
}

// addServeFlags registers the flags that override config keys.
func addServeFlags(fs *pflag.FlagSet) {
	fs.String("listen", "", "listen address (host:port)")
	fs.Bool("debug", false, "verbose logging mirrored to stderr")
	fs.String("bearer-token", "", "require this bearer token on ingestion routes")
	fs.Bool("read-only", false, "reject SQL that is not a single read-only statement")
	fs.Int("max-rows", 0, "maximum rows returned by execute-sql")
	fs.Duration("sql-timeout", 0, "per-query timeout")
	fs.StringSlice("data-folder", nil, "restrict file loads to this folder (repeatable)")
	fs.String("credentials", "", "Google OAuth client secret file")
	fs.String("token-file", "", "where the Google token is cached")
	fs.Duration("consent-timeout", 0, "how long to wait for browser consent (0 waits for the request)")
}

// serviceEnvFile is the .env next to the executable. The service control
// manager starts services in the system directory, so a relative path would
// never find it.
func serviceEnvFile() string {
	exe, err := os.Executable()
	if err != nil {
		return ".env"
	}
	return filepath.Join(filepath.Dir(exe), ".env")
}

// loadDotEnv reads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", path, err)
	}
}

func serve(ctx context.Context, flags *pflag.FlagSet) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &serverApp{flags: flags}
	if err := app.Start(); err != nil {
		return err
	}

	select {
	case err := <-app.Errors():
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger().Error("server error", err)
		} else {
			err = nil
		}
		app.Stop(context.Background())
		return err
	case <-ctx.Done():
		app.logSvc.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), autostart.StopTimeout)
	defer cancel()
	app.Stop(shutdownCtx)
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadOrDefault()
			if err != nil {
				return err
			}
			return writeConfig(cmd.OutOrStdout(), cfg)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := paths.ConfigFilePath()
			if err != nil {
				return err
			}
			if !force {
				_, err := config.Load()
				switch {
				case err == nil:
					return fmt.Errorf("%s already exists (use --force to overwrite)", p)
				case !errors.Is(err, config.ErrNotFound):
					return fmt.Errorf("%w (use --force to overwrite)", err)
				}
			}
			if err := config.Save(config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := paths.ConfigFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(show, initCmd, path)
	return cmd
}

func writeConfig(w io.Writer, cfg config.Config) error {
	if cfg.BearerToken != "" {
		cfg.BearerToken = "********"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func newPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db-password",
		Short: "Manage the stored fallback database password",
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Read a password from stdin and store it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if pw == "" {
				return errors.New("empty password")
			}
			if err := secrets.Set(secrets.DBPasswordKey, []byte(pw)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password stored")
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := secrets.Delete(secrets.DBPasswordKey); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password removed")
			return nil
		},
	}

	cmd.AddCommand(set, clearCmd)
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the Windows service registration",
	}

	install := &cobra.Command{
		Use:   "install",
		Short: "Register datadeskd as an auto-start service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			exe, err := os.Executable()
			if err != nil {
				return err
			}
			created, err := autostart.InstallService(autostart.ServiceSpec{
				Name:        windowsServiceName,
				DisplayName: "Data Desk Service",
				Description: "Loads files, Google Sheets and SQL query results for the Data Desk application.",
				ExePath:     exe,
			})
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintln(cmd.OutOrStdout(), "service installed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "service already installed; start type set to automatic")
			}
			return nil
		},
	}

	uninstall := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the service registration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return autostart.UninstallService(windowsServiceName)
		},
	}

	start := &cobra.Command{
		Use:   "start",
		Short: "Start the service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return autostart.StartWindowsService(windowsServiceName)
		},
	}

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return autostart.StopWindowsService(windowsServiceName, 30*time.Second)
		},
	}

	cmd.AddCommand(install, uninstall, start, stop)
	return cmd
}
