package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"datadesk/internal/api/dto"
	"datadesk/internal/client"
	"datadesk/internal/config"
	"datadesk/internal/secrets"

	"github.com/spf13/pflag"
)

func hasHeadlessFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--headless" || arg == "--cli" {
			return true
		}
	}
	return false
}

type headlessOptions struct {
	serviceURL string
	token      string
	format     string
	timeout    time.Duration

	show     bool
	health   bool
	listData bool

	listSheets  bool
	resetToken  bool
	sheetID     string
	sheetRange  string
	loadFile    string
	excelSheet  string
	query       string
	dbType      string
	dbHost      string
	dbPort      int
	dbUser      string
	dbName      string
	dbPassword  string
	storePass   bool
	testDB      bool
	queryParams map[string]string
}

func headlessFlags(cfg config.Config, opt *headlessOptions) *pflag.FlagSet {
	fs := pflag.NewFlagSet("datadesk", pflag.ContinueOnError)

	fs.Bool("headless", false, "run without GUI")
	fs.Bool("cli", false, "alias for --headless")

	fs.StringVar(&opt.serviceURL, "service-url", cfg.ServiceURL, "datadeskd base URL")
	fs.StringVar(&opt.token, "token", cfg.BearerToken, "bearer token for the service")
	fs.StringVar(&opt.format, "format", formatTable, "output format: table, csv, md or json")
	fs.DurationVar(&opt.timeout, "timeout", 0, "abort the request after this long (0 waits)")

	fs.BoolVar(&opt.show, "show", false, "print the config summary")
	fs.BoolVar(&opt.health, "health", false, "check that the service is reachable")
	fs.BoolVar(&opt.listData, "list-data-files", false, "list files in the configured data folders")

	fs.BoolVar(&opt.listSheets, "list-sheets", false, "list Google spreadsheets")
	fs.BoolVar(&opt.resetToken, "reset-google-token", false, "forget the saved Google token")
	fs.StringVar(&opt.sheetID, "sheet-id", "", "load this Google spreadsheet")
	fs.StringVar(&opt.sheetRange, "range", "", "A1 range for --sheet-id")
	fs.StringVar(&opt.loadFile, "load-file", "", "load a csv, xlsx or json file")
	fs.StringVar(&opt.excelSheet, "excel-sheet", "", "worksheet for --load-file on a workbook")

	fs.StringVar(&opt.query, "sql", "", "run a query through execute-sql")
	fs.StringVar(&opt.dbType, "db-type", string(cfg.DB.Driver), "database type: "+strings.Join(config.DBDriverOptions(), ", "))
	fs.StringVar(&opt.dbHost, "db-host", cfg.DB.Host, "database host")
	fs.IntVar(&opt.dbPort, "db-port", 0, "database port (0 lets the service pick the driver default)")
	fs.StringVar(&opt.dbUser, "db-user", cfg.DB.User, "database user")
	fs.StringVar(&opt.dbName, "db-name", cfg.DB.Database, "database name or sqlite file")
	fs.StringVar(&opt.dbPassword, "db-password", "", "database password")
	fs.BoolVar(&opt.testDB, "test-db", false, "open and ping the database given by the --db-* flags")
	fs.BoolVar(&opt.storePass, "store-db-password", false, "save --db-password as the service fallback password")
	fs.StringToStringVar(&opt.queryParams, "param", nil, "named query parameter name=value (repeatable)")

	return fs
}

// runHeadless handles --headless invocations. It reports false when the GUI
// should start instead.
func runHeadless(args []string, stdout io.Writer, uiLog *uiLogger) (bool, error) {
	if !hasHeadlessFlag(args) {
		return false, nil
	}

	cfg, err := config.LoadOrDefault()
	if err != nil {
		return true, err
	}

	var opt headlessOptions
	fs := headlessFlags(cfg, &opt)
	fs.SetOutput(stdout)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return true, err
	}
	if !validFormat(opt.format) {
		return true, fmt.Errorf("invalid format: %q", opt.format)
	}

	uiLog.Printf("headless start")

	ctx := context.Background()
	if opt.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opt.timeout)
		defer cancel()
	}

	c := client.New(opt.serviceURL, opt.token, nil)
	did := false

	if opt.show {
		printConfigSummary(stdout, cfg)
		did = true
	}

	if opt.storePass {
		if opt.dbPassword == "" {
			return true, errors.New("--store-db-password needs --db-password")
		}
		if err := secrets.Set(secrets.DBPasswordKey, []byte(opt.dbPassword)); err != nil {
			return true, fmt.Errorf("failed to save db password: %w", err)
		}
		fmt.Fprintln(stdout, "DB password saved.")
		did = true
	}

	if opt.health {
		if err := c.Health(ctx); err != nil {
			return true, fmt.Errorf("service at %s: %w", opt.serviceURL, err)
		}
		fmt.Fprintln(stdout, "Service OK.")
		did = true
	}

	if opt.testDB {
		if err := c.TestConnection(ctx, opt.sqlRequest()); err != nil {
			return true, err
		}
		fmt.Fprintln(stdout, "Connection OK.")
		did = true
	}

	if opt.resetToken {
		if err := c.ResetGoogleToken(ctx); err != nil {
			return true, err
		}
		fmt.Fprintln(stdout, "Google token reset.")
		did = true
	}

	if opt.listSheets {
		files, err := c.ListSheets(ctx)
		if err != nil {
			return true, err
		}
		if opt.format == formatJSON {
			if err := renderJSON(stdout, files); err != nil {
				return true, err
			}
		} else {
			pairs := make([][2]string, 0, len(files))
			for _, f := range files {
				pairs = append(pairs, [2]string{f.ID, f.Name})
			}
			renderPairs(stdout, [2]string{"id", "name"}, pairs)
		}
		did = true
	}

	if opt.listData {
		resp, err := c.ListDataFiles(ctx)
		if err != nil {
			return true, err
		}
		if opt.format == formatJSON {
			if err := renderJSON(stdout, resp); err != nil {
				return true, err
			}
		} else {
			var pairs [][2]string
			for _, folder := range resp.Folders {
				for _, f := range folder.Files {
					pairs = append(pairs, [2]string{folder.FolderPath, f})
				}
			}
			renderPairs(stdout, [2]string{"folder", "file"}, pairs)
		}
		did = true
	}

	if opt.sheetID != "" {
		res, err := c.LoadSheet(ctx, opt.sheetID, opt.sheetRange)
		if err != nil {
			return true, err
		}
		if err := renderResult(stdout, res, opt.format); err != nil {
			return true, err
		}
		did = true
	}

	if opt.loadFile != "" {
		res, err := c.LoadFile(ctx, opt.loadFile, opt.excelSheet)
		if err != nil {
			return true, err
		}
		if err := renderResult(stdout, res, opt.format); err != nil {
			return true, err
		}
		did = true
	}

	if opt.query != "" {
		res, err := c.ExecuteSQL(ctx, opt.sqlRequest())
		if err != nil {
			return true, err
		}
		if err := renderResult(stdout, res, opt.format); err != nil {
			return true, err
		}
		did = true
	}

	if !did {
		fmt.Fprintln(stdout, "Nothing to do. Use --show or one of the load flags. Example:")
		fmt.Fprintln(stdout, "  datadesk --headless --load-file prices.csv --format md")
	}
	return true, nil
}

func (o headlessOptions) sqlRequest() dto.SQLRequest {
	req := dto.SQLRequest{
		DBType:   o.dbType,
		Query:    o.query,
		User:     o.dbUser,
		Password: o.dbPassword,
		Host:     o.dbHost,
		Port:     dto.Port(o.dbPort),
		DBName:   o.dbName,
	}
	if len(o.queryParams) > 0 {
		req.Params = make(map[string]any, len(o.queryParams))
		for k, v := range o.queryParams {
			req.Params[k] = v
		}
	}
	return req
}

func printConfigSummary(w io.Writer, cfg config.Config) {
	fmt.Fprintln(w, "Config summary:")
	fmt.Fprintf(w, "  Service URL: %s\n", cfg.ServiceURL)
	fmt.Fprintf(w, "  API Listen: %s\n", cfg.APIListen)
	fmt.Fprintf(w, "  Debug: %v\n", cfg.Debug)
	if cfg.BearerToken == "" {
		fmt.Fprintln(w, "  Bearer Token: (empty)")
	} else {
		fmt.Fprintf(w, "  Bearer Token: (set, len=%d)\n", len(cfg.BearerToken))
	}
	fmt.Fprintf(w, "  DB Driver: %s\n", cfg.DB.Driver)
	fmt.Fprintf(w, "  DB Host: %s\n", cfg.DB.Host)
	if cfg.DB.Port == 0 {
		fmt.Fprintln(w, "  DB Port: (driver default)")
	} else {
		fmt.Fprintf(w, "  DB Port: %d\n", cfg.DB.Port)
	}
	fmt.Fprintf(w, "  DB User: %s\n", cfg.DB.User)
	fmt.Fprintf(w, "  DB Database: %s\n", cfg.DB.Database)
	fmt.Fprintf(w, "  SQL: read-only=%v max-rows=%d timeout=%s\n", cfg.SQL.ReadOnly, cfg.SQL.MaxRows, cfg.SQL.Timeout)
	if len(cfg.Files.DataFolders) == 0 {
		fmt.Fprintln(w, "  Data Folders: (any path)")
	} else {
		fmt.Fprintln(w, "  Data Folders:")
		for _, p := range cfg.Files.DataFolders {
			fmt.Fprintf(w, "    - %s\n", p)
		}
	}
	fmt.Fprintf(w, "  Google Credentials: %s\n", cfg.Sheets.CredentialsFile)
	fmt.Fprintf(w, "  Google Token: %s\n", cfg.Sheets.TokenFile)
}
