package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"datadesk/internal/api/dto"
	"datadesk/internal/client"
	"datadesk/internal/config"
	"datadesk/internal/sheets"
	"datadesk/internal/table"
	"datadesk/internal/ui"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

var dataFileExtensions = []string{".csv", ".xlsx", ".json"}

const testTimeout = 30 * time.Second

// desk is the main window. Service calls run on their own goroutine and
// come back to the UI through fyne.Do.
type desk struct {
	win    fyne.Window
	api    *client.Client
	cfg    config.Config
	uiLog  *uiLogger
	grid   *ui.Grid
	table  *widget.Table
	status *widget.Label

	sheetSelect *widget.Select
	sheetFiles  []sheets.SheetFile

	driverSelect *widget.Select
	hostEntry    *widget.Entry
	portEntry    *widget.Entry
	userEntry    *widget.Entry
	passEntry    *widget.Entry
	dbEntry      *widget.Entry
	queryEntry   *widget.Entry
}

func newDesk(a fyne.App, cfg config.Config, uiLog *uiLogger) *desk {
	d := &desk{
		win:    a.NewWindow(appTitle),
		api:    client.New(cfg.ServiceURL, cfg.BearerToken, nil),
		cfg:    cfg,
		uiLog:  uiLog,
		grid:   ui.NewGrid(),
		status: widget.NewLabel(""),
	}

	top := container.NewGridWithColumns(4,
		d.ingestionPanel(),
		optionPanel("Data Mining", []string{"Association Rule Mining", "Sequential Pattern Mining"}, "Run Mining"),
		optionPanel("Data Preprocessing", []string{"Generate Covariance Matrix", "Perform Regression Analysis"}, "Run Preprocessing"),
		optionPanel("Machine Learning", []string{"Regression", "Classification"}, "Run Model"),
	)

	d.table = d.newTable()
	data := widget.NewCard("Data Table", "", d.table)
	vis := widget.NewCard("Visualisation", "", widget.NewLabel("No chart selected."))
	bottom := container.NewHSplit(data, vis)
	bottom.SetOffset(0.7)

	split := container.NewVSplit(top, bottom)
	split.SetOffset(0.45)

	d.win.SetContent(container.NewBorder(nil, d.status, nil, nil, split))
	d.win.Resize(fyne.NewSize(1200, 800))
	return d
}

func (d *desk) ingestionPanel() fyne.CanvasObject {
	connectBtn := widget.NewButton("Connect Google Sheets", d.connectSheets)
	d.sheetSelect = widget.NewSelect(nil, func(string) {
		d.loadSelectedSheet()
	})
	d.sheetSelect.PlaceHolder = "(connect first)"
	resetBtn := widget.NewButton("Reset Google token", d.resetToken)

	fileBtn := widget.NewButton("Select File", d.selectFile)

	d.portEntry = widget.NewEntry()
	if d.cfg.DB.Port > 0 {
		d.portEntry.SetText(strconv.Itoa(d.cfg.DB.Port))
	}
	d.driverSelect = widget.NewSelect(config.DBDriverOptions(), func(driver string) {
		d.portEntry.SetPlaceHolder(portPlaceholder(driver))
	})
	d.driverSelect.SetSelected(string(d.cfg.DB.Driver))
	d.hostEntry = widget.NewEntry()
	d.hostEntry.SetText(d.cfg.DB.Host)
	d.userEntry = widget.NewEntry()
	d.userEntry.SetText(d.cfg.DB.User)
	d.passEntry = widget.NewPasswordEntry()
	d.passEntry.SetPlaceHolder("blank uses the service default")
	d.dbEntry = widget.NewEntry()
	d.dbEntry.SetText(d.cfg.DB.Database)
	d.queryEntry = widget.NewMultiLineEntry()
	d.queryEntry.SetPlaceHolder("SELECT ...")
	d.queryEntry.SetMinRowsVisible(3)

	form := widget.NewForm(
		widget.NewFormItem("Type", d.driverSelect),
		widget.NewFormItem("Host", d.hostEntry),
		widget.NewFormItem("Port", d.portEntry),
		widget.NewFormItem("User", d.userEntry),
		widget.NewFormItem("Password", d.passEntry),
		widget.NewFormItem("Database", d.dbEntry),
		widget.NewFormItem("Query", d.queryEntry),
	)
	runBtn := widget.NewButton("Run", d.runQuery)
	testBtn := widget.NewButton("Test", d.testConnection)

	content := container.NewVBox(
		container.NewGridWithColumns(2, connectBtn, resetBtn),
		d.sheetSelect,
		fileBtn,
		widget.NewSeparator(),
		form,
		container.NewGridWithColumns(2, runBtn, testBtn),
	)
	return widget.NewCard("Data Ingestion", "", container.NewVScroll(content))
}

// optionPanel is a placeholder analysis panel.
func optionPanel(title string, options []string, action string) fyne.CanvasObject {
	choice := widget.NewSelect(options, nil)
	choice.SetSelectedIndex(0)
	run := widget.NewButton(action, func() {})
	return widget.NewCard(title, "", container.NewVBox(choice, run))
}

func (d *desk) newTable() *widget.Table {
	t := widget.NewTableWithHeaders(
		func() (int, int) { return d.grid.Dims() },
		func() fyne.CanvasObject { return widget.NewLabel("template cell value") },
		func(id widget.TableCellID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(d.grid.Cell(id.Row, id.Col))
		},
	)
	t.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		l := o.(*widget.Label)
		switch {
		case id.Row < 0:
			l.SetText(d.grid.Header(id.Col))
		case id.Col < 0:
			l.SetText(strconv.Itoa(id.Row + 1))
		}
	}
	return t
}

func (d *desk) setStatus(msg string) {
	d.status.SetText(msg)
}

// showResult puts res in the grid. An empty result clears it.
func (d *desk) showResult(res table.Result, source string) {
	if res.IsEmpty() {
		d.grid.Clear()
		d.table.Refresh()
		d.setStatus(source + ": no rows")
		return
	}
	if err := d.grid.SetResult(res); err != nil {
		d.fail(source, err)
		return
	}
	d.table.Refresh()
	d.setStatus(fmt.Sprintf("%s: %d rows, %d columns", source, res.Len(), len(res.Columns)))
}

func (d *desk) fail(source string, err error) {
	d.uiLog.Printf("%s failed: %v", source, err)
	d.setStatus(source + " failed")
	dialog.ShowError(err, d.win)
}

// load runs fetch in the background and shows its rows.
func (d *desk) load(source string, fetch func(ctx context.Context) (table.Result, error)) {
	d.setStatus(source + "...")
	go func() {
		res, err := fetch(context.Background())
		fyne.Do(func() {
			if err != nil {
				d.fail(source, err)
				return
			}
			d.showResult(res, source)
		})
	}()
}

func (d *desk) connectSheets() {
	d.setStatus("Waiting for Google authorization...")
	go func() {
		files, err := d.api.ListSheets(context.Background())
		fyne.Do(func() {
			if err != nil {
				d.fail("Google Sheets", err)
				return
			}
			d.sheetFiles = files
			d.sheetSelect.Options = sheetOptions(files)
			d.sheetSelect.ClearSelected()
			d.sheetSelect.Refresh()
			d.setStatus(fmt.Sprintf("%d spreadsheets found", len(files)))
		})
	}()
}

func (d *desk) loadSelectedSheet() {
	i := d.sheetSelect.SelectedIndex()
	if i < 0 || i >= len(d.sheetFiles) {
		return
	}
	sheet := d.sheetFiles[i]
	d.load(sheet.Name, func(ctx context.Context) (table.Result, error) {
		return d.api.LoadSheet(ctx, sheet.ID, "")
	})
}

func (d *desk) resetToken() {
	go func() {
		err := d.api.ResetGoogleToken(context.Background())
		fyne.Do(func() {
			if err != nil {
				d.fail("Reset token", err)
				return
			}
			d.sheetFiles = nil
			d.sheetSelect.Options = nil
			d.sheetSelect.ClearSelected()
			d.sheetSelect.Refresh()
			d.setStatus("Google token reset")
		})
	}()
}

func (d *desk) selectFile() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			d.fail("Select file", err)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()

		d.load(path, func(ctx context.Context) (table.Result, error) {
			return d.api.LoadFile(ctx, path, "")
		})
	}, d.win)
	fd.SetFilter(storage.NewExtensionFileFilter(dataFileExtensions))
	fd.Show()
}

func (d *desk) runQuery() {
	req, err := sqlFormRequest(d.driverSelect.Selected, d.hostEntry.Text, d.portEntry.Text,
		d.userEntry.Text, d.passEntry.Text, d.dbEntry.Text, d.queryEntry.Text)
	if err != nil {
		d.fail("Query", err)
		return
	}
	d.load("Query", func(ctx context.Context) (table.Result, error) {
		return d.api.ExecuteSQL(ctx, req)
	})
}

// testConnection asks the service to open the database in the form.
func (d *desk) testConnection() {
	req, err := connectionRequest(d.driverSelect.Selected, d.hostEntry.Text, d.portEntry.Text,
		d.userEntry.Text, d.passEntry.Text, d.dbEntry.Text)
	if err != nil {
		d.fail("Connection test", err)
		return
	}

	d.setStatus("Testing connection...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		err := d.api.TestConnection(ctx, req)
		fyne.Do(func() {
			if err != nil {
				d.fail("Connection test", err)
				return
			}
			d.setStatus("Connection OK")
		})
	}()
}

func sheetOptions(files []sheets.SheetFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

// portPlaceholder hints the port the service falls back to when the entry
// is left blank.
func portPlaceholder(driver string) string {
	if p := config.DefaultPort(config.DBDriver(driver)); p > 0 {
		return fmt.Sprintf("default (%d)", p)
	}
	return "not used"
}

var errQueryRequired = errors.New("query is required")

// sqlFormRequest builds an execute-sql body from the database form. Empty
// fields are left for the service to fill from its defaults.
func sqlFormRequest(driver, host, port, user, password, database, query string) (dto.SQLRequest, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return dto.SQLRequest{}, errQueryRequired
	}
	req, err := connectionRequest(driver, host, port, user, password, database)
	if err != nil {
		return dto.SQLRequest{}, err
	}
	req.Query = query
	return req, nil
}

func connectionRequest(driver, host, port, user, password, database string) (dto.SQLRequest, error) {
	req := dto.SQLRequest{
		DBType:   strings.TrimSpace(driver),
		User:     strings.TrimSpace(user),
		Password: password,
		Host:     strings.TrimSpace(host),
		DBName:   strings.TrimSpace(database),
	}

	if port = strings.TrimSpace(port); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return dto.SQLRequest{}, fmt.Errorf("invalid port %q", port)
		}
		req.Port = dto.Port(p)
	}
	return req, nil
}
