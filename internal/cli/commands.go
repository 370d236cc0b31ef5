package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"weekbudget/internal/backend"
	"weekbudget/internal/calendar"
	"weekbudget/internal/config"
	"weekbudget/internal/core"
	"weekbudget/internal/ledger"
	"weekbudget/internal/ledger/sqlite"
	"weekbudget/internal/log"
	"weekbudget/internal/publish"
	"weekbudget/internal/publish/amqp"
	"weekbudget/internal/publish/sheets"
	"weekbudget/internal/render"
	"weekbudget/internal/report"
	"weekbudget/internal/services"
)

// PublisherFactory opens the publishers a config asks for.
type PublisherFactory func(ctx context.Context, cfg *config.Config) ([]publish.Publisher, error)

// App runs commands against one loaded configuration.
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Factory    backend.Factory
	Publishers PublisherFactory
	Stdout     io.Writer
	Now        func() time.Time
}

// NewApp fills in production defaults.
func NewApp(cfg *config.Config, logger *log.Logger) *App {
	return &App{
		Config:     cfg,
		Logger:     logger,
		Factory:    backend.NewFactory(logger),
		Publishers: OpenPublishers,
		Stdout:     os.Stdout,
		Now:        time.Now,
	}
}

func (a *App) service(reader ledger.Reader) *services.ReportService {
	return services.NewReportService(reader, a.Logger, services.ReportServiceConfig{
		FetchConcurrency: a.Config.FetchConcurrency,
		Now:              a.Now,
	})
}

func (a *App) request() services.ReportRequest {
	req := services.ReportRequest{
		BudgetName: a.Config.BudgetName,
		WatchList:  a.Config.WatchList,
	}
	if a.Config.ResolutionDate != nil {
		req.Date = *a.Config.ResolutionDate
	}
	return req
}

func (a *App) openBackend(ctx context.Context) (*backend.Result, error) {
	bc, err := backend.FromAppConfig(a.Config)
	if err != nil {
		return nil, err
	}
	return a.Factory.CreateBackend(ctx, bc)
}

// RunReport builds the configured week's report, emits it in the configured
// output format and hands it to any configured publishers.
func (a *App) RunReport(ctx context.Context) error {
	res, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			a.Logger.Warn("Failed to close backend", log.FieldError, err)
		}
	}()

	result, err := a.service(res.Reader).Run(ctx, a.request())
	if err != nil {
		return err
	}

	if err := a.emit(result.Report); err != nil {
		return err
	}
	a.publish(ctx, result)
	return nil
}

func (a *App) emit(rep report.Report) error {
	cfg := a.Config
	display := report.DisplayRows(rep.Rows, cfg.ShowAllRows)

	if _, err := fmt.Fprintln(a.Stdout, render.Headline(rep.Week)); err != nil {
		return err
	}

	switch cfg.Output.Kind {
	case config.TablePrint:
		return render.PrintTables(a.Stdout, display, rep.Totals, cfg.WatchList)
	case config.CSVPrint:
		return render.PrintCSV(a.Stdout, display, rep.Totals)
	case config.CSVFile:
		totalsPath, err := render.WriteCSVFiles(cfg.Output.Path, display, rep.Totals)
		if err != nil {
			return err
		}
		a.Logger.Info("Wrote CSV report", log.FieldPath, cfg.Output.Path, "totals_path", totalsPath)
		return nil
	case config.VisualFile:
		visual := render.BuildVisualReport(rep.Week, rep.Rows, cfg.WatchList, cfg.ShowAllRows)
		if err := render.WriteVisualFile(cfg.Output.Path, visual); err != nil {
			return err
		}
		a.Logger.Info("Wrote visual report", log.FieldPath, cfg.Output.Path)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", cfg.Output.Kind)
	}
}

// publish failures are logged; the local output has already been written.
func (a *App) publish(ctx context.Context, result *services.ReportResult) {
	if a.Publishers == nil {
		return
	}
	pubs, err := a.Publishers(ctx, a.Config)
	if err != nil {
		a.Logger.ErrorContext(ctx, "Failed to open publishers", log.FieldError, err)
	}
	if len(pubs) == 0 {
		return
	}
	defer func() {
		if err := publish.CloseAll(pubs); err != nil {
			a.Logger.Warn("Failed to close publishers", log.FieldError, err)
		}
	}()

	p := publish.Publication{
		RunID:       result.RunID,
		BudgetName:  result.Budget.Name,
		Report:      result.Report,
		Missing:     result.Missing,
		GeneratedAt: a.Now().UTC(),
	}
	if err := publish.All(ctx, pubs, p); err != nil {
		a.Logger.ErrorContext(ctx, "Failed to publish report", log.FieldRunID, result.RunID, log.FieldError, err)
		return
	}
	a.Logger.InfoContext(ctx, "Published report", log.FieldRunID, result.RunID, "publishers", len(pubs))
}

// OpenPublishers opens a Sheets publisher when a spreadsheet is configured and
// an AMQP publisher when a broker URL is configured. Publishers that fail to
// open are skipped and their errors returned alongside the rest.
func OpenPublishers(ctx context.Context, cfg *config.Config) ([]publish.Publisher, error) {
	var (
		pubs []publish.Publisher
		errs []error
	)
	if cfg.GoogleSpreadsheetID != "" {
		c, err := sheets.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			errs = append(errs, fmt.Errorf("sheets: %w", err))
		} else {
			pubs = append(pubs, c)
		}
	}
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		} else {
			pubs = append(pubs, c)
		}
	}
	if len(errs) > 0 {
		return pubs, fmt.Errorf("open publishers: %v", errs)
	}
	return pubs, nil
}

// RunSnapshot copies the configured budget's month into the sqlite file at
// dbPath.
func (a *App) RunSnapshot(ctx context.Context, dbPath string) error {
	if dbPath == "" {
		dbPath = a.Config.SQLiteDBPath
	}
	if a.Config.DataBackend == string(backend.SQLiteBackend) && dbPath == a.Config.SQLiteDBPath {
		return fmt.Errorf("snapshot target %s is the active sqlite backend", dbPath)
	}
	res, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer res.Close()

	store, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := a.service(res.Reader).Snapshot(ctx, a.request(), store)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.Stdout, "Saved %s for %s to %s (%d transactions)\n",
		snap.Budget.Name, snap.Month.Format("January 2006"), dbPath, len(snap.Transactions))
	return err
}

// RunWeeks lists the week segments of a year, or of one month when month is
// between 1 and 12.
func RunWeeks(w io.Writer, year, month int) error {
	var weeks []core.WeekSegment
	switch {
	case month == 0:
		weeks = calendar.PartitionYear(year)
	case month >= 1 && month <= 12:
		weeks = calendar.MonthWeeks(year, month)
	default:
		return fmt.Errorf("invalid month %d: must be between 1 and 12", month)
	}
	for _, wk := range weeks {
		if _, err := fmt.Fprintf(w, "%04d-%02d  week %2d  %s .. %s  (%d days)\n",
			year, wk.Month, wk.Number, wk.Start, wk.End, len(wk.Dates())); err != nil {
			return err
		}
	}
	return nil
}
