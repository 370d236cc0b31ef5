package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"weekbudget/internal/calendar"
	"weekbudget/internal/core"
	"weekbudget/internal/ledger"
	"weekbudget/internal/log"
	"weekbudget/internal/report"
)

// DefaultFetchConcurrency bounds concurrent month-category lookups.
const DefaultFetchConcurrency = 4

// ReportServiceConfig holds configuration for the report service
type ReportServiceConfig struct {
	// FetchConcurrency is how many month-category lookups run at once (default: 4)
	FetchConcurrency int
	// Now supplies today's date when a request carries none (default: time.Now)
	Now func() time.Time
}

// ReportService fetches one budget's week from a ledger and aggregates it
type ReportService struct {
	reader ledger.Reader
	logger *log.Logger
	config ReportServiceConfig
}

// ReportRequest names the budget, watched groups and the date whose week is reported
type ReportRequest struct {
	BudgetName string
	WatchList  core.WatchList
	// Date defaults to today when zero.
	Date core.Date
}

// Fetched is the raw ledger data for one reporting week
type Fetched struct {
	RunID        string
	Budget       core.BudgetSummary
	Week         core.WeekSegment
	Groups       []core.CategoryGroup
	Missing      []string
	Categories   []core.Category
	Transactions []core.Transaction
}

// ReportResult is an aggregated week ready for rendering
type ReportResult struct {
	RunID   string
	Budget  core.BudgetSummary
	Missing []string
	Report  report.Report
}

func NewReportService(reader ledger.Reader, logger *log.Logger, config ReportServiceConfig) *ReportService {
	if config.FetchConcurrency <= 0 {
		config.FetchConcurrency = DefaultFetchConcurrency
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ReportService{
		reader: reader,
		logger: logger.WithComponent(log.ComponentReport),
		config: config,
	}
}

// Fetch resolves the budget and week, then loads the watched categories scoped
// to the week's month and every transaction since the week start.
func (s *ReportService) Fetch(ctx context.Context, req ReportRequest) (*Fetched, error) {
	if err := req.WatchList.Validate(); err != nil {
		return nil, fmt.Errorf("watch list: %w", err)
	}

	runID := uuid.NewString()
	logger := s.logger.With(log.FieldRunID, runID)

	budget, err := s.resolveBudget(ctx, req.BudgetName)
	if err != nil {
		return nil, err
	}

	groups, err := s.reader.CategoryGroups(ctx, budget.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch category groups: %w", err)
	}
	selection, err := report.Select(groups, req.WatchList)
	if err != nil {
		return nil, fmt.Errorf("select watched categories: %w", err)
	}
	if len(selection.Missing) > 0 {
		logger.WarnContext(ctx, "Watched category groups not found in budget",
			log.FieldBudget, budget.Name,
			log.FieldGroups, selection.Missing)
	}

	date := req.Date
	if date.IsZero() {
		date = core.DateOf(s.config.Now())
	}
	week, err := calendar.WeekForDate(date)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Resolved reporting week", log.NewFields().WithBudget(budget.Name, budget.ID).WithWeek(week).ToSlice()...)

	categories, err := s.monthCategories(ctx, budget.ID, week.Start, selection.Categories, groupNames(groups))
	if err != nil {
		return nil, err
	}

	txs, err := s.reader.TransactionsSince(ctx, budget.ID, week.Start)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	logger.DebugContext(ctx, "Fetched ledger data",
		"categories", len(categories),
		"transactions", len(txs))

	return &Fetched{
		RunID:        runID,
		Budget:       budget,
		Week:         week,
		Groups:       groups,
		Missing:      selection.Missing,
		Categories:   categories,
		Transactions: txs,
	}, nil
}

// Run fetches the week and builds its report.
func (s *ReportService) Run(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	start := time.Now()
	fetched, err := s.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	rep, err := report.Build(fetched.Week, fetched.Categories, fetched.Transactions)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	s.logger.InfoContext(ctx, "Built weekly report",
		log.FieldRunID, fetched.RunID,
		log.FieldWeek, rep.Week.Number,
		"rows", len(rep.Rows),
		log.FieldDuration, time.Since(start).Milliseconds())

	return &ReportResult{
		RunID:   fetched.RunID,
		Budget:  fetched.Budget,
		Missing: fetched.Missing,
		Report:  rep,
	}, nil
}

// Snapshot copies the budget's data for the month containing req.Date into w.
// The copy covers every week of that month.
func (s *ReportService) Snapshot(ctx context.Context, req ReportRequest, w ledger.SnapshotWriter) (ledger.Snapshot, error) {
	date := req.Date
	if date.IsZero() {
		date = core.DateOf(s.config.Now())
	}
	month := date.FirstOfMonth()

	fetched, err := s.Fetch(ctx, ReportRequest{BudgetName: req.BudgetName, WatchList: req.WatchList, Date: month})
	if err != nil {
		return ledger.Snapshot{}, err
	}

	snap := ledger.Snapshot{
		Budget:          fetched.Budget,
		Groups:          fetched.Groups,
		Month:           month,
		MonthCategories: fetched.Categories,
		Since:           month,
		Transactions:    fetched.Transactions,
		TakenAt:         s.config.Now().UTC(),
	}
	if err := w.SaveSnapshot(ctx, snap); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	s.logger.InfoContext(ctx, "Saved ledger snapshot",
		log.FieldRunID, fetched.RunID,
		log.FieldBudget, fetched.Budget.Name,
		"month", month.String(),
		"transactions", len(snap.Transactions))
	return snap, nil
}

func (s *ReportService) resolveBudget(ctx context.Context, name string) (core.BudgetSummary, error) {
	budgets, err := s.reader.Budgets(ctx)
	if err != nil {
		return core.BudgetSummary{}, fmt.Errorf("fetch budgets: %w", err)
	}
	id, err := report.BudgetID(budgets, name)
	if err != nil {
		return core.BudgetSummary{}, err
	}
	return core.BudgetSummary{ID: id, Name: name}, nil
}

// monthCategories looks up each selected category for the given month. Results
// keep the order of selected. Categories that come back without a group name
// take the name of the group that lists them.
func (s *ReportService) monthCategories(ctx context.Context, budgetID string, month core.Date, selected []core.Category, groupOf map[string]string) ([]core.Category, error) {
	out := make([]core.Category, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.FetchConcurrency)
	for i, c := range selected {
		i, c := i, c
		g.Go(func() error {
			mc, err := s.reader.MonthCategory(gctx, budgetID, month, c.ID)
			if err != nil {
				return fmt.Errorf("fetch month category %q: %w", c.Name, err)
			}
			if mc.GroupName == nil {
				if name, ok := groupOf[c.ID]; ok {
					mc.GroupName = &name
				}
			}
			out[i] = mc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func groupNames(groups []core.CategoryGroup) map[string]string {
	m := make(map[string]string)
	for _, g := range groups {
		for _, c := range g.Categories {
			m[c.ID] = g.Name
		}
	}
	return m
}
