package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"lanews-extractor/internal/browser"
	"lanews-extractor/internal/config"
	"lanews-extractor/internal/export"
	"lanews-extractor/internal/images"
	"lanews-extractor/internal/normalize"
	"lanews-extractor/internal/observability"
	"lanews-extractor/internal/scraper"
)

// ErrRunPanicked: паника внутри запуска, перехваченная оркестратором
var ErrRunPanicked = errors.New("run panicked")

type Orchestrator struct {
	cfg      *config.Config
	item     config.WorkItem
	runID    string
	session  browser.Session
	fetcher  images.BlobFetcher
	sink     export.Sink
	locators *scraper.Locators
	logger   *observability.Logger
}

func NewOrchestrator(
	cfg *config.Config,
	item config.WorkItem,
	runID string,
	session browser.Session,
	fetcher images.BlobFetcher,
	sink export.Sink,
	locators *scraper.Locators,
	logger *observability.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		item:     item,
		runID:    runID,
		session:  session,
		fetcher:  fetcher,
		sink:     sink,
		locators: locators,
		logger:   logger,
	}
}

// RunReport: итог запуска. Ошибки шагов не прерывают последующие шаги.
type RunReport struct {
	RunID      string
	Collected  int
	Pages      int
	StopReason scraper.StopReason
	Images     images.Summary

	SearchErr error
	FilterErr error
	ScrapeErr error
	ExportErr error
	PanicErr  error

	Started  time.Time
	Finished time.Time
}

func (r *RunReport) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Run: поиск, пагинация, картинки, выгрузка. Выгрузка выполняется
// всегда, даже при нуле записей или отменённом ctx.
func (o *Orchestrator) Run(ctx context.Context) (report *RunReport) {
	report = &RunReport{RunID: o.runID, Started: time.Now()}

	defer func() {
		if r := recover(); r != nil {
			report.PanicErr = fmt.Errorf("%w: %v", ErrRunPanicked, r)
			o.logger.Error("Run panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
		report.Finished = time.Now()
		o.logCompleted(report)
	}()

	o.logger.Info("Starting run",
		"search_phrase", o.item.SearchPhrase,
		"no_of_months", o.item.NoOfMonths,
		"base_url", o.cfg.Site.BaseURL,
	)

	o.prepareFolders()

	if err := o.search(ctx); err != nil {
		report.SearchErr = err
		o.logger.Error("Search failed, continuing with current page", "error", err.Error())
	}
	if err := o.filter(ctx); err != nil {
		report.FilterErr = err
		o.logger.Error("Filter failed, continuing with current order", "error", err.Error())
	}
	o.logExpectedPages(ctx)

	var articles []*scraper.Article
	result, err := o.newPaginator().Run(ctx)
	if result != nil {
		articles = result.Articles
		report.Collected = len(result.Articles)
		report.Pages = result.Pages
		report.StopReason = result.Reason
	}
	if err != nil {
		report.ScrapeErr = err
		o.logger.Error("Pagination failed, keeping partial results",
			"collected", report.Collected,
			"error", err.Error(),
		)
	}

	report.Images = images.NewProcessor(o.fetcher, o.cfg.Output.ImagesDir, o.logger).Process(ctx, articles)

	if err := o.export(ctx, articles); err != nil {
		report.ExportErr = err
		o.logger.Error("Export failed", "error", err.Error())
	}

	return report
}

func (o *Orchestrator) prepareFolders() {
	for _, dir := range []string{o.cfg.Output.Dir, o.cfg.Output.ImagesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			o.logger.Warn("Failed to create folder", "dir", dir, "error", err.Error())
		}
	}
}

// search открывает сайт и отправляет поисковую фразу
func (o *Orchestrator) search(ctx context.Context) error {
	l := o.locators

	if err := o.session.Open(ctx, o.cfg.Site.BaseURL); err != nil {
		return fmt.Errorf("open site: %w", err)
	}
	if err := o.session.Click(ctx, l.SearchButton); err != nil {
		return fmt.Errorf("search button: %w", err)
	}
	if err := o.session.WaitVisible(ctx, l.SearchField, o.cfg.GetSearchFieldTimeout()); err != nil {
		return fmt.Errorf("search field: %w", err)
	}
	if err := o.session.Input(ctx, l.SearchField, o.item.SearchPhrase); err != nil {
		return fmt.Errorf("input phrase: %w", err)
	}
	if err := o.session.PressEnter(ctx, l.SearchField); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}

	o.logger.Info("Search submitted", "search_phrase", o.item.SearchPhrase)
	return nil
}

// filter выбирает категорию и сортировку по новизне
func (o *Orchestrator) filter(ctx context.Context) error {
	l := o.locators

	if !l.Category.IsZero() {
		if err := o.session.Click(ctx, l.Category); err != nil {
			return fmt.Errorf("category filter: %w", err)
		}
	}
	if err := o.session.WaitVisible(ctx, l.SortSelect, o.cfg.GetSortTimeout()); err != nil {
		return fmt.Errorf("sort select: %w", err)
	}
	if err := o.session.SelectOption(ctx, l.SortSelect, l.SortOption); err != nil {
		return fmt.Errorf("sort option %q: %w", l.SortOption, err)
	}
	if !l.Loading.IsZero() {
		if err := o.session.WaitVisible(ctx, l.Loading, o.cfg.GetLoadingTimeout()); err != nil {
			return fmt.Errorf("loading marker: %w", err)
		}
	}

	o.logger.Info("Results filtered", "category", l.Category.Text, "sort", l.SortOption)
	return nil
}

// logExpectedPages пишет в лог число страниц из счётчика "1 of N", если он есть
func (o *Orchestrator) logExpectedPages(ctx context.Context) {
	if o.locators.PageCounts.IsZero() {
		return
	}
	text, err := o.session.Text(ctx, o.locators.PageCounts)
	if err != nil {
		o.logger.Debug("Page counter not available", "error", err.Error())
		return
	}
	last, err := scraper.ParseLastPage(text)
	if err != nil {
		o.logger.Debug("Page counter not parsed", "error", err.Error())
		return
	}
	o.logger.Info("Expected pages", "pages", last)
}

func (o *Orchestrator) newPaginator() *scraper.Paginator {
	return scraper.NewPaginator(
		o.session,
		o.locators,
		scraper.NewDateParser(time.Now),
		normalize.NewNormalizer(o.cfg.Normalize.TrimNBSP, o.cfg.Normalize.CollapseSpaces),
		scraper.NewRetrier(o.cfg.Retry.MaxRetries, o.session.Reload, o.logger),
		scraper.PaginatorOptions{
			SearchPhrase:    o.item.SearchPhrase,
			StopMonths:      o.item.NoOfMonths,
			MaxPages:        o.cfg.Pagination.MaxPages,
			ListingTimeout:  o.cfg.GetListingTimeout(),
			NextPageTimeout: o.cfg.GetNextPageTimeout(),
		},
		o.logger,
	)
}

// export выгружает записи; при отменённом ctx: с новым ограниченным контекстом
func (o *Orchestrator) export(ctx context.Context, articles []*scraper.Article) error {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), o.cfg.GetCommandTimeout())
		defer cancel()
	}
	return o.sink.Export(ctx, scraper.Columns(), scraper.Rows(articles))
}

func (o *Orchestrator) logCompleted(report *RunReport) {
	o.logger.Info("Run completed",
		"collected", report.Collected,
		"pages", report.Pages,
		"stop_reason", string(report.StopReason),
		"images_downloaded", report.Images.Downloaded,
		"images_failed", report.Images.Failed,
		"archive", report.Images.Archive,
		"duration", report.Duration().String(),
	)
}
