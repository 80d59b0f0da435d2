package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lanews-extractor/internal/browser"
	"lanews-extractor/internal/normalize"
	"lanews-extractor/internal/observability"
)

var (
	// ErrListingUnavailable: контейнер выдачи не появился за таймаут
	ErrListingUnavailable = errors.New("search results listing unavailable")

	errStopExtraction = errors.New("date limit reached")
	errNoMorePages    = errors.New("no more pages")
)

type StopReason string

const (
	StopAgeLimit           StopReason = "age_limit"
	StopNoMorePages        StopReason = "no_more_pages"
	StopMaxPages           StopReason = "max_pages"
	StopListingUnavailable StopReason = "listing_unavailable"
	StopRetriesExhausted   StopReason = "retries_exhausted"
	StopBrowserError       StopReason = "browser_error"
	StopCancelled          StopReason = "cancelled"
)

type PaginatorOptions struct {
	SearchPhrase string
	// StopMonths: глубина выборки в месяцах, 0 считается как 1
	StopMonths      int
	MaxPages        int
	ListingTimeout  time.Duration
	NextPageTimeout time.Duration
}

type Result struct {
	Articles []*Article
	Pages    int
	Reason   StopReason
}

type Paginator struct {
	session    browser.Session
	locators   *Locators
	dates      *DateParser
	normalizer *normalize.Normalizer
	retrier    *Retrier
	opts       PaginatorOptions
	logger     *observability.Logger
	now        func() time.Time
}

func NewPaginator(
	session browser.Session,
	locators *Locators,
	dates *DateParser,
	normalizer *normalize.Normalizer,
	retrier *Retrier,
	opts PaginatorOptions,
	logger *observability.Logger,
) *Paginator {
	return &Paginator{
		session:    session,
		locators:   locators,
		dates:      dates,
		normalizer: normalizer,
		retrier:    retrier,
		opts:       opts,
		logger:     logger,
		now:        dates.now,
	}
}

type pageOutcome struct {
	batch  []*Article
	reason StopReason
}

// Run обходит страницы выдачи, начиная с текущей. Ошибка возвращается
// только вместе с частичным результатом.
func (p *Paginator) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	p.logger.Info("Starting pagination",
		"search_phrase", p.opts.SearchPhrase,
		"stop_months", p.opts.StopMonths,
		"max_pages", p.opts.MaxPages,
	)

	for result.Reason == "" {
		if p.opts.MaxPages > 0 && result.Pages >= p.opts.MaxPages {
			result.Reason = StopMaxPages
			break
		}
		if err := ctx.Err(); err != nil {
			result.Reason = StopCancelled
			p.logCompleted(result)
			return result, err
		}

		pageNum := result.Pages + 1
		var outcome pageOutcome
		err := p.retrier.Do(ctx, func(ctx context.Context) error {
			var err error
			outcome, err = p.processPage(ctx, pageNum)
			return err
		})

		switch {
		case err == nil:
		case ctx.Err() != nil:
			result.Reason = StopCancelled
			p.logCompleted(result)
			return result, fmt.Errorf("page %d: %w", pageNum, errors.Join(ctx.Err(), err))
		case errors.Is(err, ErrListingUnavailable):
			p.logger.Error("Listing not available, stopping",
				"page", pageNum,
				"error", err.Error(),
			)
			result.Reason = StopListingUnavailable
			p.logCompleted(result)
			return result, nil
		case browser.IsTransient(err):
			result.Reason = StopRetriesExhausted
			p.logCompleted(result)
			return result, fmt.Errorf("page %d: %w", pageNum, err)
		default:
			result.Reason = StopBrowserError
			p.logCompleted(result)
			return result, fmt.Errorf("page %d: %w", pageNum, err)
		}

		result.Pages++
		result.Articles = append(result.Articles, outcome.batch...)
		result.Reason = outcome.reason

		p.logger.Info("Page extracted",
			"page", pageNum,
			"articles", len(outcome.batch),
			"total", len(result.Articles),
		)
	}

	p.logCompleted(result)
	return result, nil
}

// processPage извлекает текущую страницу и переходит на следующую.
// Пачка статей возвращается только при успехе всего шага.
func (p *Paginator) processPage(ctx context.Context, pageNum int) (pageOutcome, error) {
	elements, err := p.pageElements(ctx)
	if err != nil {
		return pageOutcome{}, err
	}

	batch, err := p.extract(elements)
	if errors.Is(err, errStopExtraction) {
		p.logger.Info("Stopping to scrape because date limit reached", "page", pageNum)
		return pageOutcome{batch: batch, reason: StopAgeLimit}, nil
	}
	if err != nil {
		return pageOutcome{}, err
	}

	if err := p.advance(ctx); err != nil {
		if errors.Is(err, errNoMorePages) {
			p.logger.Info("No next page", "page", pageNum, "error", err.Error())
			return pageOutcome{batch: batch, reason: StopNoMorePages}, nil
		}
		return pageOutcome{}, err
	}

	return pageOutcome{batch: batch}, nil
}

func (p *Paginator) pageElements(ctx context.Context) ([]browser.Element, error) {
	err := p.session.WaitVisible(ctx, p.locators.Articles, p.opts.ListingTimeout)
	switch {
	case errors.Is(err, browser.ErrTimeout), errors.Is(err, browser.ErrNotFound), errors.Is(err, browser.ErrNoFrame):
		// Таймаут здесь не временный: не оборачиваем исходную ошибку
		return nil, fmt.Errorf("%w: %s after %s", ErrListingUnavailable, p.locators.Articles, p.opts.ListingTimeout)
	case err != nil:
		return nil, err
	}

	elements, err := p.session.Elements(ctx, p.locators.Articles)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return elements, nil
}

// extract разбирает карточки по порядку. Проверка даты идёт до
// построения записи: граничная статья не попадает в выборку.
func (p *Paginator) extract(elements []browser.Element) ([]*Article, error) {
	now := p.now()
	batch := make([]*Article, 0, len(elements))

	for i, el := range elements {
		dateRaw, err := p.readText(el, p.locators.Date)
		if err != nil {
			return nil, fmt.Errorf("article %d date: %w", i+1, err)
		}
		date := p.dates.Normalize(dateRaw)

		if IsOlderThan(date, p.opts.StopMonths, now) {
			p.logger.Debug("Article older than limit",
				"article", i+1,
				"date", date.String(),
			)
			return batch, errStopExtraction
		}

		title, err := p.readText(el, p.locators.Title)
		if err != nil {
			return nil, fmt.Errorf("article %d title: %w", i+1, err)
		}
		description, err := p.readText(el, p.locators.Description)
		if err != nil {
			return nil, fmt.Errorf("article %d description: %w", i+1, err)
		}
		imageURL, err := p.readAttribute(el, p.locators.Image, "src")
		if err != nil {
			return nil, fmt.Errorf("article %d image: %w", i+1, err)
		}

		article := NewArticle(title, description, date, imageURL, p.opts.SearchPhrase)
		batch = append(batch, article)

		p.logger.Debug("Article extracted",
			"article", i+1,
			"title", normalize.TruncatePreview(title, 80),
			"date", dateRaw,
			"contains_money", article.ContainsMoney,
			"search_term_count", article.SearchTermCount,
		)
	}

	return batch, nil
}

// advance переходит на следующую страницу или возвращает errNoMorePages
func (p *Paginator) advance(ctx context.Context) error {
	err := p.session.WaitVisible(ctx, p.locators.NextPage, p.opts.NextPageTimeout)
	switch {
	case errors.Is(err, browser.ErrTimeout), errors.Is(err, browser.ErrNotFound), errors.Is(err, browser.ErrNoFrame):
		return fmt.Errorf("%w: %s", errNoMorePages, err.Error())
	case err != nil:
		return err
	}

	err = p.session.Click(ctx, p.locators.NextPage)
	switch {
	case errors.Is(err, browser.ErrNotFound), errors.Is(err, browser.ErrNoFrame):
		return fmt.Errorf("%w: %s", errNoMorePages, err.Error())
	case err != nil:
		return fmt.Errorf("failed to open next page: %w", err)
	}
	return nil
}

// readText: отсутствующий элемент даёт пустую строку
func (p *Paginator) readText(el browser.Element, loc browser.Locator) (string, error) {
	child, err := el.Find(loc)
	if errors.Is(err, browser.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	text, err := child.Text()
	if err != nil {
		return "", err
	}
	return p.normalizer.CleanText(text), nil
}

func (p *Paginator) readAttribute(el browser.Element, loc browser.Locator, name string) (string, error) {
	child, err := el.Find(loc)
	if errors.Is(err, browser.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	value, err := child.Attribute(name)
	if errors.Is(err, browser.ErrNotFound) {
		return "", nil
	}
	return value, err
}

func (p *Paginator) logCompleted(result *Result) {
	p.logger.Info("Pagination completed",
		"pages", result.Pages,
		"articles", len(result.Articles),
		"reason", string(result.Reason),
	)
}
