package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"lanews-extractor/internal/observability"
)

type RodOptions struct {
	ChromePath  string
	Headless    bool
	PageTimeout time.Duration
}

const settleDuration = 500 * time.Millisecond

var _ Session = (*RodSession)(nil)

// RodSession управляет Chrome через DevTools протокол
type RodSession struct {
	browser     *rod.Browser
	page        *rod.Page
	pageTimeout time.Duration
	logger      *observability.Logger
}

func NewRodSession(ctx context.Context, opts RodOptions, logger *observability.Logger) (*RodSession, error) {
	l := launcher.New().Context(ctx).Headless(opts.Headless)
	if opts.ChromePath != "" {
		l = l.Bin(opts.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	logger.Info("Browser started", "headless", opts.Headless, "control_url", controlURL)

	return &RodSession{
		browser:     b,
		page:        page,
		pageTimeout: opts.PageTimeout,
		logger:      logger,
	}, nil
}

func (s *RodSession) Open(ctx context.Context, url string) error {
	p := s.page.Context(ctx).Timeout(s.pageTimeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, mapRodError(err))
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, mapRodError(err))
	}
	return nil
}

func (s *RodSession) Reload(ctx context.Context) error {
	p := s.page.Context(ctx).Timeout(s.pageTimeout)
	defer p.CancelTimeout()

	if err := p.Reload(); err != nil {
		return fmt.Errorf("reload: %w", mapRodError(err))
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load after reload: %w", mapRodError(err))
	}
	return nil
}

func (s *RodSession) WaitVisible(ctx context.Context, loc Locator, timeout time.Duration) error {
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	el, err := findOnPage(p, loc)
	if err != nil {
		return fmt.Errorf("wait visible %s: %w", loc, mapRodError(err))
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("wait visible %s: %w", loc, mapRodError(err))
	}
	return nil
}

func (s *RodSession) Click(ctx context.Context, loc Locator) error {
	err := s.withElement(ctx, loc, "click", func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
	if err != nil {
		return err
	}

	// Клик может запустить навигацию: ждём, пока страница успокоится
	p := s.page.Context(ctx).Timeout(s.pageTimeout)
	defer p.CancelTimeout()
	if err := p.WaitStable(settleDuration); err != nil {
		s.logger.Debug("Page did not settle after click", "locator", loc.String(), "error", err.Error())
	}
	return nil
}

func (s *RodSession) Input(ctx context.Context, loc Locator, text string) error {
	return s.withElement(ctx, loc, "input", func(el *rod.Element) error {
		return el.Input(text)
	})
}

func (s *RodSession) PressEnter(ctx context.Context, loc Locator) error {
	return s.withElement(ctx, loc, "press enter", func(el *rod.Element) error {
		return el.Type(input.Enter)
	})
}

func (s *RodSession) SelectOption(ctx context.Context, loc Locator, option string) error {
	return s.withElement(ctx, loc, "select", func(el *rod.Element) error {
		return el.Select([]string{option}, true, rod.SelectorTypeText)
	})
}

func (s *RodSession) Text(ctx context.Context, loc Locator) (string, error) {
	var text string
	err := s.withElement(ctx, loc, "text", func(el *rod.Element) error {
		var err error
		text, err = el.Text()
		return err
	})
	return text, err
}

func (s *RodSession) Elements(ctx context.Context, loc Locator) ([]Element, error) {
	els, err := s.page.Context(ctx).Elements(loc.CSS)
	if err != nil {
		return nil, fmt.Errorf("elements %s: %w", loc, mapRodError(err))
	}

	result := make([]Element, 0, len(els))
	for _, el := range els {
		if loc.Text != "" {
			text, err := el.Text()
			if err != nil {
				return nil, fmt.Errorf("elements %s: %w", loc, mapRodError(err))
			}
			if !strings.Contains(text, loc.Text) {
				continue
			}
		}
		result = append(result, &rodElement{el: el})
	}
	return result, nil
}

func (s *RodSession) Close() error {
	if s.browser == nil {
		return nil
	}
	return s.browser.Close()
}

func (s *RodSession) withElement(ctx context.Context, loc Locator, action string, fn func(el *rod.Element) error) error {
	p := s.page.Context(ctx).Timeout(s.pageTimeout)
	defer p.CancelTimeout()

	el, err := findOnPage(p, loc)
	if err != nil {
		return fmt.Errorf("%s %s: %w", action, loc, mapRodError(err))
	}
	if err := fn(el); err != nil {
		return fmt.Errorf("%s %s: %w", action, loc, mapRodError(err))
	}
	return nil
}

func findOnPage(p *rod.Page, loc Locator) (*rod.Element, error) {
	if loc.Text != "" {
		return p.ElementR(loc.CSS, regexp.QuoteMeta(loc.Text))
	}
	return p.Element(loc.CSS)
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Find(loc Locator) (Element, error) {
	els, err := e.el.Elements(loc.CSS)
	if err != nil {
		return nil, mapRodError(err)
	}
	for _, child := range els {
		if loc.Text != "" {
			text, err := child.Text()
			if err != nil {
				return nil, mapRodError(err)
			}
			if !strings.Contains(text, loc.Text) {
				continue
			}
		}
		return &rodElement{el: child}, nil
	}
	return nil, fmt.Errorf("%s: %w", loc, ErrNotFound)
}

func (e *rodElement) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", mapRodError(err)
	}
	return text, nil
}

func (e *rodElement) Attribute(name string) (string, error) {
	value, err := e.el.Attribute(name)
	if err != nil {
		return "", mapRodError(err)
	}
	if value == nil {
		return "", fmt.Errorf("attribute %s: %w", name, ErrNotFound)
	}
	return *value, nil
}

// mapRodError переводит ошибки rod/CDP в таксономию пакета
func mapRodError(err error) error {
	if err == nil {
		return nil
	}

	var (
		notFound     *rod.ElementNotFoundError
		objNotFound  *rod.ObjectNotFoundError
		pageNotFound *rod.PageNotFoundError
		cdpErr       *cdp.Error
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.As(err, &objNotFound):
		return fmt.Errorf("%w: %w", ErrStale, err)
	case errors.As(err, &notFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.As(err, &pageNotFound):
		return fmt.Errorf("%w: %w", ErrNoFrame, err)
	case errors.As(err, &cdpErr) && isDetachedNode(cdpErr.Message):
		return fmt.Errorf("%w: %w", ErrStale, err)
	}
	return err
}

func isDetachedNode(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "could not find node") ||
		strings.Contains(msg, "no node with given id") ||
		strings.Contains(msg, "cannot find context with specified id")
}
