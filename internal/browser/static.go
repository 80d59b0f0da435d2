package browser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var _ Session = (*StaticSession)(nil)

// StaticSession проигрывает сохранённые HTML-страницы выдачи.
// Клик по локатору следующей страницы переключает на следующий снимок.
type StaticSession struct {
	pages   []*goquery.Document
	current int
	next    Locator
}

func NewStaticSession(pages [][]byte, next Locator) (*StaticSession, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("static session needs at least one page")
	}

	docs := make([]*goquery.Document, 0, len(pages))
	for i, html := range pages {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %d: %w", i+1, err)
		}
		docs = append(docs, doc)
	}

	return &StaticSession{pages: docs, next: next}, nil
}

// LoadStaticDir загружает *.html из каталога в лексикографическом порядке
func LoadStaticDir(dir string, next Locator) (*StaticSession, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(files)

	pages := make([][]byte, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}
		pages = append(pages, data)
	}

	return NewStaticSession(pages, next)
}

// Page возвращает номер текущего снимка, начиная с 1
func (s *StaticSession) Page() int {
	return s.current + 1
}

func (s *StaticSession) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.current = 0
	return nil
}

func (s *StaticSession) Reload(ctx context.Context) error {
	return ctx.Err()
}

// WaitVisible не ждёт: снимок статичен, отсутствие сразу даёт ErrTimeout
func (s *StaticSession) WaitVisible(ctx context.Context, loc Locator, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.find(loc).Length() == 0 {
		return fmt.Errorf("wait visible %s after %s: %w", loc, timeout, ErrTimeout)
	}
	return nil
}

func (s *StaticSession) Click(ctx context.Context, loc Locator) error {
	if err := s.require(ctx, loc); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	if loc != s.next {
		return nil
	}
	if s.current+1 >= len(s.pages) {
		return fmt.Errorf("click %s on last snapshot: %w", loc, ErrNoFrame)
	}
	s.current++
	return nil
}

func (s *StaticSession) Input(ctx context.Context, loc Locator, text string) error {
	return s.require(ctx, loc)
}

func (s *StaticSession) PressEnter(ctx context.Context, loc Locator) error {
	return s.require(ctx, loc)
}

func (s *StaticSession) SelectOption(ctx context.Context, loc Locator, option string) error {
	if err := s.require(ctx, loc); err != nil {
		return err
	}
	opt := s.find(loc).Find("option").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return strings.TrimSpace(sel.Text()) == option
	})
	if opt.Length() == 0 {
		return fmt.Errorf("option %q in %s: %w", option, loc, ErrNotFound)
	}
	return nil
}

func (s *StaticSession) Text(ctx context.Context, loc Locator) (string, error) {
	if err := s.require(ctx, loc); err != nil {
		return "", err
	}
	return strings.TrimSpace(s.find(loc).First().Text()), nil
}

func (s *StaticSession) Elements(ctx context.Context, loc Locator) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result []Element
	s.find(loc).Each(func(_ int, sel *goquery.Selection) {
		result = append(result, &staticElement{sel: sel})
	})
	return result, nil
}

func (s *StaticSession) Close() error {
	return nil
}

func (s *StaticSession) require(ctx context.Context, loc Locator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.find(loc).Length() == 0 {
		return fmt.Errorf("%s: %w", loc, ErrNotFound)
	}
	return nil
}

func (s *StaticSession) find(loc Locator) *goquery.Selection {
	return filterText(s.pages[s.current].Find(loc.CSS), loc.Text)
}

type staticElement struct {
	sel *goquery.Selection
}

func (e *staticElement) Find(loc Locator) (Element, error) {
	found := filterText(e.sel.Find(loc.CSS), loc.Text)
	if found.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", loc, ErrNotFound)
	}
	return &staticElement{sel: found.First()}, nil
}

func (e *staticElement) Text() (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e *staticElement) Attribute(name string) (string, error) {
	value, ok := e.sel.Attr(name)
	if !ok {
		return "", fmt.Errorf("attribute %s: %w", name, ErrNotFound)
	}
	return value, nil
}

// filterText оставляет элементы, чей собственный текст содержит text
func filterText(sel *goquery.Selection, text string) *goquery.Selection {
	if text == "" {
		return sel
	}
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		own := s.Contents().FilterFunction(func(_ int, c *goquery.Selection) bool {
			return goquery.NodeName(c) == "#text"
		}).Text()
		return strings.Contains(own, text)
	})
}
