package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound: элемента нет на странице (структурное отсутствие)
	ErrNotFound = errors.New("element not found")
	// ErrStale: ссылка на элемент устарела после перерисовки страницы
	ErrStale = errors.New("stale element reference")
	// ErrTimeout: ожидание элемента или действия вышло за таймаут
	ErrTimeout = errors.New("operation timed out")
	// ErrNoFrame: фрейм с результатами исчез
	ErrNoFrame = errors.New("results frame not available")
)

// IsTransient сообщает, имеет ли смысл перезагрузить страницу и повторить
func IsTransient(err error) bool {
	return errors.Is(err, ErrStale) || errors.Is(err, ErrTimeout)
}

// Locator описывает элемент: CSS-селектор и необязательный фильтр по тексту
type Locator struct {
	CSS  string `yaml:"css"`
	Text string `yaml:"text,omitempty"`
}

func (l Locator) String() string {
	if l.Text == "" {
		return l.CSS
	}
	return fmt.Sprintf("%s[text*=%q]", l.CSS, l.Text)
}

func (l Locator) IsZero() bool {
	return l.CSS == ""
}

// Element: найденный на странице элемент
type Element interface {
	// Find ищет первый дочерний элемент; ErrNotFound если его нет
	Find(loc Locator) (Element, error)
	Text() (string, error)
	// Attribute возвращает ErrNotFound если атрибута нет
	Attribute(name string) (string, error)
}

// Session: одна сессия браузера с одной открытой вкладкой
type Session interface {
	Open(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	WaitVisible(ctx context.Context, loc Locator, timeout time.Duration) error
	Click(ctx context.Context, loc Locator) error
	Input(ctx context.Context, loc Locator, text string) error
	PressEnter(ctx context.Context, loc Locator) error
	SelectOption(ctx context.Context, loc Locator, option string) error
	Text(ctx context.Context, loc Locator) (string, error)
	// Elements перечисляет совпадения в порядке документа, без ожидания
	Elements(ctx context.Context, loc Locator) ([]Element, error)
	Close() error
}
