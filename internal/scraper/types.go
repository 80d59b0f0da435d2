package scraper

import (
	"reflect"
	"strings"

	"github.com/golang-sql/civil"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lanews-extractor/internal/browser"
)

// Article: запись о статье. Порядок полей с тегом column задаёт
// порядок колонок выгрузки.
type Article struct {
	Title           string      `column:"title"`
	Description     string      `column:"description"`
	PublishedDate   *civil.Date `column:"published_date"`
	ContainsMoney   bool        `column:"contains_money"`
	SearchTermCount int         `column:"search_term_count"`
	ImagePath       *string     `column:"image_path"`

	// ImageURL: src превью; заполняется при разборе, в выгрузку не попадает
	ImageURL string `column:"-"`
}

// NewArticle собирает запись и классифицирует текст
func NewArticle(title, description string, date *civil.Date, imageURL, searchTerm string) *Article {
	return &Article{
		Title:           title,
		Description:     description,
		PublishedDate:   date,
		ContainsMoney:   ContainsMoney(title) || ContainsMoney(description),
		SearchTermCount: CountOccurrences(title, description, searchTerm),
		ImageURL:        imageURL,
	}
}

// Row: проекция записи на колонки; nil-значения дают пустые ячейки
func (a *Article) Row() []any {
	date := ""
	if a.PublishedDate != nil {
		date = a.PublishedDate.String()
	}
	image := ""
	if a.ImagePath != nil {
		image = *a.ImagePath
	}

	return []any{a.Title, a.Description, date, a.ContainsMoney, a.SearchTermCount, image}
}

// Columns возвращает заголовки: "published_date" → "Published Date"
func Columns() []string {
	caser := cases.Title(language.English)
	t := reflect.TypeOf(Article{})

	var columns []string
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("column")
		if name == "" || name == "-" {
			continue
		}
		columns = append(columns, caser.String(strings.ReplaceAll(name, "_", " ")))
	}
	return columns
}

func Rows(articles []*Article) [][]any {
	rows := make([][]any, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, a.Row())
	}
	return rows
}

// Locators: локаторы страницы поиска. Title, Description, Date и Image
// ищутся внутри карточки статьи.
type Locators struct {
	SearchButton browser.Locator `yaml:"search_button"`
	SearchField  browser.Locator `yaml:"search_field"`
	Category     browser.Locator `yaml:"category"`
	SortSelect   browser.Locator `yaml:"sort_select"`
	SortOption   string          `yaml:"sort_option"`
	Loading      browser.Locator `yaml:"loading"`
	Articles     browser.Locator `yaml:"articles"`
	Title        browser.Locator `yaml:"title"`
	Description  browser.Locator `yaml:"description"`
	Date         browser.Locator `yaml:"date"`
	Image        browser.Locator `yaml:"image"`
	NextPage     browser.Locator `yaml:"next_page"`
	PageCounts   browser.Locator `yaml:"page_counts"`
}

// DefaultLocators: разметка страницы поиска LA Times
func DefaultLocators() *Locators {
	return &Locators{
		SearchButton: browser.Locator{CSS: "button[data-element='search-button']"},
		SearchField:  browser.Locator{CSS: "input[name='q']"},
		Category:     browser.Locator{CSS: "ul.search-filter-menu label span", Text: "Story"},
		SortSelect:   browser.Locator{CSS: "div.select select.select-input"},
		SortOption:   "Newest",
		Loading:      browser.Locator{CSS: "div.loading-icon"},
		Articles:     browser.Locator{CSS: "ul.search-results-module-results-menu div.promo-wrapper"},
		Title:        browser.Locator{CSS: "div.promo-content div.promo-title-container h3.promo-title a.link"},
		Description:  browser.Locator{CSS: "div.promo-content p.promo-description"},
		Date:         browser.Locator{CSS: "div.promo-content p.promo-timestamp"},
		Image:        browser.Locator{CSS: "div.promo-media a.link.promo-placeholder img.image"},
		NextPage:     browser.Locator{CSS: "div.search-results-module-next-page a"},
		PageCounts:   browser.Locator{CSS: "div.search-results-module-page-counts"},
	}
}
