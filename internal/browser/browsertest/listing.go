// Package browsertest собирает HTML-снимки страницы поиска для тестов
package browsertest

import (
	"fmt"
	"html"
	"strings"
)

type Article struct {
	Title       string
	Description string
	// Date пустая: элемента даты нет в карточке
	Date     string
	ImageSrc string
}

// ListingPage рендерит страницу выдачи с поиском, фильтрами и карточками.
// hasNext добавляет ссылку на следующую страницу.
func ListingPage(page, total int, articles []Article, hasNext bool) []byte {
	var b strings.Builder

	b.WriteString("<html><body>\n")
	b.WriteString(`<button data-element="search-button">Search</button>` + "\n")
	b.WriteString(`<form><input name="q" type="text"></form>` + "\n")
	b.WriteString(`<ul class="search-filter-menu"><li><label><input type="checkbox"><span>Story</span></label></li></ul>` + "\n")
	b.WriteString(`<div class="select"><select class="select-input"><option>Relevance</option><option>Newest</option></select></div>` + "\n")
	b.WriteString(`<div class="loading-icon"></div>` + "\n")
	fmt.Fprintf(&b, `<div class="search-results-module-page-counts">%d of %d</div>`+"\n", page, total)

	b.WriteString(`<ul class="search-results-module-results-menu">` + "\n")
	for _, a := range articles {
		b.WriteString(`<li><div class="promo-wrapper">`)
		if a.ImageSrc != "" {
			fmt.Fprintf(&b, `<div class="promo-media"><a class="link promo-placeholder"><img class="image" src="%s"></a></div>`,
				html.EscapeString(a.ImageSrc))
		}
		b.WriteString(`<div class="promo-content">`)
		fmt.Fprintf(&b, `<div class="promo-title-container"><h3 class="promo-title"><a class="link">%s</a></h3></div>`,
			html.EscapeString(a.Title))
		fmt.Fprintf(&b, `<p class="promo-description">%s</p>`, html.EscapeString(a.Description))
		if a.Date != "" {
			fmt.Fprintf(&b, `<p class="promo-timestamp">%s</p>`, html.EscapeString(a.Date))
		}
		b.WriteString("</div></div></li>\n")
	}
	b.WriteString("</ul>\n")

	if hasNext {
		b.WriteString(`<div class="search-results-module-next-page"><a href="#next">Next</a></div>` + "\n")
	}
	b.WriteString("</body></html>\n")

	return []byte(b.String())
}

// EmptyPage: страница без контейнера выдачи
func EmptyPage() []byte {
	return []byte("<html><body><p>Nothing here</p></body></html>")
}
