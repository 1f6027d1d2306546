package usecase

import (
	"fmt"
	"rssaggregator/internal/domain"
	"slices"
	"strings"
	"time"
)

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parsePubDate разбирает дату публикации в одном из распространенных форматов RSS/Atom.
// Даты без часового пояса считаются UTC.
func parsePubDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse date in any known format: %q", dateStr)
}

// publishTime возвращает дату публикации новости или nil, если её нет или она не разбирается.
// Дата, уже разобранная парсером ленты, имеет приоритет над повторным разбором строки.
func publishTime(raw domain.RawItem) *time.Time {
	if raw.PublishedParsed != nil && !raw.PublishedParsed.IsZero() {
		t := *raw.PublishedParsed
		return &t
	}
	t, err := parsePubDate(raw.Published)
	if err != nil {
		return nil
	}
	return &t
}

// SortByPublishTime упорядочивает новости по убыванию даты публикации.
// Новости с датой стабильно сортируются между собой и занимают позиции, которые
// датированные новости занимали изначально; новости без даты остаются на своих местах.
func SortByPublishTime(items []domain.Item) {
	slots := make([]int, 0, len(items))
	dated := make([]domain.Item, 0, len(items))
	for i, item := range items {
		if item.HasPublishTime() {
			slots = append(slots, i)
			dated = append(dated, item)
		}
	}
	slices.SortStableFunc(dated, func(a, b domain.Item) int {
		return b.PublishedAt.Compare(*a.PublishedAt)
	})
	for k, idx := range slots {
		items[idx] = dated[k]
	}
}
