package parser

import (
	"context"
	"io"
	"log/slog"
	"rssaggregator/internal/domain"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// FeedParser разбирает документы RSS 0.9x/1.0/2.0, Atom и JSON Feed в доменную модель.
type FeedParser struct {
	log *slog.Logger
}

func NewFeedParser(log *slog.Logger) *FeedParser {
	return &FeedParser{
		log: log,
	}
}

// Parse реализует метод интерфейса FeedParser.
// Отсутствующее название ленты заменяется на domain.UntitledFeed, пустой список новостей не считается ошибкой.
// Документ, не являющийся лентой, возвращает *domain.ParseError.
func (p *FeedParser) Parse(ctx context.Context, reader io.Reader) (*domain.Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// gofeed.Parser хранит состояние разбора, поэтому для каждого документа создается свой.
	parsed, err := gofeed.NewParser().Parse(reader)
	if err != nil {
		p.log.Debug("Error decoding feed",
			slog.String("component", "parser"),
			slog.Any("error", err),
		)
		return nil, &domain.ParseError{Err: err}
	}
	feed := domain.Feed{
		Title: strings.TrimSpace(parsed.Title),
		Items: make([]domain.RawItem, 0, len(parsed.Items)),
	}
	if feed.Title == "" {
		feed.Title = domain.UntitledFeed
	}
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		feed.Items = append(feed.Items, toRawItem(item))
	}
	return &feed, nil
}

func toRawItem(item *gofeed.Item) domain.RawItem {
	raw := domain.RawItem{
		Title:           item.Title,
		Link:            item.Link,
		Published:       item.Published,
		PublishedParsed: item.PublishedParsed,
		Enclosure:       resolveEnclosure(item),
	}
	if raw.Link == "" && len(item.Links) > 0 {
		raw.Link = item.Links[0]
	}
	// Atom-записи без published датируются по updated.
	if raw.Published == "" && raw.PublishedParsed == nil {
		raw.Published = item.Updated
		raw.PublishedParsed = item.UpdatedParsed
	}
	return raw
}

// resolveEnclosure выбирает вложение новости: явный <enclosure> имеет приоритет
// над <media:content> (в том числе вложенным в <media:group>).
func resolveEnclosure(item *gofeed.Item) *domain.Enclosure {
	for _, enc := range item.Enclosures {
		if enc != nil && strings.TrimSpace(enc.URL) != "" {
			return &domain.Enclosure{URL: strings.TrimSpace(enc.URL), Type: strings.TrimSpace(enc.Type)}
		}
	}
	media, ok := item.Extensions["media"]
	if !ok {
		return nil
	}
	if enc := firstMediaContent(media["content"]); enc != nil {
		return enc
	}
	for _, group := range media["group"] {
		if enc := firstMediaContent(group.Children["content"]); enc != nil {
			return enc
		}
	}
	return nil
}

func firstMediaContent(contents []ext.Extension) *domain.Enclosure {
	for _, content := range contents {
		if u := strings.TrimSpace(content.Attrs["url"]); u != "" {
			return &domain.Enclosure{URL: u, Type: strings.TrimSpace(content.Attrs["type"])}
		}
	}
	return nil
}
