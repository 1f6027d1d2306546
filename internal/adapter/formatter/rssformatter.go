package formatter

import (
	"bytes"
	"encoding/xml"
	"rssaggregator/internal/domain"
	"time"
)

// DisplayLayout - формат даты публикации в выходной ленте, например "Jan 02 2006 | 15:04".
const DisplayLayout = "Jan 02 2006 | 15:04"

// Channel описывает метаданные канала выходного документа.
type Channel struct {
	Title       string
	Link        string
	Description string
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title,omitempty"`
	Link        string    `xml:"link,omitempty"`
	Description string    `xml:"description,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	PubDate     string        `xml:"pubDate"`
	Description string        `xml:"description"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

// RSSFormatter сериализует агрегированные новости в документ RSS 2.0.
// Даты выводятся в часовом поясе location, в description пишется название источника.
type RSSFormatter struct {
	location *time.Location
	channel  Channel
}

// NewRSSFormatter создает форматтер. При nil location используется UTC.
func NewRSSFormatter(location *time.Location, channel Channel) *RSSFormatter {
	if location == nil {
		location = time.UTC
	}
	return &RSSFormatter{
		location: location,
		channel:  channel,
	}
}

// Format реализует метод интерфейса FeedFormatter.
// Результат детерминирован для одной и той же последовательности новостей.
func (f *RSSFormatter) Format(items []domain.Item) ([]byte, error) {
	doc := rssDocument{
		Version: "2.0",
		Channel: rssChannel{
			Title:       f.channel.Title,
			Link:        f.channel.Link,
			Description: f.channel.Description,
			Items:       make([]rssItem, 0, len(items)),
		},
	}
	for _, item := range items {
		doc.Channel.Items = append(doc.Channel.Items, f.toRSSItem(item))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, &domain.FormatError{Err: err}
	}
	if err := enc.Close(); err != nil {
		return nil, &domain.FormatError{Err: err}
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (f *RSSFormatter) toRSSItem(item domain.Item) rssItem {
	out := rssItem{
		Title:       item.Title,
		Link:        item.Link,
		Description: item.SourceTitle,
	}
	if out.Title == "" {
		out.Title = domain.UntitledItem
	}
	if item.PublishedAt != nil {
		out.PubDate = item.PublishedAt.In(f.location).Format(DisplayLayout)
	}
	if item.Enclosure != nil && item.Enclosure.URL != "" {
		mimeType := item.Enclosure.Type
		if mimeType == "" {
			mimeType = domain.DefaultEnclosureType
		}
		out.Enclosure = &rssEnclosure{URL: item.Enclosure.URL, Type: mimeType}
	}
	return out
}
