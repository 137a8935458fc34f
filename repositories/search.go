package repositories

import (
	"clipchat/domain"
	"clipchat/domain/search"
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
)

// SearchIndex maintains a Bluge full-text index over room messages, fed
// on every append. The durable message document stays the source of
// truth; the index can always be rebuilt from it.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

// Hit is one search result, newest first.
type Hit struct {
	ID      string
	Author  string
	Content string
	Lang    string
}

// Index upserts one message document keyed by its ID.
func (s *SearchIndex) Index(roomKey domain.RoomKey, message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("room", roomKey.String()).StoreValue()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewKeywordField("author", message.Author).StoreValue()).
		AddField(bluge.NewKeywordField("lang", message.Lang).StoreValue()).
		AddField(bluge.NewNumericField("at", float64(message.PostedAt.UnixNano())).Sortable())

	return s.writer.Update(doc.ID(), doc)
}

// Search runs a parsed query scoped to one room and returns hits newest
// first, capped at the query limit.
func (s *SearchIndex) Search(ctx context.Context, roomKey domain.RoomKey, query *search.Query) ([]Hit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer reader.Close()

	boolean := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(roomKey.String()).SetField("room"))
	if query.Terms != "" {
		boolean.AddMust(bluge.NewMatchQuery(query.Terms).SetField("content"))
	}
	if query.Lang != "" {
		boolean.AddMust(bluge.NewTermQuery(query.Lang).SetField("lang"))
	}

	request := bluge.NewTopNSearch(query.Limit, boolean).SortBy([]string{"-at"})
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var hits []Hit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate results: %w", err)
		}
		if match == nil {
			break
		}

		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.ID = string(value)
			case "author":
				hit.Author = string(value)
			case "content":
				hit.Content = string(value)
			case "lang":
				hit.Lang = string(value)
			}
			return true
		})
		if err != nil {
			return nil, fmt.Errorf("load stored fields: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
