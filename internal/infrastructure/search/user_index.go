package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-hexagonal-users/internal/application"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/entity"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/repository"
	vo "github.com/oksasatya/go-hexagonal-users/internal/domain/valueobject"
)

const requestTimeout = 3 * time.Second

type userDoc struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IndexedAt string `json:"indexed_at"`
}

// UserIndex writes users to an Elasticsearch index and queries it.
type UserIndex struct {
	es     *elasticsearch.Client
	index  string
	logger *logrus.Logger
}

func NewUserIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *UserIndex {
	return &UserIndex{es: es, index: index, logger: logger}
}

const usersMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "long"},
      "name":       {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "email":      {"type": "text", "analyzer": "simple", "fields": {"raw": {"type": "keyword"}}},
      "indexed_at": {"type": "date"}
    }
  }
}`

// EnsureIndex creates the index with the users mapping when it is missing.
func (x *UserIndex) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{x.index}}.Do(ctx, x.es)
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	switch res.StatusCode {
	case 200:
		return nil
	case 404:
	default:
		return fmt.Errorf("check index %s: %s", x.index, res.Status())
	}

	res, err = esapi.IndicesCreateRequest{Index: x.index, Body: strings.NewReader(usersMapping)}.Do(ctx, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	// A concurrent starter may have created it first.
	if res.IsError() && res.StatusCode != 400 {
		return fmt.Errorf("create index %s: %s", x.index, res.Status())
	}
	if x.logger != nil {
		x.logger.WithField("index", x.index).Info("users index ready")
	}
	return nil
}

// Index upserts u. Users without an id are ignored.
func (x *UserIndex) Index(ctx context.Context, u *entity.User) error {
	id, ok := u.ID()
	if !ok {
		return nil
	}
	b, err := json.Marshal(userDoc{
		ID:        id.Value(),
		Name:      u.Name().Value(),
		Email:     u.Email().Value(),
		IndexedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: id.String(), Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index user %s: %s", id, res.Status())
	}
	return nil
}

// SearchUsers runs a multi_match over email and name.
func (x *UserIndex) SearchUsers(ctx context.Context, q string, size int) ([]application.UserHit, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search users: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string  `json:"_id"`
				Source userDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]application.UserHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id := h.Source.ID
		if id == 0 {
			id, _ = strconv.ParseInt(h.ID, 10, 64)
		}
		out = append(out, application.UserHit{ID: id, Name: h.Source.Name, Email: h.Source.Email})
	}
	return out, nil
}

var _ application.Searcher = (*UserIndex)(nil)

// IndexingRepository indexes every saved user. Index failures are logged
// and never fail the save.
type IndexingRepository struct {
	next  repository.UserRepository
	index *UserIndex
}

func NewIndexingRepository(next repository.UserRepository, index *UserIndex) *IndexingRepository {
	return &IndexingRepository{next: next, index: index}
}

func (r *IndexingRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	saved, err := r.next.Save(ctx, u)
	if err != nil {
		return nil, err
	}
	if ierr := r.index.Index(ctx, saved); ierr != nil && r.index.logger != nil {
		id, _ := saved.ID()
		r.index.logger.WithError(ierr).WithField("user_id", id.String()).Warn("es index failed")
	}
	return saved, nil
}

func (r *IndexingRepository) FindByID(ctx context.Context, id vo.UserID) (*entity.User, error) {
	return r.next.FindByID(ctx, id)
}

func (r *IndexingRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.next.ExistsByEmail(ctx, email)
}

var _ repository.UserRepository = (*IndexingRepository)(nil)
