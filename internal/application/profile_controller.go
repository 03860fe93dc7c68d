package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/movemate/movesync/internal/domain/entity"
	repo "github.com/movemate/movesync/internal/domain/repository"
)

// ErrNoProfileLoaded is returned when a mutation is attempted before the
// first successful load.
var ErrNoProfileLoaded = errors.New("no profile loaded")

// ProfileController holds the latest known profile as observable state and
// orchestrates loads and writes against the repository. One controller exists
// per profile kind.
type ProfileController struct {
	repo   repo.ProfileRepository
	logger *logrus.Logger
	state  *State[*entity.Profile]

	es      *elasticsearch.Client
	esIndex string
}

func NewProfileController(r repo.ProfileRepository, logger *logrus.Logger) *ProfileController {
	return &ProfileController{
		repo:   r,
		logger: logger,
		state:  NewState[*entity.Profile](),
	}
}

// WithSearchIndex enables best-effort Elasticsearch indexing after saves.
func (c *ProfileController) WithSearchIndex(es *elasticsearch.Client, index string) *ProfileController {
	c.es = es
	c.esIndex = index
	return c
}

func (c *ProfileController) State() *State[*entity.Profile] { return c.state }

// Load fetches the principal's profile. On failure the previous value is
// retained and only the error signal changes.
func (c *ProfileController) Load(ctx context.Context) error {
	release := c.state.BeginLoad()
	defer release()

	p, err := c.repo.GetOwnProfile(ctx)
	if err != nil {
		c.state.Fail(err)
		return err
	}
	c.state.SetValue(p)
	return nil
}

// SetAvailability applies the new value optimistically before the remote
// write: observers see it as soon as this call returns. The returned channel
// resolves once the write is confirmed or rolled back. On failure the last
// confirmed value is restored first, then a corrective reload refreshes from
// the store when it is reachable; the unconfirmed mutation never survives a
// failed write even when the reload fails too.
func (c *ProfileController) SetAvailability(ctx context.Context, available bool) <-chan error {
	result := make(chan error, 1)

	cur := c.state.Get()
	if cur.Value == nil {
		c.state.Fail(ErrNoProfileLoaded)
		result <- ErrNoProfileLoaded
		return result
	}
	optimistic := *cur.Value
	optimistic.IsAvailable = available
	c.state.SetValue(&optimistic)

	go func() {
		p, err := c.repo.SetAvailability(ctx, available)
		if err != nil {
			if c.logger != nil {
				c.logger.WithError(err).Warn("availability update failed, rolling back")
			}
			c.state.SetValue(cur.Value)
			_ = c.Load(ctx)
			c.state.Fail(err)
			result <- err
			return
		}
		c.state.SetValue(p)
		c.indexProfile(ctx, p)
		result <- nil
	}()
	return result
}

// UpdateProfile is the non-optimistic path for full-form saves: the local
// value is replaced only once the repository confirms the write.
func (c *ProfileController) UpdateProfile(ctx context.Context, p *entity.Profile) (*entity.Profile, error) {
	release := c.state.BeginLoad()
	defer release()

	saved, err := c.repo.SaveProfile(ctx, p)
	if err != nil {
		c.state.Fail(err)
		return nil, err
	}
	c.state.SetValue(saved)
	c.indexProfile(ctx, saved)
	return saved, nil
}

func (c *ProfileController) indexProfile(ctx context.Context, p *entity.Profile) {
	if c.es == nil || c.esIndex == "" {
		return
	}
	doc := map[string]any{
		"subject_id":     p.SubjectID,
		"name":           p.Name,
		"city":           p.City,
		"area":           p.Area,
		"truck_type":     p.TruckType,
		"truck_capacity": p.TruckCapacity,
		"is_available":   p.IsAvailable,
		"updated_at":     p.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: c.esIndex, DocumentID: p.SubjectID, Body: strings.NewReader(string(b)), Refresh: "false"}
	ic, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(ic, c.es)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).WithField("subject_id", p.SubjectID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && c.logger != nil {
		c.logger.WithField("status", res.Status()).WithField("subject_id", p.SubjectID).Warn("es index response error")
	}
}

// SearchDrivers runs a multi_match over the indexed driver fields.
func (c *ProfileController) SearchDrivers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if c.es == nil || c.esIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name^2", "city", "area", "truck_type"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	sc, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := c.es.Search(c.es.Search.WithContext(sc), c.es.Search.WithIndex(c.esIndex), c.es.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
