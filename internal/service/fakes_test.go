package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/client-attendance-api/internal/models"
	"github.com/noah-isme/client-attendance-api/pkg/dates"
	appErrors "github.com/noah-isme/client-attendance-api/pkg/errors"
)

// memStore keeps clients and their attendance together so deletes cascade like
// the foreign key does in Postgres.
type memStore struct {
	mu        sync.Mutex
	clients   map[string]models.Client
	records   map[string]map[string]models.AttendanceRecord
	writeErr  error
	listCalls int
	// failListFrom makes the n-th and later ListByClient calls fail; zero disables.
	failListFrom int
}

func newMemStore(clients ...models.Client) *memStore {
	s := &memStore{clients: make(map[string]models.Client), records: make(map[string]map[string]models.AttendanceRecord)}
	for _, c := range clients {
		s.clients[c.ID] = c
	}
	return s
}

func (s *memStore) put(clientID string, date time.Time, state models.AttendanceState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[clientID] == nil {
		s.records[clientID] = make(map[string]models.AttendanceRecord)
	}
	s.records[clientID][dates.ISODate(date)] = models.AttendanceRecord{ID: uuid.NewString(), ClientID: clientID, Date: date, State: state}
}

func (s *memStore) stateOn(clientID, iso string) models.AttendanceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[clientID][iso].State
}

func (s *memStore) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		if filter.Location == "" || c.Location == filter.Location {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) FindByID(ctx context.Context, id string) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *memStore) Create(ctx context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	client.ID = uuid.NewString()
	client.CreatedAt = time.Now().UTC()
	client.UpdatedAt = client.CreatedAt
	s.clients[client.ID] = *client
	return nil
}

func (s *memStore) Update(ctx context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client.ID]; !ok {
		return sql.ErrNoRows
	}
	s.clients[client.ID] = *client
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.clients, id)
	delete(s.records, id)
	return nil
}

func (s *memStore) UpdatePaymentStatus(ctx context.Context, id, monthLabel string, state models.FundingState) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	payment := models.PaymentStatus{}
	for k, v := range c.PaymentStatus {
		payment[k] = v
	}
	payment[monthLabel] = state
	c.PaymentStatus = payment
	s.clients[id] = c
	return &c, nil
}

func (s *memStore) ListByClient(ctx context.Context, clientID string) ([]models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.failListFrom > 0 && s.listCalls >= s.failListFrom {
		return nil, errors.New("connection reset")
	}
	out := make([]models.AttendanceRecord, 0, len(s.records[clientID]))
	for _, rec := range s.records[clientID] {
		out = append(out, rec)
	}
	return out, nil
}

func (s *memStore) Upsert(ctx context.Context, clientID string, date time.Time, state models.AttendanceState) (*models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	if s.records[clientID] == nil {
		s.records[clientID] = make(map[string]models.AttendanceRecord)
	}
	iso := dates.ISODate(date)
	rec, ok := s.records[clientID][iso]
	if !ok {
		rec = models.AttendanceRecord{ID: uuid.NewString(), ClientID: clientID, Date: date}
	}
	rec.State = state
	s.records[clientID][iso] = rec
	return &rec, nil
}

func (s *memStore) Clear(ctx context.Context, clientID string, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return false, s.writeErr
	}
	iso := dates.ISODate(date)
	_, ok := s.records[clientID][iso]
	delete(s.records[clientID], iso)
	return ok, nil
}

// memCache is an in-memory CacheRepository.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	setErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}
