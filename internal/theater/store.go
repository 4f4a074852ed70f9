package theater

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store is the persistence the theater service needs. SaveTheater inserts
// when t.ID is zero and assigns the new id; otherwise it replaces the row.
type Store interface {
	FindTheaterByID(ctx context.Context, id int) (Theater, error)
	SaveTheater(ctx context.Context, t Theater) (Theater, error)
	DeleteTheater(ctx context.Context, id int) error
	ListTheaters(ctx context.Context) ([]Theater, error)
}

type MemoryStore struct {
	nowFunc   func() time.Time
	stateFile string

	mu       sync.RWMutex
	nextID   int
	theaters map[int]Theater
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nowFunc:  time.Now,
		nextID:   1,
		theaters: make(map[int]Theater),
	}
}

func NewMemoryStoreWithFile(stateFile string) (*MemoryStore, error) {
	s := NewMemoryStore()
	s.stateFile = strings.TrimSpace(stateFile)
	if s.stateFile == "" {
		return nil, fmt.Errorf("state file path is required")
	}
	if err := s.loadState(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemoryStore) FindTheaterByID(_ context.Context, id int) (Theater, error) {
	s.mu.RLock()
	t, ok := s.theaters[id]
	s.mu.RUnlock()
	if !ok {
		return Theater{}, ErrNotFound
	}
	return t.Clone(), nil
}

func (s *MemoryStore) ListTheaters(_ context.Context) ([]Theater, error) {
	s.mu.RLock()
	out := make([]Theater, 0, len(s.theaters))
	for _, t := range s.theaters {
		out = append(out, t.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) SaveTheater(_ context.Context, t Theater) (Theater, error) {
	now := s.nowFunc().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, prevNext := cloneTheaters(s.theaters), s.nextID

	if t.ID == 0 {
		t.ID = s.nextID
		s.nextID++
		t.CreatedAt = now
	} else {
		existing, ok := s.theaters[t.ID]
		if !ok {
			return Theater{}, ErrNotFound
		}
		t.CreatedAt = existing.CreatedAt
	}
	t.UpdatedAt = now
	s.theaters[t.ID] = t.Clone()

	if err := s.persistLocked(); err != nil {
		s.theaters, s.nextID = prev, prevNext
		return Theater{}, err
	}
	return t, nil
}

func (s *MemoryStore) DeleteTheater(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := cloneTheaters(s.theaters)
	if _, ok := s.theaters[id]; !ok {
		return ErrNotFound
	}
	delete(s.theaters, id)
	if err := s.persistLocked(); err != nil {
		s.theaters = prev
		return err
	}
	return nil
}

func (s *MemoryStore) loadState() error {
	b, err := os.ReadFile(s.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read theater state: %w", err)
	}
	if len(b) == 0 {
		return nil
	}
	var decoded []storedTheater
	if err := json.Unmarshal(b, &decoded); err != nil {
		return fmt.Errorf("decode theater state: %w", err)
	}
	for _, st := range decoded {
		if st.ID <= 0 {
			continue
		}
		s.theaters[st.ID] = st.theater()
		if st.ID >= s.nextID {
			s.nextID = st.ID + 1
		}
	}
	return nil
}

func (s *MemoryStore) persistLocked() error {
	if s.stateFile == "" {
		return nil
	}
	out := make([]storedTheater, 0, len(s.theaters))
	for _, t := range s.theaters {
		out = append(out, newStoredTheater(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode theater state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.stateFile), 0o755); err != nil {
		return fmt.Errorf("mkdir theater state dir: %w", err)
	}
	if err := os.WriteFile(s.stateFile, b, 0o644); err != nil {
		return fmt.Errorf("write theater state: %w", err)
	}
	return nil
}

// storedTheater keeps the timestamps that the API representation hides.
type storedTheater struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	SeatCount int       `json:"seatCount"`
	ManagerID *int      `json:"managerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newStoredTheater(t Theater) storedTheater {
	t = t.Clone()
	return storedTheater{
		ID:        t.ID,
		Name:      t.Name,
		Address:   t.Address,
		SeatCount: t.SeatCount,
		ManagerID: t.ManagerID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (st storedTheater) theater() Theater {
	return Theater{
		ID:        st.ID,
		Name:      st.Name,
		Address:   st.Address,
		SeatCount: st.SeatCount,
		ManagerID: st.ManagerID,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}.Clone()
}

func cloneTheaters(src map[int]Theater) map[int]Theater {
	out := make(map[int]Theater, len(src))
	for k, v := range src {
		out[k] = v.Clone()
	}
	return out
}
