package places

import (
	"context"
	"errors"
	"testing"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	places map[int64]*domain.Place
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{places: make(map[int64]*domain.Place)}
}

func (m *mockRepo) Get(_ context.Context, id int64) (*domain.Place, error) {
	p, ok := m.places[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) FindByName(_ context.Context, name string) (*domain.Place, error) {
	for _, p := range m.places {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRepo) Create(_ context.Context, p *domain.Place) error {
	m.nextID++
	p.ID = m.nextID
	m.places[p.ID] = p
	return nil
}

func (m *mockRepo) Save(_ context.Context, p *domain.Place) error {
	if _, ok := m.places[p.ID]; !ok {
		return domain.ErrNotFound
	}
	m.places[p.ID] = p
	return nil
}

func (m *mockRepo) ListNames(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(m.places))
	for _, p := range m.places {
		names = append(names, p.Name)
	}
	return names, nil
}

type mockProjector struct {
	dependents map[string][]string
	kinds      []domain.Kind
	indexed    []string
}

func (m *mockProjector) DependentBooks(_ context.Context, kind domain.Kind, pk string) ([]string, error) {
	m.kinds = append(m.kinds, kind)
	return m.dependents[pk], nil
}

func (m *mockProjector) IndexBooks(_ context.Context, slugs ...string) error {
	m.indexed = append(m.indexed, slugs...)
	return nil
}

// --- Tests ---

func TestUpdate_ReindexesDependentBooks(t *testing.T) {
	repo := newMockRepo()
	proj := &mockProjector{dependents: map[string][]string{"1": {"mather-magnalia-1702"}}}
	svc := New(repo, proj)

	p := &domain.Place{Name: "London"}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	p.GeoNamesURI = "http://sws.geonames.org/2643743/"
	if err := svc.Update(context.Background(), p); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(proj.kinds) != 1 || proj.kinds[0] != domain.KindPlace {
		t.Errorf("kinds = %v", proj.kinds)
	}
	if len(proj.indexed) != 1 || proj.indexed[0] != "mather-magnalia-1702" {
		t.Errorf("indexed = %v", proj.indexed)
	}
}

func TestUpdate_MissingPlace(t *testing.T) {
	svc := New(newMockRepo(), &mockProjector{})
	err := svc.Update(context.Background(), &domain.Place{ID: 42, Name: "Atlantis"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFindByName(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, &mockProjector{})
	if err := svc.Create(context.Background(), &domain.Place{Name: "London"}); err != nil {
		t.Fatal(err)
	}

	p, err := svc.FindByName(context.Background(), "London")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if p.Name != "London" {
		t.Errorf("place = %+v", p)
	}
}
