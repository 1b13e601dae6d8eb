package footnote

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	sourceTypes    map[string]*domain.SourceType
	bibliographies map[int64]*domain.Bibliography
	footnotes      []*domain.Footnote
	nextID         int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		sourceTypes:    make(map[string]*domain.SourceType),
		bibliographies: make(map[int64]*domain.Bibliography),
	}
}

func (m *mockRepo) GetOrCreateSourceType(_ context.Context, name string) (*domain.SourceType, bool, error) {
	if st, ok := m.sourceTypes[name]; ok {
		return st, false, nil
	}
	m.nextID++
	st := &domain.SourceType{ID: m.nextID, Name: name}
	m.sourceTypes[name] = st
	return st, true, nil
}

func (m *mockRepo) CreateBibliography(_ context.Context, b *domain.Bibliography) error {
	m.nextID++
	b.ID = m.nextID
	m.bibliographies[b.ID] = b
	return nil
}

func (m *mockRepo) GetBibliography(_ context.Context, id int64) (*domain.Bibliography, error) {
	b, ok := m.bibliographies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (m *mockRepo) CreateFootnote(_ context.Context, f *domain.Footnote) error {
	m.nextID++
	f.ID = m.nextID
	m.footnotes = append(m.footnotes, f)
	return nil
}

func (m *mockRepo) FootnotesFor(_ context.Context, ref domain.ContentRef) ([]*domain.Footnote, error) {
	var out []*domain.Footnote
	for _, f := range m.footnotes {
		if f.ContentRef == ref {
			out = append(out, f)
		}
	}
	return out, nil
}

func testResolver() *domain.ContentResolver {
	r := domain.NewContentResolver()
	r.Register(domain.KindBook, func(_ context.Context, id string) (string, error) {
		if id != "mather-magnalia-1702" {
			return "", domain.ErrNotFound
		}
		return "Magnalia Christi Americana", nil
	})
	return r
}

// --- Tests ---

func TestCreateBibliography(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, testResolver())

	bib, err := svc.CreateBibliography(context.Background(), "Mather, Diary, vol. 1", "monograph")
	if err != nil {
		t.Fatalf("CreateBibliography: %v", err)
	}
	if bib.ID == 0 || bib.SourceTypeID == 0 {
		t.Errorf("bibliography = %+v", bib)
	}
	if repo.sourceTypes["monograph"] == nil {
		t.Error("source type not created")
	}

	// The same source type is reused on a second bibliography.
	again, err := svc.CreateBibliography(context.Background(), "Mather, Diary, vol. 2", "monograph")
	if err != nil {
		t.Fatal(err)
	}
	if again.SourceTypeID != bib.SourceTypeID {
		t.Errorf("source type ids differ: %d vs %d", again.SourceTypeID, bib.SourceTypeID)
	}
}

func TestCreateBibliography_EmptyNote(t *testing.T) {
	svc := New(newMockRepo(), testResolver())
	if _, err := svc.CreateBibliography(context.Background(), "", "monograph"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestAttach(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, testResolver())

	bib, err := svc.CreateBibliography(context.Background(), "Mather, Diary", "monograph")
	if err != nil {
		t.Fatal(err)
	}

	f := &domain.Footnote{
		BibliographyID: bib.ID,
		Location:       "p. 12",
		ContentRef:     domain.ContentRef{Kind: domain.KindBook, ID: "mather-magnalia-1702"},
	}
	if err := svc.Attach(context.Background(), f); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if f.ID == 0 || len(repo.footnotes) != 1 {
		t.Errorf("footnote = %+v", f)
	}
}

func TestAttach_MissingBibliography(t *testing.T) {
	svc := New(newMockRepo(), testResolver())
	f := &domain.Footnote{
		BibliographyID: 99,
		ContentRef:     domain.ContentRef{Kind: domain.KindBook, ID: "mather-magnalia-1702"},
	}
	if err := svc.Attach(context.Background(), f); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAttach_UnresolvableTarget(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, testResolver())

	bib, err := svc.CreateBibliography(context.Background(), "Mather, Diary", "monograph")
	if err != nil {
		t.Fatal(err)
	}
	f := &domain.Footnote{
		BibliographyID: bib.ID,
		ContentRef:     domain.ContentRef{Kind: domain.KindBook, ID: "gone"},
	}
	if err := svc.Attach(context.Background(), f); err == nil {
		t.Fatal("expected error for unresolvable target")
	}
	if len(repo.footnotes) != 0 {
		t.Errorf("footnotes = %+v", repo.footnotes)
	}
}

func TestFor(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, testResolver())

	bib, err := svc.CreateBibliography(context.Background(), "Mather, Diary", "monograph")
	if err != nil {
		t.Fatal(err)
	}
	ref := domain.ContentRef{Kind: domain.KindBook, ID: "mather-magnalia-1702"}
	for i := 0; i < 2; i++ {
		f := &domain.Footnote{
			BibliographyID: bib.ID,
			Location:       fmt.Sprintf("p. %d", i+1),
			ContentRef:     ref,
		}
		if err := svc.Attach(context.Background(), f); err != nil {
			t.Fatal(err)
		}
	}

	citations, err := svc.For(context.Background(), ref)
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if len(citations) != 2 {
		t.Fatalf("citations = %+v", citations)
	}
	if citations[0].Target != "Magnalia Christi Americana" {
		t.Errorf("target = %q", citations[0].Target)
	}
	if citations[0].Bibliography.ID != bib.ID {
		t.Errorf("bibliography = %+v", citations[0].Bibliography)
	}
}
