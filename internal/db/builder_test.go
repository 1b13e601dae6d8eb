package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Simple(t *testing.T) {
	idx := NewIndex("catalog:docs:idx").
		Prefix("catalog:doc:").
		Tag("kind").
		Numeric("pub_year").
		MustBuild()

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "catalog:docs:idx" {
		t.Errorf("name = %q, want catalog:docs:idx", idx.Name)
	}
	if len(idx.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Fields))
	}
	if idx.Fields[0].Name != "kind" || idx.Fields[0].Type != IndexFieldTag {
		t.Errorf("field[0] = %+v, want kind TAG", idx.Fields[0])
	}
	if idx.Fields[1].Name != "pub_year" || idx.Fields[1].Type != IndexFieldNumeric {
		t.Errorf("field[1] = %+v, want pub_year NUMERIC", idx.Fields[1])
	}
}

func TestIndexBuilder_SortableFields(t *testing.T) {
	idx := NewIndex("catalog:docs:idx").
		Prefix("catalog:doc:").
		NumericSortable("pub_year").
		TagSortable("author_sort", "|").
		MustBuild()

	if !idx.Fields[0].Sortable {
		t.Error("expected pub_year to be sortable")
	}
	f := idx.Fields[1]
	if !f.Sortable || f.TagSeparator != "|" {
		t.Errorf("author_sort = %+v, want sortable with | separator", f)
	}
}

func TestIndexBuilder_TagOptions(t *testing.T) {
	idx := NewIndex("catalog:docs:idx").
		Prefix("catalog:doc:").
		TagWithOpts("annotator", "|", true).
		MustBuild()

	f := idx.Fields[0]
	if f.TagSeparator != "|" {
		t.Errorf("separator = %q, want |", f.TagSeparator)
	}
	if !f.TagCaseSensitive {
		t.Error("expected TagCaseSensitive=true")
	}
}

func TestIndexBuilder_Text(t *testing.T) {
	idx := NewIndex("catalog:docs:idx").
		Prefix("catalog:doc:").
		Text("text").
		MustBuild()

	if idx.Fields[0].Type != IndexFieldText {
		t.Errorf("field = %+v, want TEXT", idx.Fields[0])
	}
}

func TestIndexBuilder_MultiplePrefixes(t *testing.T) {
	idx := NewIndex("catalog:docs:idx").
		Prefix("catalog:doc:book:", "catalog:doc:person:", "catalog:doc:place:").
		Tag("kind").
		MustBuild()

	if len(idx.Prefixes) != 3 {
		t.Errorf("prefix count = %d, want 3", len(idx.Prefixes))
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").Tag("kind").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "invalid characters",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx with spaces").Tag("kind").Build()
			},
			wantErr: "invalid characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := NewIndex("catalog:docs:idx").
		Prefix("catalog:doc:").
		Tag("kind").
		NumericSortable("pub_year").
		MustBuild()

	s := idx.String()
	if !strings.HasPrefix(s, "FT.CREATE ") {
		t.Errorf("expected FT.CREATE prefix, got %q", s)
	}
	if !strings.Contains(s, "pub_year NUMERIC SORTABLE") {
		t.Errorf("missing sortable numeric field in %q", s)
	}
}

func TestIndexBuilder_Alias(t *testing.T) {
	idx := &IndexDefinition{
		Name:     "catalog:docs:idx",
		Prefixes: []string{"catalog:doc:"},
		Fields: []IndexField{
			{Name: "author_names", Alias: "authors", Type: IndexFieldTag},
		},
	}

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Fields[0].Alias != "authors" {
		t.Errorf("alias = %q, want authors", idx.Fields[0].Alias)
	}
}

func TestIndexBuilder_DuplicateFields(t *testing.T) {
	idx := &IndexDefinition{
		Name: "catalog:docs:idx",
		Fields: []IndexField{
			{Name: "pub_year", Type: IndexFieldNumeric},
			{Name: "pub_year", Type: IndexFieldTag},
		},
	}

	if err := idx.Validate(); err == nil {
		t.Fatal("expected error for duplicate fields")
	}
}
