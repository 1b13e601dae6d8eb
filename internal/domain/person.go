package domain

import "fmt"

// Person is a named historical figure: an author, editor, translator,
// annotator, or book owner.
type Person struct {
	ID             int64
	AuthorizedName string
	SortName       string // defaults to AuthorizedName when unset
	ViafURI        string // external name-authority identifier
	BirthYear      int    // 0 = unknown
	DeathYear      int    // 0 = unknown
	FamilyGroup    string
	Notes          string
}

// IndexID returns the stable search index identifier for the person.
func (p *Person) IndexID() string {
	return fmt.Sprintf("%s:%d", KindPerson, p.ID)
}

// Sort returns the name to sort by, falling back to the authorized name.
func (p *Person) Sort() string {
	if p.SortName != "" {
		return p.SortName
	}
	return p.AuthorizedName
}

// RelationshipType names a kind of relationship between people.
type RelationshipType struct {
	ID    int64
	Name  string
	Notes string
}

// Relationship is a typed, directed connection between two people.
type Relationship struct {
	FromPersonID int64
	ToPersonID   int64
	TypeID       int64
	StartYear    int
	EndYear      int
	Notes        string
}

// Residence places a person at a place for a date range.
type Residence struct {
	PersonID  int64
	PlaceID   int64
	StartYear int
	EndYear   int
	Notes     string
}
