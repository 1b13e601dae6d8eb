package chi

import (
	"github.com/winthrop-cdh/catalog/internal/domain"
	bookuc "github.com/winthrop-cdh/catalog/internal/usecase/book"
	footnoteuc "github.com/winthrop-cdh/catalog/internal/usecase/footnote"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error body codes.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeNotFound          = "not_found"
	codeAlreadyExists     = "already_exists"
	codeAmbiguousMatch    = "ambiguous_match"
	codeQueryParse        = "query_parse_error"
	codeSearchUnavailable = "search_unavailable"
	codeInternalError     = "internal_error"
)

type bookJSON struct {
	Slug                string `json:"slug"`
	Title               string `json:"title"`
	ShortTitle          string `json:"short_title,omitempty"`
	OriginalPubInfo     string `json:"original_pub_info,omitempty"`
	PublisherID         int64  `json:"publisher_id,omitempty"`
	PubPlaceID          int64  `json:"pub_place_id,omitempty"`
	PubYear             int    `json:"pub_year,omitempty"`
	IsExtant            bool   `json:"is_extant"`
	IsAnnotated         bool   `json:"is_annotated"`
	IsDigitized         bool   `json:"is_digitized"`
	RedCatalogNumber    string `json:"red_catalog_number,omitempty"`
	InkCatalogNumber    string `json:"ink_catalog_number,omitempty"`
	PencilCatalogNumber string `json:"pencil_catalog_number,omitempty"`
	Dimensions          string `json:"dimensions,omitempty"`
	Notes               string `json:"notes,omitempty"`
	DigitalEditionURI   string `json:"digital_edition_uri,omitempty"`
}

func bookToJSON(b *domain.Book) bookJSON {
	return bookJSON{
		Slug:                b.Slug,
		Title:               b.Title,
		ShortTitle:          b.ShortTitle,
		OriginalPubInfo:     b.OriginalPubInfo,
		PublisherID:         b.PublisherID,
		PubPlaceID:          b.PubPlaceID,
		PubYear:             b.PubYear,
		IsExtant:            b.IsExtant,
		IsAnnotated:         b.IsAnnotated,
		IsDigitized:         b.IsDigitized,
		RedCatalogNumber:    b.RedCatalogNumber,
		InkCatalogNumber:    b.InkCatalogNumber,
		PencilCatalogNumber: b.PencilCatalogNumber,
		Dimensions:          b.Dimensions,
		Notes:               b.Notes,
		DigitalEditionURI:   b.DigitalEditionURI,
	}
}

func bookFromJSON(j bookJSON) domain.Book {
	return domain.Book{
		Slug:                j.Slug,
		Title:               j.Title,
		ShortTitle:          j.ShortTitle,
		OriginalPubInfo:     j.OriginalPubInfo,
		PublisherID:         j.PublisherID,
		PubPlaceID:          j.PubPlaceID,
		PubYear:             j.PubYear,
		IsExtant:            j.IsExtant,
		IsAnnotated:         j.IsAnnotated,
		IsDigitized:         j.IsDigitized,
		RedCatalogNumber:    j.RedCatalogNumber,
		InkCatalogNumber:    j.InkCatalogNumber,
		PencilCatalogNumber: j.PencilCatalogNumber,
		Dimensions:          j.Dimensions,
		Notes:               j.Notes,
		DigitalEditionURI:   j.DigitalEditionURI,
	}
}

// createBookRequest carries the book fields plus the first author name
// used to derive the slug.
type createBookRequest struct {
	bookJSON
	FirstAuthor string `json:"first_author,omitempty"`
}

type catalogueJSON struct {
	InstitutionID int64  `json:"institution_id"`
	StartYear     int    `json:"start_year,omitempty"`
	EndYear       int    `json:"end_year,omitempty"`
	IsCurrent     bool   `json:"is_current"`
	CallNumber    string `json:"call_number,omitempty"`
	IsSammelband  bool   `json:"is_sammelband"`
	BoundOrder    int    `json:"bound_order,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type bookDetailResponse struct {
	Book       bookJSON           `json:"book"`
	Credits    []bookuc.CreditRef `json:"credits"`
	Publisher  string             `json:"publisher,omitempty"`
	PubPlace   string             `json:"pub_place,omitempty"`
	Subjects   []string           `json:"subjects"`
	Languages  []string           `json:"languages"`
	Catalogues []catalogueJSON    `json:"catalogues"`
}

func detailToJSON(d *bookuc.Detail) bookDetailResponse {
	resp := bookDetailResponse{
		Book:       bookToJSON(d.Book),
		Credits:    d.Credits,
		Publisher:  d.Publisher,
		PubPlace:   d.PubPlace,
		Subjects:   d.Subjects,
		Languages:  d.Languages,
		Catalogues: make([]catalogueJSON, 0, len(d.Catalogues)),
	}
	if resp.Credits == nil {
		resp.Credits = []bookuc.CreditRef{}
	}
	for _, c := range d.Catalogues {
		resp.Catalogues = append(resp.Catalogues, catalogueJSON{
			InstitutionID: c.InstitutionID,
			StartYear:     c.StartYear,
			EndYear:       c.EndYear,
			IsCurrent:     c.IsCurrent,
			CallNumber:    c.CallNumber,
			IsSammelband:  c.IsSammelband,
			BoundOrder:    c.BoundOrder,
			Notes:         c.Notes,
		})
	}
	return resp
}

type creatorRequest struct {
	PersonID    int64  `json:"person_id"`
	CreatorType string `json:"creator_type"`
	Notes       string `json:"notes,omitempty"`
}

type personBookRequest struct {
	PersonID  int64  `json:"person_id"`
	StartYear int    `json:"start_year,omitempty"`
	EndYear   int    `json:"end_year,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type residenceRequest struct {
	PlaceID   int64  `json:"place_id"`
	StartYear int    `json:"start_year,omitempty"`
	EndYear   int    `json:"end_year,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type relationshipRequest struct {
	ToPersonID int64  `json:"to_person_id"`
	TypeID     int64  `json:"type_id"`
	StartYear  int    `json:"start_year,omitempty"`
	EndYear    int    `json:"end_year,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type personJSON struct {
	ID             int64  `json:"id"`
	AuthorizedName string `json:"authorized_name"`
	SortName       string `json:"sort_name,omitempty"`
	ViafURI        string `json:"viaf_uri,omitempty"`
	BirthYear      int    `json:"birth_year,omitempty"`
	DeathYear      int    `json:"death_year,omitempty"`
	FamilyGroup    string `json:"family_group,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

func personToJSON(p *domain.Person) personJSON {
	return personJSON{
		ID:             p.ID,
		AuthorizedName: p.AuthorizedName,
		SortName:       p.SortName,
		ViafURI:        p.ViafURI,
		BirthYear:      p.BirthYear,
		DeathYear:      p.DeathYear,
		FamilyGroup:    p.FamilyGroup,
		Notes:          p.Notes,
	}
}

func personFromJSON(j personJSON) domain.Person {
	return domain.Person{
		ID:             j.ID,
		AuthorizedName: j.AuthorizedName,
		SortName:       j.SortName,
		ViafURI:        j.ViafURI,
		BirthYear:      j.BirthYear,
		DeathYear:      j.DeathYear,
		FamilyGroup:    j.FamilyGroup,
		Notes:          j.Notes,
	}
}

type placeJSON struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	GeoNamesURI string  `json:"geonames_uri,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

func placeToJSON(p *domain.Place) placeJSON {
	return placeJSON{
		ID:          p.ID,
		Name:        p.Name,
		GeoNamesURI: p.GeoNamesURI,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Notes:       p.Notes,
	}
}

func placeFromJSON(j placeJSON) domain.Place {
	return domain.Place{
		ID:          j.ID,
		Name:        j.Name,
		GeoNamesURI: j.GeoNamesURI,
		Latitude:    j.Latitude,
		Longitude:   j.Longitude,
		Notes:       j.Notes,
	}
}

type annotationJSON struct {
	ID        string         `json:"id,omitempty"`
	Text      string         `json:"text"`
	Quote     string         `json:"quote,omitempty"`
	URI       string         `json:"uri"`
	CanvasURI string         `json:"canvas_uri,omitempty"`
	AuthorID  int64          `json:"author_id,omitempty"`
	ExtraData map[string]any `json:"extra_data,omitempty"`
}

func annotationToJSON(a *domain.Annotation) annotationJSON {
	return annotationJSON{
		ID:        a.ID,
		Text:      a.Text,
		Quote:     a.Quote,
		URI:       a.URI,
		CanvasURI: a.CanvasURI,
		AuthorID:  a.AuthorID,
		ExtraData: a.ExtraData,
	}
}

func annotationFromJSON(j annotationJSON) domain.Annotation {
	return domain.Annotation{
		ID:        j.ID,
		Text:      j.Text,
		Quote:     j.Quote,
		URI:       j.URI,
		AuthorID:  j.AuthorID,
		ExtraData: j.ExtraData,
	}
}

type bibliographyRequest struct {
	BibliographicNote string `json:"bibliographic_note"`
	SourceType        string `json:"source_type"`
}

type bibliographyJSON struct {
	ID                int64  `json:"id"`
	BibliographicNote string `json:"bibliographic_note"`
	SourceTypeID      int64  `json:"source_type_id"`
	Notes             string `json:"notes,omitempty"`
}

func bibliographyToJSON(b *domain.Bibliography) bibliographyJSON {
	return bibliographyJSON{
		ID:                b.ID,
		BibliographicNote: b.BibliographicNote,
		SourceTypeID:      b.SourceTypeID,
		Notes:             b.Notes,
	}
}

type footnoteRequest struct {
	BibliographyID int64  `json:"bibliography_id"`
	Location       string `json:"location,omitempty"`
	SnippetText    string `json:"snippet_text,omitempty"`
	Kind           string `json:"kind"`
	RefID          string `json:"ref_id"`
	IsAgree        bool   `json:"is_agree"`
	Notes          string `json:"notes,omitempty"`
}

type footnoteJSON struct {
	ID             int64  `json:"id"`
	BibliographyID int64  `json:"bibliography_id"`
	Location       string `json:"location,omitempty"`
	SnippetText    string `json:"snippet_text,omitempty"`
	Kind           string `json:"kind"`
	RefID          string `json:"ref_id"`
	IsAgree        bool   `json:"is_agree"`
	Notes          string `json:"notes,omitempty"`
}

type citationJSON struct {
	Footnote     footnoteJSON     `json:"footnote"`
	Bibliography bibliographyJSON `json:"bibliography"`
	Target       string           `json:"target"`
}

func citationToJSON(c footnoteuc.Citation) citationJSON {
	return citationJSON{
		Footnote: footnoteJSON{
			ID:             c.Footnote.ID,
			BibliographyID: c.Footnote.BibliographyID,
			Location:       c.Footnote.Location,
			SnippetText:    c.Footnote.SnippetText,
			Kind:           string(c.Footnote.ContentRef.Kind),
			RefID:          c.Footnote.ContentRef.ID,
			IsAgree:        c.Footnote.IsAgree,
			Notes:          c.Footnote.Notes,
		},
		Bibliography: bibliographyToJSON(c.Bibliography),
		Target:       c.Target,
	}
}
