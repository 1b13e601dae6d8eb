package book

import (
	"strconv"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// Hash field mapping for book and related records. Booleans are stored
// as "1"/"0", absent numerics as empty strings.

func fieldsFromBook(b *domain.Book) map[string]string {
	return map[string]string{
		"slug":              b.Slug,
		"title":             b.Title,
		"short_title":       b.ShortTitle,
		"original_pub_info": b.OriginalPubInfo,
		"publisher_id":      itoa64(b.PublisherID),
		"pub_place_id":      itoa64(b.PubPlaceID),
		"pub_year":          itoa(b.PubYear),
		"is_extant":         btoa(b.IsExtant),
		"is_annotated":      btoa(b.IsAnnotated),
		"is_digitized":      btoa(b.IsDigitized),
		"red_catalog_num":   b.RedCatalogNumber,
		"ink_catalog_num":   b.InkCatalogNumber,
		"pencil_catalog_num": b.PencilCatalogNumber,
		"dimensions":        b.Dimensions,
		"notes":             b.Notes,
		"digital_edition":   b.DigitalEditionURI,
	}
}

func bookFromFields(f map[string]string) *domain.Book {
	return &domain.Book{
		Slug:                f["slug"],
		Title:               f["title"],
		ShortTitle:          f["short_title"],
		OriginalPubInfo:     f["original_pub_info"],
		PublisherID:         atoi64(f["publisher_id"]),
		PubPlaceID:          atoi64(f["pub_place_id"]),
		PubYear:             atoi(f["pub_year"]),
		IsExtant:            f["is_extant"] == "1",
		IsAnnotated:         f["is_annotated"] == "1",
		IsDigitized:         f["is_digitized"] == "1",
		RedCatalogNumber:    f["red_catalog_num"],
		InkCatalogNumber:    f["ink_catalog_num"],
		PencilCatalogNumber: f["pencil_catalog_num"],
		Dimensions:          f["dimensions"],
		Notes:               f["notes"],
		DigitalEditionURI:   f["digital_edition"],
	}
}

func fieldsFromCatalogue(c *domain.Catalogue) map[string]string {
	return map[string]string{
		"institution_id": itoa64(c.InstitutionID),
		"book_slug":      c.BookSlug,
		"start_year":     itoa(c.StartYear),
		"end_year":       itoa(c.EndYear),
		"is_current":     btoa(c.IsCurrent),
		"call_number":    c.CallNumber,
		"is_sammelband":  btoa(c.IsSammelband),
		"bound_order":    itoa(c.BoundOrder),
		"notes":          c.Notes,
	}
}

func catalogueFromFields(f map[string]string) *domain.Catalogue {
	return &domain.Catalogue{
		InstitutionID: atoi64(f["institution_id"]),
		BookSlug:      f["book_slug"],
		StartYear:     atoi(f["start_year"]),
		EndYear:       atoi(f["end_year"]),
		IsCurrent:     f["is_current"] == "1",
		CallNumber:    f["call_number"],
		IsSammelband:  f["is_sammelband"] == "1",
		BoundOrder:    atoi(f["bound_order"]),
		Notes:         f["notes"],
	}
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func itoa64(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

func btoa(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
