package documents

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/document-manager/pkg/pagination"
	"github.com/JaimeStill/document-manager/pkg/query"
)

// Filters contains optional criteria for filtering document queries.
type Filters struct {
	MetadataKey *string
	Tag         *string
}

// FiltersFromQuery extracts document filters from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if k := strings.TrimSpace(values.Get("metadata_key")); k != "" {
		f.MetadataKey = &k
	}

	if t := strings.TrimSpace(values.Get("tag")); t != "" {
		f.Tag = &t
	}

	return f
}

// Apply adds filter conditions for owner's listing to the query builder.
func (f Filters) Apply(b *query.Builder, owner uuid.UUID) *query.Builder {
	b.WhereEquals("OwnerId", owner)

	if f.MetadataKey != nil {
		b.Where(`EXISTS (SELECT 1 FROM public.document_metadata m
			WHERE m.document_id = d.id AND m.key = $%d)`, *f.MetadataKey)
	}

	if f.Tag != nil {
		b.Where(`EXISTS (SELECT 1 FROM public.document_tags dt
			JOIN public.tags t ON t.id = dt.tag_id
			WHERE dt.document_id = d.id AND dt.owner_id = $%d AND t.name = $%d)`, owner, *f.Tag)
	}

	return b
}

// ListQuery builds the listing query for owner: filters, search, and the
// requested ordering with an id tie-break.
func ListQuery(owner uuid.UUID, page pagination.PageRequest, filters Filters) *query.Builder {
	qb := query.NewBuilder(projection, defaultSort).TieBreak(tieBreak.Field, tieBreak.Descending)
	filters.Apply(qb, owner)
	applySearch(qb, page.Search)
	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}
	return qb
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// applySearch matches search case-insensitively against title, description,
// and tag names. LIKE wildcards in search match literally. A document
// matching several tags is returned once.
func applySearch(b *query.Builder, search *string) *query.Builder {
	if search == nil || strings.TrimSpace(*search) == "" {
		return b
	}
	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(*search)) + "%"
	return b.Where(`(d.title ILIKE $%d OR d.description ILIKE $%d OR EXISTS (
		SELECT 1 FROM public.document_tags st
		JOIN public.tags tn ON tn.id = st.tag_id
		WHERE st.document_id = d.id AND tn.name ILIKE $%d))`, pattern, pattern, pattern)
}
