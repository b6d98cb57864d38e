package query_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/document-manager/pkg/query"
)

func documentsProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "documents", "d").
		Project("id", "ID").
		Project("owner_id", "OwnerID").
		Project("title", "Title").
		Project("created_at", "CreatedAt")
}

var newestFirst = query.SortField{Field: "CreatedAt", Descending: true}

func TestBuilder_BuildPage(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		size     int
		sort     []query.SortField
		wantTail string
	}{
		{"default sort", 1, 20, nil, " ORDER BY d.created_at DESC LIMIT 20 OFFSET 0"},
		{"third page", 3, 10, nil, " ORDER BY d.created_at DESC LIMIT 10 OFFSET 20"},
		{"explicit sort", 1, 5, []query.SortField{{Field: "title"}, {Field: "ID", Descending: true}}, " ORDER BY d.title ASC, d.id DESC LIMIT 5 OFFSET 0"},
		{"unknown fields fall back", 1, 5, []query.SortField{{Field: "password"}}, " ORDER BY d.created_at DESC LIMIT 5 OFFSET 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := query.NewBuilder(documentsProjection(), newestFirst).OrderByFields(tt.sort)
			sql, args := b.BuildPage(tt.page, tt.size)

			assert.Equal(t, "SELECT d.id, d.owner_id, d.title, d.created_at FROM public.documents d"+tt.wantTail, sql)
			assert.Empty(t, args)
		})
	}
}

func TestBuilder_NoSort(t *testing.T) {
	sql, _ := query.NewBuilder(documentsProjection()).BuildPage(1, 10)
	assert.NotContains(t, sql, "ORDER BY")
}

func TestBuilder_Conditions(t *testing.T) {
	b := query.NewBuilder(documentsProjection()).
		WhereEquals("OwnerID", "u1").
		WhereEquals("Title", nil).
		WhereIn("ID").
		WhereIn("ID", "a", "b").
		Where("(d.title ILIKE $%d OR d.description ILIKE $%d)", "%q%", "%q%").
		Where("EXISTS (SELECT 1 FROM public.document_metadata m WHERE m.document_id = d.id AND m.key = $%d)", "author")

	sql, args := b.BuildCount()

	assert.Equal(t,
		"SELECT COUNT(*) FROM public.documents d WHERE d.owner_id = $1 AND d.id IN ($2, $3)"+
			" AND (d.title ILIKE $4 OR d.description ILIKE $5)"+
			" AND EXISTS (SELECT 1 FROM public.document_metadata m WHERE m.document_id = d.id AND m.key = $6)",
		sql)
	assert.Equal(t, []any{"u1", "a", "b", "%q%", "%q%", "author"}, args)
}

func TestBuilder_CountWithoutConditions(t *testing.T) {
	sql, args := query.NewBuilder(documentsProjection(), newestFirst).BuildCount()
	assert.Equal(t, "SELECT COUNT(*) FROM public.documents d", sql)
	assert.Nil(t, args)
}

func TestBuilder_TieBreak(t *testing.T) {
	tests := []struct {
		name     string
		sort     []query.SortField
		wantTail string
	}{
		{"appended to default", nil, " ORDER BY d.created_at DESC, d.id DESC LIMIT 10 OFFSET 0"},
		{"appended to explicit", []query.SortField{{Field: "Title"}}, " ORDER BY d.title ASC, d.id DESC LIMIT 10 OFFSET 0"},
		{"not repeated", []query.SortField{{Field: "id"}}, " ORDER BY d.id ASC LIMIT 10 OFFSET 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := query.NewBuilder(documentsProjection(), newestFirst).
				TieBreak("ID", true).
				OrderByFields(tt.sort)
			sql, _ := b.BuildPage(1, 10)
			assert.True(t, strings.HasSuffix(sql, tt.wantTail), sql)
		})
	}
}
