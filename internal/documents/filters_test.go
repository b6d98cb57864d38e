package documents_test

import (
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/document-manager/internal/documents"
	"github.com/JaimeStill/document-manager/pkg/pagination"
	"github.com/JaimeStill/document-manager/pkg/query"
)

func TestFiltersFromQuery(t *testing.T) {
	f := documents.FiltersFromQuery(url.Values{
		"metadata_key": {" category "},
		"tag":          {""},
	})

	require.NotNil(t, f.MetadataKey)
	assert.Equal(t, "category", *f.MetadataKey)
	assert.Nil(t, f.Tag)
}

func TestFilters_Apply(t *testing.T) {
	owner := uuid.New()
	key, tag := "category", "finance"
	projection := query.NewProjectionMap("public", "documents", "d").
		Project("owner_id", "OwnerId")

	b := query.NewBuilder(projection)
	documents.Filters{MetadataKey: &key, Tag: &tag}.Apply(b, owner)

	sql, args := b.BuildCount()
	assert.Contains(t, sql, "owner_id = $1")
	assert.Contains(t, sql, "m.key = $2")
	assert.Contains(t, sql, "dt.owner_id = $3 AND t.name = $4")
	assert.Equal(t, []any{owner, "category", owner, "finance"}, args)
}

func TestFilters_ApplyOwnerOnly(t *testing.T) {
	owner := uuid.New()
	projection := query.NewProjectionMap("public", "documents", "d").
		Project("owner_id", "OwnerId")

	b := query.NewBuilder(projection)
	documents.Filters{}.Apply(b, owner)

	sql, args := b.BuildCount()
	assert.NotContains(t, sql, "EXISTS")
	assert.Equal(t, []any{owner}, args)
}

func TestListQuery_SearchIsLiteral(t *testing.T) {
	tests := []struct {
		search string
		want   string
	}{
		{"invoice", `%invoice%`},
		{" 100% ", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\tmp`, `%c:\\tmp%`},
	}

	owner := uuid.New()
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			search := tt.search
			_, args := documents.ListQuery(owner, pagination.PageRequest{Search: &search}, documents.Filters{}).BuildCount()
			assert.Equal(t, []any{owner, tt.want, tt.want, tt.want}, args)
		})
	}
}

func TestListQuery_Ordering(t *testing.T) {
	owner := uuid.New()

	sql, _ := documents.ListQuery(owner, pagination.PageRequest{Page: 2, PageSize: 10}, documents.Filters{}).BuildPage(2, 10)
	assert.Contains(t, sql, "ORDER BY d.created_at DESC, d.id DESC LIMIT 10 OFFSET 10")

	sort := pagination.PageRequest{Sort: []query.SortField{{Field: "title"}}}
	sql, _ = documents.ListQuery(owner, sort, documents.Filters{}).BuildPage(1, 10)
	assert.Contains(t, sql, "ORDER BY d.title ASC, d.id DESC")
}
