package pagination_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/document-manager/pkg/pagination"
	"github.com/JaimeStill/document-manager/pkg/query"
)

var pageCfg = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		in         pagination.PageRequest
		page, size int
		offset     int
	}{
		{"kept", pagination.PageRequest{Page: 3, PageSize: 25}, 3, 25, 50},
		{"page below one", pagination.PageRequest{Page: -4, PageSize: 25}, 1, 25, 0},
		{"size defaulted", pagination.PageRequest{Page: 2}, 2, 20, 20},
		{"negative size defaulted", pagination.PageRequest{Page: 1, PageSize: -1}, 1, 20, 0},
		{"size capped", pagination.PageRequest{Page: 2, PageSize: 500}, 2, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Normalize(pageCfg)
			assert.Equal(t, tt.page, tt.in.Page)
			assert.Equal(t, tt.size, tt.in.PageSize)
			assert.Equal(t, tt.offset, tt.in.Offset())
		})
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		page   int
		size   int
		search string
		sort   []query.SortField
	}{
		{name: "empty", query: "", page: 1, size: 20},
		{name: "paging", query: "page=2&page_size=5", page: 2, size: 5},
		{name: "garbage numbers", query: "page=two&page_size=x", page: 1, size: 20},
		{name: "capped", query: "page_size=1000", page: 1, size: 100},
		{name: "search trimmed", query: "search=+invoice+", page: 1, size: 20, search: "invoice"},
		{name: "blank search ignored", query: "search=+++", page: 1, size: 20},
		{
			name:  "sort",
			query: "sort=-created_at,title",
			page:  1,
			size:  20,
			sort: []query.SortField{
				{Field: "created_at", Descending: true},
				{Field: "title"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			req := pagination.PageRequestFromQuery(values, pageCfg)
			assert.Equal(t, tt.page, req.Page)
			assert.Equal(t, tt.size, req.PageSize)
			assert.Equal(t, tt.sort, req.Sort)
			if tt.search == "" {
				assert.Nil(t, req.Search)
			} else if assert.NotNil(t, req.Search) {
				assert.Equal(t, tt.search, *req.Search)
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		total, size, pages int
	}{
		{total: 40, size: 20, pages: 2},
		{total: 41, size: 20, pages: 3},
		{total: 3, size: 20, pages: 1},
		{total: 0, size: 20, pages: 1},
	}

	for _, tt := range tests {
		r := pagination.NewPageResult([]string{"a"}, tt.total, 1, tt.size)
		assert.Equal(t, tt.pages, r.TotalPages, "total=%d size=%d", tt.total, tt.size)
	}

	empty := pagination.NewPageResult[string](nil, 0, 1, 20)
	assert.NotNil(t, empty.Data)
	assert.Empty(t, empty.Data)
}
