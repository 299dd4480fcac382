package pagination_test

import (
	"testing"

	"github.com/sangkips/fieldops-api/pkg/pagination"
	"github.com/stretchr/testify/assert"
)

func TestFromQuery(t *testing.T) {
	tests := []struct {
		name        string
		page        string
		perPage     string
		wantPage    int
		wantPerPage int
	}{
		{name: "defaults", wantPage: 1, wantPerPage: 15},
		{name: "explicit", page: "3", perPage: "20", wantPage: 3, wantPerPage: 20},
		{name: "garbage ignored", page: "abc", perPage: "-", wantPage: 1, wantPerPage: 15},
		{name: "clamped", page: "0", perPage: "500", wantPage: 1, wantPerPage: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := pagination.FromQuery(tt.page, tt.perPage)
			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantPerPage, params.PerPage)
		})
	}
}

func TestNewPagination(t *testing.T) {
	p := pagination.NewPagination(2, 10, 35)

	assert.Equal(t, 4, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)
	assert.Equal(t, 30, (&pagination.PaginationParams{Page: 4, PerPage: 10}).Offset())
}
