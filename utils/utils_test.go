package utils

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreatePagination(t *testing.T) {
	p := CreatePagination(25, 0, 0)
	assert.Equal(t, 1, p.CurrentPage)
	assert.Equal(t, 10, p.PageSize)
	assert.Equal(t, 3, p.TotalPages)

	p = CreatePagination(0, 2, 5)
	assert.Equal(t, 0, p.TotalPages)
}

func TestPaginationBounds(t *testing.T) {
	cases := []struct {
		total, page, size int
		start, end        int
	}{
		{25, 1, 10, 0, 10},
		{25, 3, 10, 20, 25},
		{25, 4, 10, 25, 25},
		{0, 1, 10, 0, 0},
	}
	for _, c := range cases {
		start, end := CreatePagination(c.total, c.page, c.size).Bounds()
		assert.Equal(t, c.start, start, "total=%d page=%d", c.total, c.page)
		assert.Equal(t, c.end, end, "total=%d page=%d", c.total, c.page)
	}
}

func TestValidateAndNormalizeRole(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Admin", "admin", true},
		{"merchant", "merchant", true},
		{"STAFF", "staff", true},
		{"unknown", "unknown", false},
	}

	for _, c := range cases {
		got, ok := ValidateAndNormalizeRole(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("ValidateAndNormalizeRole(%q) = (%q, %v); want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNullStringToStringPtr(t *testing.T) {
	p := NullStringToStringPtr(sql.NullString{String: "hello", Valid: true})
	if p == nil || *p != "hello" {
		t.Fatalf("expected pointer to 'hello', got %v", p)
	}
	assert.Nil(t, NullStringToStringPtr(sql.NullString{}))
}

func TestPointerToString(t *testing.T) {
	s := "world"
	assert.Equal(t, "world", PointerToString(&s))
	assert.Equal(t, "<nil>", PointerToString(nil))
}
