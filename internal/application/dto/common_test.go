package dto

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPage(t *testing.T) {
	p := PageRequest{}
	p.DefaultPage()
	assert.Equal(t, PageRequest{Page: 1, PerPage: DefaultPerPage}, p)

	p = PageRequest{Page: 3, PerPage: 1000}
	p.DefaultPage()
	assert.Equal(t, PageRequest{Page: 3, PerPage: MaxPerPage}, p)

	p = PageRequest{Page: math.MaxInt, PerPage: 20}
	p.DefaultPage()
	assert.Equal(t, math.MaxInt/20, p.Page)
	assert.Positive(t, (p.Page-1)*p.PerPage, "el desplazamiento no desborda")
}

func TestNewPageResponse(t *testing.T) {
	assert.EqualValues(t, 2, NewPageResponse(1, 3, 4).Pages)
	assert.EqualValues(t, 0, NewPageResponse(1, 20, 0).Pages)
}
