package paging

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/vidhub-core/internal/apperr"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want Params
	}{
		{Params{}, Params{Page: 1, Limit: DefaultLimit}},
		{Params{Page: 3, Limit: 20}, Params{Page: 3, Limit: 20}},
		{Params{Page: -1, Limit: 500}, Params{Page: 1, Limit: MaxLimit}},
		{Params{Page: math.MaxInt, Limit: MaxLimit}, Params{Page: MaxPage, Limit: MaxLimit}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Normalize())
	}
	assert.Equal(t, 40, Params{Page: 3, Limit: 20}.Offset())
	assert.Equal(t, (MaxPage-1)*MaxLimit, Params{Page: math.MaxInt, Limit: MaxLimit}.Offset())
}

func TestFromQuery(t *testing.T) {
	p, err := FromQuery(url.Values{"page": {"2"}, "limit": {"5"}})
	require.NoError(t, err)
	assert.Equal(t, Params{Page: 2, Limit: 5}, p)

	_, err = FromQuery(url.Values{"page": {"two"}})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = FromQuery(url.Values{"page": {"9223372036854775807"}})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "page is out of range", apperr.MessageOf(err))
}

func TestNew(t *testing.T) {
	page := New([]string{"a", "b"}, 5, Params{Page: 1, Limit: 2})
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)

	empty := New[string](nil, 0, Params{})
	assert.NotNil(t, empty.Items)
	assert.False(t, empty.HasNext)
}
