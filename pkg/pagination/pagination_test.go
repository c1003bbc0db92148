package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Params{Page: 1, Limit: DefaultLimit}, Params{}.Normalize())
	assert.Equal(t, Params{Page: 3, Limit: MaxLimit}, Params{Page: 3, Limit: 5000}.Normalize())
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, Params{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, Params{Page: -4, Limit: 10}.Offset())
}

func TestNewMeta(t *testing.T) {
	assert.Equal(t, Meta{Page: 2, Limit: 50, Total: 101, TotalPages: 3}, NewMeta(Params{Page: 2}, 101))
	assert.Equal(t, 0, NewMeta(Params{}, 0).TotalPages)
	assert.Equal(t, 1, NewMeta(Params{Limit: 50}, 50).TotalPages)
}
