package result

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aditya-makadiya/sociofeed/pkg/errors"
)

func TestOk(t *testing.T) {
	r := Ok(42)

	assert.True(t, r.IsOk())
	assert.Equal(t, 42, r.Value())
	assert.NoError(t, r.Error())
	assert.Empty(t, r.Message())
}

func TestErr(t *testing.T) {
	r := Err[int](errors.FromStatus(404, "Post not found", nil))

	assert.False(t, r.IsOk())
	assert.Zero(t, r.Value())
	assert.Equal(t, "Post not found", r.Message())

	v, err := r.Unwrap()
	assert.Zero(t, v)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestErrNilIsStillErr(t *testing.T) {
	r := Err[string](nil)

	assert.False(t, r.IsOk())
	assert.Equal(t, errors.MsgUnexpected, r.Message())
}
