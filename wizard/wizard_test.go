// ABOUTME: Tests for the generic wizard step machine
// ABOUTME: Forward gating, unvalidated back navigation and error maps
package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name  string
	Email string
}

func newSignup(form *signup) *Wizard[signup] {
	return New(form,
		Step[signup]{Name: "Name", Validate: func(s signup) Errors {
			errs := Errors{}
			if s.Name == "" {
				errs.Add("name", "Name is required")
			}
			return errs
		}},
		Step[signup]{Name: "Email", Validate: func(s signup) Errors {
			errs := Errors{}
			if s.Email == "" {
				errs.Add("email", "Email is required")
			}
			return errs
		}},
		Step[signup]{Name: "Review"},
	)
}

func TestNextBlocksOnErrors(t *testing.T) {
	form := &signup{}
	w := newSignup(form)

	assert.False(t, w.Next())
	assert.Equal(t, 1, w.Step())
	assert.Equal(t, "Name is required", w.Errors()["name"])

	form.Name = "Ada"
	require.True(t, w.Next())
	assert.Equal(t, 2, w.Step())
	assert.Empty(t, w.Errors())
}

func TestBackNeverValidates(t *testing.T) {
	form := &signup{Name: "Ada"}
	w := newSignup(form)
	require.True(t, w.Next())

	form.Name = ""
	assert.False(t, w.Next())
	w.Back()
	assert.Equal(t, 1, w.Step())
	assert.Empty(t, w.Errors())

	w.Back()
	assert.Equal(t, 1, w.Step())
}

func TestLastStepDoesNotAdvance(t *testing.T) {
	w := newSignup(&signup{Name: "Ada", Email: "ada@example.com"})
	require.True(t, w.Next())
	require.True(t, w.Next())
	assert.True(t, w.IsLast())
	assert.True(t, w.Next())
	assert.Equal(t, 3, w.Step())
	assert.Equal(t, []string{"Name", "Email", "Review"}, w.Names())
}

func TestValidateAllStopsAtFirstFailure(t *testing.T) {
	form := &signup{Name: "Ada"}
	w := newSignup(form)

	assert.False(t, w.ValidateAll())
	assert.Equal(t, 2, w.Step())
	assert.True(t, w.Errors().Has("email"))

	form.Email = "ada@example.com"
	assert.True(t, w.ValidateAll())

	w.Reset()
	assert.True(t, w.IsFirst())
}

func TestErrorsString(t *testing.T) {
	errs := Errors{}
	assert.NoError(t, errs.Err())

	errs.Add("price", "must be positive")
	errs.Add("name", "required")
	errs.Add("name", "ignored duplicate")
	assert.EqualError(t, errs.Err(), "name: required; price: must be positive")
}
