package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrors(t *testing.T) {
	cause := errors.New("boom")

	pe := &ParseError{Path: "mmm-2018.pdf", Err: cause}
	assert.Equal(t, "parse mmm-2018.pdf: boom", pe.Error())
	assert.ErrorIs(t, pe, cause)

	ee := &EmbeddingError{Source: "mmm-2018.pdf", Err: cause}
	assert.Equal(t, "embed mmm-2018.pdf: boom", ee.Error())
	assert.ErrorIs(t, ee, cause)

	ie := &IndexError{Op: "search", Err: cause}
	assert.Equal(t, "index search: boom", ie.Error())
	assert.ErrorIs(t, ie, cause)
}
