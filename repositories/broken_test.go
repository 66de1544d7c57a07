package repositories

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"
)

func TestBrokenStore_GetFunction(t *testing.T) {
	b := NewBrokenStorage()
	_, err := b.GetFunction(context.TODO(), "echo")
	assert.Assert(t, err != nil)
}

func TestBrokenStore_ListFunctions(t *testing.T) {
	b := NewBrokenStorage()
	_, err := b.ListFunctions(context.TODO())
	assert.Assert(t, err != nil)
}
