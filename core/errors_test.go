package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Wrapped(t *testing.T) {
	base := Errorf(ModuleSnapshot, ErrorCodeInvalidInput, "missing column %q", "itemid")
	wrapped := fmt.Errorf("load items: %w", base)

	assert.True(t, IsDomainError(wrapped))
	assert.True(t, IsInvalidInput(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, ModuleSnapshot, GetDomainError(wrapped).Module)
	assert.Equal(t, `missing column "itemid"`, base.Error())
}

func TestIsStoreNotFound(t *testing.T) {
	assert.True(t, IsStoreNotFound(fmt.Errorf("get: %w", ErrStoreNotFound)))
	assert.False(t, IsStoreNotFound(ErrIndexCorrupt))
	assert.False(t, IsStoreNotFound(nil))
}

func TestParseEventKind(t *testing.T) {
	tests := []struct {
		in   string
		want EventKind
		ok   bool
	}{
		{"view", EventView, true},
		{"addtocart", EventAddToCart, true},
		{"add-to-cart", EventAddToCart, true},
		{"purchase", EventTransaction, true},
		{" Transaction ", EventTransaction, true},
		{"click", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseEventKind(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
