package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstructionPastTense(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		instruction Instruction
		want        string
	}{
		{name: "regular verb", instruction: "add a red hat to the circle", want: "Added a red hat to the circle"},
		{name: "irregular verb", instruction: "Draw a cat", want: "Drew a cat"},
		{name: "uppercase verb", instruction: "MAKE it glow", want: "Made it glow"},
		{name: "single word", instruction: "Blur", want: "Blurred"},
		{name: "unknown verb", instruction: "Imagine a forest", want: "Imagine a forest"},
		{name: "empty", instruction: "", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.instruction.PastTense())
		})
	}
}

func TestNewVariantKeepsRawInstructionForRemoval(t *testing.T) {
	t.Parallel()

	variant := NewVariant(Slot2, "turn it upside down", NewImage([]byte{1}, ""))
	assert.Equal(t, Instruction("turn it upside down"), variant.Instruction)
	assert.Equal(t, "Turned it upside down", variant.Display)
	assert.Equal(t, DefaultImageMIMEType, variant.Image.MIMEType)
}

func TestParseVariantSlot(t *testing.T) {
	t.Parallel()

	slot, err := ParseVariantSlot("2")
	assert.NoError(t, err)
	assert.Equal(t, Slot2, slot)
	assert.Equal(t, Slot1, slot.Other())

	for _, raw := range []string{"0", "3", "x", ""} {
		_, err := ParseVariantSlot(raw)
		assert.ErrorIs(t, err, ErrInvalidVariant, raw)
	}
}
