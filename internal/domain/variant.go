package domain

import (
	"fmt"
	"strconv"
)

type VariantSlot int

const (
	SlotNone VariantSlot = iota
	Slot1
	Slot2
)

func ParseVariantSlot(raw string) (VariantSlot, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return SlotNone, fmt.Errorf("%w: %q", ErrInvalidVariant, raw)
	}

	slot := VariantSlot(n)
	if !slot.Valid() {
		return SlotNone, fmt.Errorf("%w: %d", ErrInvalidVariant, n)
	}

	return slot, nil
}

func (s VariantSlot) Valid() bool {
	return s == Slot1 || s == Slot2
}

// Other returns the sibling slot. SlotNone has no sibling.
func (s VariantSlot) Other() VariantSlot {
	switch s {
	case Slot1:
		return Slot2
	case Slot2:
		return Slot1
	default:
		return SlotNone
	}
}

func (s VariantSlot) index() int {
	return int(s) - 1
}

func (s VariantSlot) String() string {
	if !s.Valid() {
		return "none"
	}
	return strconv.Itoa(int(s))
}

// Variant is one candidate image produced from the current image.
type Variant struct {
	Slot        VariantSlot
	Instruction Instruction
	Display     string
	Image       Image
}

func NewVariant(slot VariantSlot, instruction Instruction, image Image) Variant {
	return Variant{
		Slot:        slot,
		Instruction: instruction,
		Display:     instruction.PastTense(),
		Image:       image,
	}
}
