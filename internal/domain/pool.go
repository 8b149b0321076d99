package domain

import "math/rand/v2"

const maxDistinctDrawAttempts = 10

type SupplyLevel string

const (
	SupplyNormal   SupplyLevel = "normal"
	SupplyLow      SupplyLevel = "low"
	SupplyCritical SupplyLevel = "critical"
)

// InstructionPool holds the instructions still available this session.
// It only ever shrinks until Reset restores the original content.
type InstructionPool struct {
	original []Instruction
	items    []Instruction
	rnd      *rand.Rand
}

func NewInstructionPool(items []Instruction, rnd *rand.Rand) *InstructionPool {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	original := append([]Instruction(nil), items...)
	return &InstructionPool{
		original: original,
		items:    append([]Instruction(nil), original...),
		rnd:      rnd,
	}
}

func (p *InstructionPool) DrawRandom() Instruction {
	if len(p.items) == 0 {
		return FallbackInstruction
	}
	return p.items[p.rnd.IntN(len(p.items))]
}

// DrawDistinctPair draws two instructions, retrying the second draw a bounded
// number of times when it collides with the first.
func (p *InstructionPool) DrawDistinctPair() (Instruction, Instruction) {
	first := p.DrawRandom()
	second := p.DrawRandom()
	for attempts := 0; first == second && attempts < maxDistinctDrawAttempts; attempts++ {
		second = p.DrawRandom()
	}
	return first, second
}

// Remove deletes the first exact match of instruction.
func (p *InstructionPool) Remove(instruction Instruction) bool {
	for i, item := range p.items {
		if item == instruction {
			p.items = append(p.items[:i:i], p.items[i+1:]...)
			return true
		}
	}
	return false
}

func (p *InstructionPool) Size() int {
	return len(p.items)
}

func (p *InstructionPool) OriginalSize() int {
	return len(p.original)
}

func (p *InstructionPool) Supply() SupplyLevel {
	switch n := len(p.items); {
	case n < 10:
		return SupplyCritical
	case n < 25:
		return SupplyLow
	default:
		return SupplyNormal
	}
}

func (p *InstructionPool) Reset() {
	p.items = append([]Instruction(nil), p.original...)
}
