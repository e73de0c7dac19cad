package engine

import "sort"

// MineField is an immutable placement of mines over cells [0, size).
type MineField struct {
	size  int
	mines []int
	mask  []bool
}

// GenerateMineField shuffles [0, size) with Fisher-Yates driven by rng and
// takes the first mineCount cells as mines, so every placement is equally
// likely for a uniform rng.
func GenerateMineField(size, mineCount int, rng RandomSource) (*MineField, error) {
	if mineCount < 1 || mineCount >= size {
		return nil, newError(CodeInvalidConfiguration, "mine count %d outside [1, %d)", mineCount, size)
	}
	if rng == nil {
		return nil, newError(CodeInvalidConfiguration, "random source is required")
	}

	cells := make([]int, size)
	for i := range cells {
		cells[i] = i
	}
	for i := size - 1; i > 0; i-- {
		j, err := rng.IntN(i + 1)
		if err != nil {
			return nil, wrapError(CodeRandomSourceFailure, err, "shuffle mine field")
		}
		if j < 0 || j > i {
			return nil, newError(CodeRandomSourceFailure, "random source returned %d outside [0, %d]", j, i)
		}
		cells[i], cells[j] = cells[j], cells[i]
	}

	field := &MineField{
		size:  size,
		mines: append([]int(nil), cells[:mineCount]...),
		mask:  make([]bool, size),
	}
	for _, cell := range field.mines {
		field.mask[cell] = true
	}
	sort.Ints(field.mines)
	return field, nil
}

func (f *MineField) IsMine(index int) (bool, error) {
	if index < 0 || index >= f.size {
		return false, newError(CodeIndexOutOfRange, "cell %d outside [0, %d)", index, f.size)
	}
	return f.mask[index], nil
}

func (f *MineField) Size() int { return f.size }

func (f *MineField) MineCount() int { return len(f.mines) }

// Mines returns the mine cells in ascending order.
func (f *MineField) Mines() []int {
	return append([]int(nil), f.mines...)
}
