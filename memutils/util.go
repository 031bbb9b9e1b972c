package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint
}

func CheckPow2[T Number](number T, name string) error {
	if number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}

func AlignDown(value int, alignment uint) int {
	return value & int(^(alignment - 1))
}

// AlignUpPtr and AlignDownPtr round raw addresses. They exist separately
// from the int variants so that page arithmetic on mapped memory never
// round-trips through a signed type.
func AlignUpPtr(value uintptr, alignment uint) uintptr {
	return (value + uintptr(alignment) - 1) &^ (uintptr(alignment) - 1)
}

func AlignDownPtr(value uintptr, alignment uint) uintptr {
	return value &^ (uintptr(alignment) - 1)
}
