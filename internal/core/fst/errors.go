package fst

import "errors"

var (
	// ErrNoPath is returned when a transducer does not accept the input.
	ErrNoPath = errors.New("fst: no accepting path")
	// ErrIncompatibleAlphabet is returned by Compose when the output alphabet of the
	// first operand and the input alphabet of the second are declared and differ.
	ErrIncompatibleAlphabet = errors.New("fst: incompatible alphabets")
)
