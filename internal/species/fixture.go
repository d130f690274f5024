package species

import (
	_ "embed"
)

//go:embed fixture.yaml
var embeddedFixture []byte

// Fixture returns the built-in offline species set.
func Fixture() *Static {
	s, err := ParseStatic(embeddedFixture)
	if err != nil {
		panic("species: bad embedded fixture: " + err.Error())
	}
	return s
}
