package core

// IDGenerator hands out stable numeric identifiers. Identifiers start at 1,
// increase monotonically and are never reused for the lifetime of the
// generator, so 0 can always be treated as "no id".
type IDGenerator struct {
	last uint32
}

func (g *IDGenerator) Next() uint32 {
	g.last++
	return g.last
}

// Last returns the most recently issued identifier, or 0 if none was issued.
func (g *IDGenerator) Last() uint32 {
	return g.last
}
