package vtypes

// Slot is one constructor parameter's position within its union's packed
// representation: Offset bits from bit 0 of the encoded value (the tag
// occupies bits [0, TagWidth)), Width bits wide.
type Slot struct {
	Offset int
	Width  int
}

// CtorLayout is one constructor's slot assignment within its union's
// packed representation.
type CtorLayout struct {
	Name         string
	Tag          int
	Slots        []Slot
	PayloadWidth int
}

// Layout is a union's bit-packed representation: a tag slot wide
// enough to distinguish every constructor, followed by a payload
// slot wide enough to hold the largest constructor's parameters. Unused
// payload bits are don't-cares.
type Layout struct {
	TagWidth     int
	PayloadWidth int
	TotalWidth   int
	Ctors        []CtorLayout
}

// ComputeLayout computes a union's layout from its resolved constructor
// list: tag_width = ceil(log2(max(|ctors|, 2))) (a single-ctor union
// still reserves a 1-bit tag so every emitted union shape is regular);
// tag value = declaration index; each constructor's parameters occupy
// consecutive slots starting immediately after the tag; payload_width =
// max over ctors of the sum of that ctor's slot widths; total_width =
// tag_width + payload_width.
func ComputeLayout(d *Defs, info *UnionInfo) Layout {
	tagWidth := ceilLog2(maxInt(len(info.Ctors), 2))

	layout := Layout{TagWidth: tagWidth}
	payloadWidth := 0
	for _, ctor := range info.Ctors {
		cl := CtorLayout{Name: ctor.Name, Tag: ctor.Tag}
		offset := tagWidth
		for _, param := range ctor.Params {
			w := Bitwidth(d, param.Type)
			cl.Slots = append(cl.Slots, Slot{Offset: offset, Width: w})
			offset += w
		}
		cl.PayloadWidth = offset - tagWidth
		if cl.PayloadWidth > payloadWidth {
			payloadWidth = cl.PayloadWidth
		}
		layout.Ctors = append(layout.Ctors, cl)
	}
	layout.PayloadWidth = payloadWidth
	layout.TotalWidth = tagWidth + payloadWidth
	return layout
}

// ceilLog2 returns the number of bits needed to represent values
// 0..k-1, i.e. ceil(log2(k)) for k >= 1.
func ceilLog2(k int) int {
	if k <= 1 {
		return 0
	}
	bits := 0
	v := k - 1
	for v > 0 {
		v >>= 1
		bits++
	}
	return bits
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
