package vtypes

// Bitwidth computes a resolved type's packed width: Word(n) is n bits;
// Clock and Bool are 1; a struct is the sum of its field widths in
// declaration order; a union is the total width of its layout; and
// Vec(T, n) is n times the width of T.
func Bitwidth(d *Defs, t Type) int {
	switch v := t.(type) {
	case Word:
		return v.Width
	case Clock:
		return 1
	case Bool:
		return 1
	case Struct:
		info, _ := d.Struct(v.ID)
		width := 0
		for _, f := range info.Fields {
			width += Bitwidth(d, f.Type)
		}
		return width
	case Union:
		info, _ := d.Union(v.ID)
		layout := ComputeLayout(d, info)
		return layout.TotalWidth
	case Builtin:
		return 0
	case Vec:
		return v.Len * Bitwidth(d, v.Elem)
	default:
		return 0
	}
}
