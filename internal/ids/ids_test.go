package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathForms(t *testing.T) {
	p := ParsePath("a.b.c")
	require.Equal(t, "a", p.Head())
	require.Equal(t, "c", p.Last())
	require.True(t, p.IsRemote())

	parent, ok := p.Parent()
	require.True(t, ok)
	require.Equal(t, "a.b", parent.String())
	require.Equal(t, "a.b.c.d", p.Join("d").String())

	require.True(t, ParsePath("x").IsLocal())
	require.True(t, ParsePath("x.y").IsForeign())

	_, ok = ParsePath("x").Parent()
	require.False(t, ok)
}

func TestCoerceChecksRecordedKind(t *testing.T) {
	id := Qualify("p", "Top")

	_, err := Coerce[ModDefTag](id, KindModDef, KindModDef)
	require.NoError(t, err)

	_, err = Coerce[UnionTag](id, KindModDef, KindUnionDef)
	require.Error(t, err)
}

func TestOwnerAndMember(t *testing.T) {
	f := QualifyMember[FieldTag](Qualify("p", "S"), "x")
	require.Equal(t, "p::S::x", f.String())
	require.Equal(t, "p::S", Owner(f).String())
	require.Equal(t, "x", Member(f))
}
