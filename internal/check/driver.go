package check

import (
	"github.com/virdant-lang/virdant/internal/errors"
	"github.com/virdant-lang/virdant/internal/ids"
	"github.com/virdant-lang/virdant/internal/structure"
	"github.com/virdant-lang/virdant/internal/vtypes"
)

// CheckedElement pairs a built Element with its typechecked driver (and,
// for a Reg, its typechecked clock). Driver/Clock are nil when the
// element has none or when checking it failed (already reported).
type CheckedElement struct {
	Element *structure.Element
	Driver  *TypedExpr
	Clock   *TypedExpr
}

// CheckedSubmodule pairs a built Submodule with its typechecked incoming
// port drivers, keyed by port name.
type CheckedSubmodule struct {
	Submodule   *structure.Submodule
	PortDrivers map[string]*TypedExpr
}

// ModuleCheck is a module's complete elaborated, typechecked structure.
type ModuleCheck struct {
	ID         ids.ModDefID
	Elements   []*CheckedElement
	Submodules []*CheckedSubmodule
}

// CheckModule is the driver/connect checker: it builds the module's
// Structure, then requires every non-Incoming element to have exactly
// one driver (enforced jointly with internal/structure, which already
// rejects a second driver as soon as it's attached) of the element's
// own type, and every Reg to have a Clock-typed clock expression. It
// also requires every submodule's incoming ports to be driven from the
// parent, checking each driver against the port's type as recorded on
// the target module's own Structure. Combinational cycles are not
// rejected here or anywhere else; the simulator settles them.
func (c *Checker) CheckModule(id ids.ModDefID) (*ModuleCheck, *errors.Diagnostics) {
	diags := errors.NewDiagnostics()

	st, structDiags := c.builder.Build(id)
	diags.Merge(structDiags)
	if st == nil {
		return nil, diags
	}

	pkg := c.defs.PackageOf(ids.AsItem(id))
	sc := scope{pkg: pkg, mod: st, gamma: map[string]vtypes.Type{}}

	mc := &ModuleCheck{ID: id}
	for _, el := range st.Elements {
		ce := &CheckedElement{Element: el}
		mc.Elements = append(mc.Elements, ce)

		if el.Type == nil {
			// Type resolution already failed and was reported while
			// building the structure; nothing further to check.
			continue
		}
		if el.Kind == structure.KindIncoming {
			continue
		}
		if el.Driver == nil {
			diags.Add(errors.DriverDiscipline("element " + el.Name + " has no driver").WithSpan(el.Span))
		} else {
			ce.Driver = c.Check(sc, el.Driver, el.Type, diags)
		}
		if el.Kind == structure.KindReg && el.Clock != nil {
			ce.Clock = c.Check(sc, el.Clock, vtypes.Clock{}, diags)
		}
	}

	for _, sub := range st.Submodules {
		cs := &CheckedSubmodule{Submodule: sub, PortDrivers: map[string]*TypedExpr{}}
		mc.Submodules = append(mc.Submodules, cs)

		if sub.Target == "" {
			// Unresolved target already reported while building the
			// structure.
			continue
		}
		targetStruct, _ := c.builder.Build(sub.Target)
		if targetStruct == nil {
			continue
		}

		for _, pd := range sub.PortDrivers {
			portEl, ok := targetStruct.ElementByName(pd.Port)
			if !ok || portEl.Kind != structure.KindIncoming {
				diags.Add(errors.DriverDiscipline(sub.Name + "." + pd.Port + " is not an incoming port of " + sub.Target.String()).WithSpan(pd.Span))
				continue
			}
			typed := c.Check(sc, pd.Driver, portEl.Type, diags)
			if typed != nil {
				cs.PortDrivers[pd.Port] = typed
			}
		}

		for _, portEl := range targetStruct.Elements {
			if portEl.Kind != structure.KindIncoming {
				continue
			}
			if _, ok := sub.PortDriverFor(portEl.Name); !ok {
				diags.Add(errors.DriverDiscipline(sub.Name + "." + portEl.Name + " has no driver").WithSpan(sub.Span))
			}
		}
	}

	return mc, diags
}
