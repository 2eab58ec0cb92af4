package ownership

import (
	"fmt"

	"windjammer/internal/diag"
	"windjammer/internal/registry"
	"windjammer/internal/types"
)

type stdForm struct {
	recv   types.Receiver
	params types.Mode
}

// stdForms are the receiver and parameter forms std traits impose on
// their implementations, keyed by trait.method.
var stdForms = map[string]stdForm{
	"Add.add":                {types.RecvValue, types.Owned},
	"Sub.sub":                {types.RecvValue, types.Owned},
	"Mul.mul":                {types.RecvValue, types.Owned},
	"Div.div":                {types.RecvValue, types.Owned},
	"Rem.rem":                {types.RecvValue, types.Owned},
	"Neg.neg":                {types.RecvValue, types.Owned},
	"Not.not":                {types.RecvValue, types.Owned},
	"AddAssign.add_assign":   {types.RecvMutRef, types.Owned},
	"SubAssign.sub_assign":   {types.RecvMutRef, types.Owned},
	"MulAssign.mul_assign":   {types.RecvMutRef, types.Owned},
	"DivAssign.div_assign":   {types.RecvMutRef, types.Owned},
	"Clone.clone":            {types.RecvRef, types.Borrowed},
	"PartialEq.eq":           {types.RecvRef, types.Borrowed},
	"PartialEq.ne":           {types.RecvRef, types.Borrowed},
	"PartialOrd.partial_cmp": {types.RecvRef, types.Borrowed},
	"Ord.cmp":                {types.RecvRef, types.Borrowed},
	"Display.fmt":            {types.RecvRef, types.Borrowed},
	"Debug.fmt":              {types.RecvRef, types.Borrowed},
	"Hash.hash":              {types.RecvRef, types.MutBorrowed},
	"Iterator.next":          {types.RecvMutRef, types.Borrowed},
	"Drop.drop":              {types.RecvMutRef, types.Borrowed},
	"Default.default":        {types.RecvNone, types.Owned},
	"From.from":              {types.RecvNone, types.Owned},
}

// applyStdTraitForms pins impls of std traits to the forms the traits
// declare. Traits the program declares itself are left to inference.
func applyStdTraitForms(reg *registry.Registry) {
	for _, sig := range reg.Signatures() {
		if sig.Trait == "" || sig.Stub || reg.Type(sig.Trait) != nil {
			continue
		}
		form, ok := stdForms[sig.Trait+"."+sig.Name]
		if !ok {
			continue
		}
		if sig.Written == types.RecvInfer {
			sig.Written, sig.Recv = form.recv, form.recv
		}
		for _, p := range sig.Params {
			if !p.Explicit {
				p.Mode, p.Fixed = form.params, true
			}
		}
	}
}

// unifyTraits makes trait stubs and their impls agree. An inferred stub
// receiver is the least upper bound of its impls and is pushed back onto
// them; a written stub receiver is imposed on inferred impls.
func unifyTraits(reg *registry.Registry, rep diag.Reporter, reported map[*registry.Signature]bool) bool {
	changed := false
	for _, stub := range reg.Signatures() {
		if !stub.Stub {
			continue
		}
		impls := reg.TraitImpls(stub.Trait, stub.Name)
		switch stub.Written {
		case types.RecvNone:
		case types.RecvInfer:
			lub, _ := stub.RecvMode()
			for _, im := range impls {
				if m, ok := im.RecvMode(); ok {
					lub = lub.Join(m)
				}
			}
			if reg.UpdateParamMode(stub, -1, lub) {
				changed = true
			}
			for _, im := range impls {
				if reg.UpdateParamMode(im, -1, lub) {
					changed = true
				}
				if im.Written != types.RecvInfer && im.Written != types.ReceiverFor(lub) {
					mismatch(rep, reported, im, stub, types.ReceiverFor(lub))
				}
			}
		default:
			for _, im := range impls {
				switch {
				case im.Written == types.RecvInfer:
					im.Written, im.Recv = stub.Written, stub.Written
					changed = true
				case im.Written != stub.Written:
					mismatch(rep, reported, im, stub, stub.Written)
				}
			}
		}

		for i := range stub.Params {
			lub := stub.Params[i].Mode
			for _, im := range impls {
				if i < len(im.Params) {
					lub = lub.Join(im.Params[i].Mode)
				}
			}
			if reg.UpdateParamMode(stub, i, lub) {
				changed = true
			}
			for _, im := range impls {
				if i < len(im.Params) && reg.UpdateParamMode(im, i, lub) {
					changed = true
				}
			}
		}
	}
	return changed
}

func mismatch(rep diag.Reporter, reported map[*registry.Signature]bool, im, stub *registry.Signature, want types.Receiver) {
	if reported[im] {
		return
	}
	reported[im] = true
	diag.ReportWarning(rep, diag.SemTraitMismatch, im.Decl.RecvSpan,
		fmt.Sprintf("`%s` takes `%s` but trait `%s` needs `%s`", im.Key(), im.Written, stub.Trait, want)).
		WithNote(stub.Decl.NameSpan, "trait method declared here").
		Emit()
}
