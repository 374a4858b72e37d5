package resolve

import (
	"fmt"

	"diagconv/internal/diag"
	"diagconv/internal/ir"
)

type dopBinder struct {
	r     *resolver
	layer string
	dops  map[string]*ir.Dop
}

// bindDops attaches a deep copy of the referenced DOP to every param of the
// layer that names one and has none bound yet. A miss is a RefDanglingDop;
// lenient mode marks the param DopUnresolved instead.
func (r *resolver) bindDops(layer *ir.DiagLayer, dops []ir.Dop) error {
	b := &dopBinder{r: r, layer: layer.ShortName, dops: make(map[string]*ir.Dop, len(dops))}
	for i := range dops {
		k := key(dops[i].ShortName)
		if _, dup := b.dops[k]; !dup {
			b.dops[k] = &dops[i]
		}
	}

	for si := range layer.DiagServices {
		svc := &layer.DiagServices[si]
		if svc.Request != nil {
			if err := b.params(svc.Request.Params, subject(layer.ShortName, svc.ShortName)); err != nil {
				return err
			}
		}
		for ri := range svc.PosResponses {
			if err := b.params(svc.PosResponses[ri].Params, subject(layer.ShortName, svc.ShortName, svc.PosResponses[ri].ShortName)); err != nil {
				return err
			}
		}
		for ri := range svc.NegResponses {
			if err := b.params(svc.NegResponses[ri].Params, subject(layer.ShortName, svc.ShortName, svc.NegResponses[ri].ShortName)); err != nil {
				return err
			}
		}
	}
	for ji := range layer.SingleEcuJobs {
		job := &layer.SingleEcuJobs[ji]
		for _, group := range [][]ir.JobParam{job.InputParams, job.OutputParams, job.NegOutputParams} {
			for pi := range group {
				p := &group[pi]
				if p.DopRef == "" || p.Dop != nil {
					continue
				}
				dop, err := b.lookup(p.DopRef, subject(layer.ShortName, job.ShortName, p.ShortName), map[string]bool{})
				if err != nil {
					return err
				}
				p.Dop, p.DopUnresolved = dop, dop == nil
			}
		}
	}
	return nil
}

func (b *dopBinder) params(params []ir.Param, owner string) error {
	return b.bindParams(params, owner, map[string]bool{})
}

func (b *dopBinder) bindParams(params []ir.Param, owner string, active map[string]bool) error {
	for pi := range params {
		p := &params[pi]
		if p.DopRef == "" || p.Dop != nil {
			continue
		}
		dop, err := b.lookup(p.DopRef, subject(owner, p.ShortName), active)
		if err != nil {
			return err
		}
		p.Dop, p.DopUnresolved = dop, dop == nil
	}
	return nil
}

// lookup returns an owned copy of the DOP named ref, with structure params
// bound recursively. active holds the structures on the current path; a
// structure that contains itself stops at the first repeat and is returned
// without binding the repeated param.
func (b *dopBinder) lookup(ref, referrer string, active map[string]bool) (*ir.Dop, error) {
	k := key(ref)
	src, ok := b.dops[k]
	if !ok {
		err := &ReferenceError{Kind: RefDanglingDop, Name: ref, Referrer: referrer}
		if ferr := b.r.fail(err, diag.ResDanglingDop, referrer,
			fmt.Sprintf("DOP %q not found in %s, param left unresolved", ref, b.layer)); ferr != nil {
			return nil, ferr
		}
		return nil, nil
	}
	dop := src.Clone()
	if len(dop.Params) == 0 {
		return dop, nil
	}
	active[k] = true
	defer delete(active, k)
	for pi := range dop.Params {
		p := &dop.Params[pi]
		if p.DopRef == "" || p.Dop != nil || active[key(p.DopRef)] {
			continue
		}
		inner, err := b.lookup(p.DopRef, subject(referrer, dop.ShortName, p.ShortName), active)
		if err != nil {
			return nil, err
		}
		p.Dop, p.DopUnresolved = inner, inner == nil
	}
	return dop, nil
}
