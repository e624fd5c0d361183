// Package geos backs the engine interface with GEOS via twpayne/go-geos.
// Geometries cross the boundary as WKB so the rest of the pipeline stays on
// go-geom types.
package geos

import (
	"sync"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	geos "github.com/twpayne/go-geos"
)

// quadSegments controls arc approximation for buffer operations.
const quadSegments = 8

// Engine is a GEOS-backed engine.Engine. A GEOS context is not safe for
// concurrent use, so all calls serialize on mu.
type Engine struct {
	mu  sync.Mutex
	ctx *geos.Context
}

// New creates a GEOS engine with its own context.
func New() *Engine {
	return &Engine{ctx: geos.NewContext()}
}

// recoverOpErr converts a go-geos panic into a returned error. go-geos
// geometry methods panic when GEOS rejects a geometry (invalid or
// self-intersecting input); callers treat the returned error as a
// per-feature condition rather than aborting the whole run.
func recoverOpErr(op string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok {
		*err = eris.Wrapf(e, "geos: %s", op)
		return
	}
	*err = eris.Errorf("geos: %s: %v", op, r)
}

func (e *Engine) encode(g geom.T) (*geos.Geom, error) {
	if g == nil {
		return nil, nil
	}
	b, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geos: marshal WKB")
	}
	gg, err := e.ctx.NewGeomFromWKB(b)
	if err != nil {
		return nil, eris.Wrap(err, "geos: parse WKB")
	}
	return gg, nil
}

func (e *Engine) decode(g *geos.Geom) (geom.T, error) {
	if g == nil || g.IsEmpty() {
		return nil, nil
	}
	out, err := wkb.Unmarshal(g.ToWKB())
	if err != nil {
		return nil, eris.Wrap(err, "geos: unmarshal WKB")
	}
	return out, nil
}

// Buffer implements engine.Engine.
func (e *Engine) Buffer(g geom.T, distance float64) (out geom.T, err error) {
	if g == nil {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverOpErr("buffer", &err)

	gg, err := e.encode(g)
	if err != nil {
		return nil, err
	}
	return e.decode(gg.Buffer(distance, quadSegments))
}

// Union implements engine.Engine.
func (e *Engine) Union(gs []geom.T) (out geom.T, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverOpErr("union", &err)

	var acc *geos.Geom
	for _, g := range gs {
		gg, err := e.encode(g)
		if err != nil {
			return nil, err
		}
		if gg == nil {
			continue
		}
		if acc == nil {
			acc = gg
			continue
		}
		acc = acc.Union(gg)
	}
	if acc == nil {
		return nil, nil
	}
	return e.decode(acc)
}

// Difference implements engine.Engine.
func (e *Engine) Difference(a, b geom.T) (out geom.T, err error) {
	if a == nil {
		return nil, nil
	}
	if b == nil {
		return a, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverOpErr("difference", &err)

	ga, err := e.encode(a)
	if err != nil {
		return nil, err
	}
	gb, err := e.encode(b)
	if err != nil {
		return nil, err
	}
	return e.decode(ga.Difference(gb))
}

// Intersects implements engine.Engine.
func (e *Engine) Intersects(a, b geom.T) (ok bool, err error) {
	if a == nil || b == nil {
		return false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverOpErr("intersects", &err)

	ga, err := e.encode(a)
	if err != nil {
		return false, err
	}
	gb, err := e.encode(b)
	if err != nil {
		return false, err
	}
	return ga.Intersects(gb), nil
}

// Contains implements engine.Engine.
func (e *Engine) Contains(a, b geom.T) (ok bool, err error) {
	if a == nil || b == nil {
		return false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverOpErr("contains", &err)

	ga, err := e.encode(a)
	if err != nil {
		return false, err
	}
	gb, err := e.encode(b)
	if err != nil {
		return false, err
	}
	return ga.Contains(gb), nil
}

// MinimumRotatedRectangle implements engine.Engine.
func (e *Engine) MinimumRotatedRectangle(g geom.T) (out geom.T, err error) {
	if g == nil {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverOpErr("minimum rotated rectangle", &err)

	gg, err := e.encode(g)
	if err != nil {
		return nil, err
	}
	return e.decode(gg.MinimumRotatedRectangle())
}
