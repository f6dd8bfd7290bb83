// Package source provides sim.Generator implementations: a HepMC file reader
// and a parametric toy generator for hard-scatter and pileup events.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"go-hep.org/x/hep/hepmc"
	"go-hep.org/x/hep/heppdt"

	"github.com/hfjet-gen/hfjet/sim"
)

// HepMCReader reads events from a HepMC2 ASCII stream.
// Vertex positions are taken to be in mm.
type HepMCReader struct {
	name   string
	dec    *hepmc.Decoder
	closer io.Closer
	n      int64
}

// NewHepMCReader reads events from r.
func NewHepMCReader(name string, r io.Reader) *HepMCReader {
	return &HepMCReader{name: name, dec: hepmc.NewDecoder(bufio.NewReader(r))}
}

// OpenHepMC opens a HepMC file. The caller must Close the reader.
func OpenHepMC(path string) (*HepMCReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening HepMC file: %w", err)
	}
	r := NewHepMCReader(path, f)
	r.closer = f
	return r, nil
}

// Next implements sim.Generator. The end of the stream is reported as
// sim.ErrGeneratorExhausted.
func (r *HepMCReader) Next(ctx context.Context) (sim.Event, error) {
	if err := ctx.Err(); err != nil {
		return sim.Event{}, err
	}
	var evt hepmc.Event
	err := r.dec.Decode(&evt)
	if errors.Is(err, io.EOF) {
		logrus.Infof("%s: end of input after %d events", r.name, r.n)
		return sim.Event{}, fmt.Errorf("%s after %d events: %w", r.name, r.n, sim.ErrGeneratorExhausted)
	}
	if err != nil {
		return sim.Event{}, fmt.Errorf("decoding %s event %d: %w (%w)", r.name, r.n, err, sim.ErrGeneratorExhausted)
	}
	r.n++
	return convertHepMC(&evt), nil
}

// Close releases the underlying file, if any.
func (r *HepMCReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// convertHepMC flattens an event, ordering particles by barcode.
func convertHepMC(evt *hepmc.Event) sim.Event {
	barcodes := make([]int, 0, len(evt.Particles))
	for bc := range evt.Particles {
		barcodes = append(barcodes, bc)
	}
	sort.Ints(barcodes)

	out := sim.Event{
		Number:    int64(evt.EventNumber),
		Particles: make([]sim.RawParticle, 0, len(barcodes)),
	}
	for _, bc := range barcodes {
		p := evt.Particles[bc]
		id := int(p.PdgID)
		rp := sim.RawParticle{
			ID:      id,
			Status:  p.Status,
			Final:   p.Status == 1,
			Charged: charge(id) != 0,
			Parton:  IsParton(id),
			Px:      p.Momentum.Px(),
			Py:      p.Momentum.Py(),
			Pz:      p.Momentum.Pz(),
			E:       p.Momentum.E(),
		}
		if v := p.ProdVertex; v != nil {
			rp.X, rp.Y, rp.Z = v.Position.Px(), v.Position.Py(), v.Position.Pz()
		}
		out.Particles = append(out.Particles, rp)
	}
	return out
}

// charge returns the electric charge of a PDG species, 0 when unknown.
func charge(id int) float64 {
	if p := heppdt.ParticleByID(heppdt.PID(id)); p != nil {
		return p.Charge
	}
	if id < 0 {
		if p := heppdt.ParticleByID(heppdt.PID(-id)); p != nil {
			return -p.Charge
		}
	}
	return 0
}

// IsParton reports whether id is a quark, a gluon or a diquark.
func IsParton(id int) bool {
	a := id
	if a < 0 {
		a = -a
	}
	switch {
	case a == 21:
		return true
	case a >= 1 && a <= 8:
		return true
	case a > 1000 && a < 10000 && (a/10)%10 == 0:
		return true
	}
	return false
}
