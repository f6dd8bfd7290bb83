// Package output implements sim.Sink and the artifacts written next to it:
// the ROOT training file, the YAML run manifest and their optional upload.
package output

import (
	"errors"
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/hfjet-gen/hfjet/sim"
)

// TreeName is the name of the training tree in the ROOT file.
const TreeName = "T"

// treeRow is the branch layout of one tree entry. Constituent branches are
// variable length, indexed by nTracks.
type treeRow struct {
	NTracks int32     `groot:"nTracks"`
	Pt      []float32 `groot:"fPt[nTracks]"`
	Eta     []float32 `groot:"fEta[nTracks]"`
	Phi     []float32 `groot:"fPhi[nTracks]"`
	DCAz    []float32 `groot:"fDCA_z[nTracks]"`
	DCAxy   []float32 `groot:"fDCA_xy[nTracks]"`
	DeltaR  []float32 `groot:"fDeltaR[nTracks]"`
	Z       []float32 `groot:"fZ[nTracks]"`
	SIP3D   []float32 `groot:"fSIP3D[nTracks]"`
	Tag     int32     `groot:"mTag"`
	JetPt   float32   `groot:"fJetPt"`
	JetPhi  float32   `groot:"fJetPhi"`
	JetEta  float32   `groot:"fJetEta"`
}

// RootSink writes one tree entry per jet record and, on Flush, every
// monitoring histogram. Not safe for concurrent use.
type RootSink struct {
	path string
	file *groot.File
	tree rtree.Writer
	buf  *sim.FixedRecord
	row  treeRow
	n    int64
}

// NewRootSink creates the ROOT file at path and books the training tree.
func NewRootSink(path string) (*RootSink, error) {
	f, err := groot.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	s := &RootSink{path: path, file: f, buf: sim.NewFixedRecord()}
	wvars := rtree.WriteVarsFromStruct(&s.row)
	s.tree, err = rtree.NewWriter(f, TreeName, wvars, rtree.WithTitle("HF jet training data"))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating tree %s: %w", TreeName, err)
	}
	return s, nil
}

// Path returns the path of the ROOT file.
func (s *RootSink) Path() string { return s.path }

// Entries returns the number of tree entries written so far.
func (s *RootSink) Entries() int64 { return s.n }

// WriteJet implements sim.Sink. The working buffer is cleared after every
// entry so no constituent leaks into the next jet.
func (s *RootSink) WriteJet(rec sim.JetRecord) error {
	if s.tree == nil {
		return errors.New("root sink already flushed")
	}
	s.buf.Load(&rec)
	s.row.fill(s.buf)
	_, err := s.tree.Write()
	s.buf.Clear()
	if err != nil {
		return fmt.Errorf("writing tree entry %d: %w", s.n, err)
	}
	s.n++
	return nil
}

// Flush implements sim.Sink: it closes the tree, stores the histograms and
// closes the file. Calling it twice is an error.
func (s *RootSink) Flush(m *sim.Monitor) error {
	if s.tree == nil {
		return errors.New("root sink already flushed")
	}
	err := s.tree.Close()
	s.tree = nil
	if err != nil {
		_ = s.file.Close()
		return fmt.Errorf("closing tree: %w", err)
	}
	if m != nil {
		for _, h := range m.Histograms() {
			if err := s.file.Put(h.Name(), rhist.NewH1DFrom(h)); err != nil {
				_ = s.file.Close()
				return fmt.Errorf("storing histogram %s: %w", h.Name(), err)
			}
		}
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", s.path, err)
	}
	return nil
}

func (r *treeRow) fill(f *sim.FixedRecord) {
	n := max(f.NTracks, 0)
	r.NTracks = n
	r.Pt = f.Pt[:n]
	r.Eta = f.Eta[:n]
	r.Phi = f.Phi[:n]
	r.DCAz = f.DCAz[:n]
	r.DCAxy = f.DCAxy[:n]
	r.DeltaR = f.DeltaR[:n]
	r.Z = f.Z[:n]
	r.SIP3D = f.SIP3D[:n]
	r.Tag = f.Tag
	r.JetPt = f.JetPt
	r.JetPhi = f.JetPhi
	r.JetEta = f.JetEta
}
