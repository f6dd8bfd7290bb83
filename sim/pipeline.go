package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Sink receives finished jet records and, once at the end, the monitor.
type Sink interface {
	WriteJet(rec JetRecord) error
	Flush(m *Monitor) error
}

// Pipeline drives generation event by event: tracks, jets, labels, features.
// Not safe for concurrent use.
type Pipeline struct {
	Config    PipelineConfig
	Monitor   *Monitor
	Builder   *TrackBuilder
	Tagger    *Tagger
	Extractor *Extractor

	primary Generator
	pileup  Generator
	sink    Sink
	rng     *PartitionedRNG
	attempt int64
}

// NewPipeline wires a pipeline. pileup may be nil when cfg disables pileup.
func NewPipeline(cfg PipelineConfig, primary, pileup Generator, clusterer Clusterer, sink Sink, key SimulationKey) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if primary == nil {
		return nil, errors.New("primary generator required")
	}
	if cfg.Detector.Pileup && pileup == nil {
		return nil, errors.New("pileup enabled but no pileup generator given")
	}
	if clusterer == nil || sink == nil {
		return nil, errors.New("clusterer and sink required")
	}
	if cfg.ProgressEvery == 0 {
		cfg.ProgressEvery = DefaultProgressStep
	}
	m := NewMonitor()
	return &Pipeline{
		Config:    cfg,
		Monitor:   m,
		Builder:   NewTrackBuilder(cfg.Detector, m),
		Tagger:    NewTagger(clusterer, cfg.Jets, m),
		Extractor: NewExtractor(m),
		primary:   primary,
		pileup:    pileup,
		sink:      sink,
		rng:       NewPartitionedRNG(key),
	}, nil
}

// GenerateEvent runs one generation attempt and returns its records.
// Records are only returned for a fully processed event; nothing is written.
// Errors wrapping ErrNoAcceptedJet or ErrUnmatchedJet are retryable;
// ErrGeneratorExhausted is fatal.
func (p *Pipeline) GenerateEvent(ctx context.Context) ([]JetRecord, error) {
	attempt := p.attempt
	p.attempt++
	p.Monitor.Counters.EventsGenerated++

	primary, err := p.primary.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("primary event %d: %w", attempt, err)
	}
	var pileup *Event
	if p.Config.Detector.Pileup {
		evt, err := p.pileup.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("pileup event %d: %w", attempt, err)
		}
		pileup = &evt
	}

	tracks := p.Builder.Build(primary, pileup, p.rng.ForEvent(SubsystemTracking, attempt))
	labeled, err := p.Tagger.Run(tracks, primary)
	if err != nil {
		return nil, err
	}
	if len(labeled) == 0 {
		return nil, ErrNoAcceptedJet
	}

	records := make([]JetRecord, 0, len(labeled))
	for _, lj := range labeled {
		records = append(records, p.Extractor.Extract(lj, tracks))
	}
	return records, nil
}

// Retryable reports whether err only rejects the current event.
func Retryable(err error) bool {
	return errors.Is(err, ErrNoAcceptedJet) || errors.Is(err, ErrUnmatchedJet)
}

// Run generates events until nEvents of them yielded at least one record,
// writing each event's records once it is complete. It stops early on
// context cancellation, generator exhaustion or a sink error. The sink is
// not flushed; see Finish.
func (p *Pipeline) Run(ctx context.Context, nEvents int) error {
	for accepted := 0; accepted < nEvents; {
		if err := ctx.Err(); err != nil {
			return err
		}
		records, err := p.GenerateEvent(ctx)
		if Retryable(err) {
			logrus.Debugf("event rejected: %v", err)
			continue
		}
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := p.sink.WriteJet(rec); err != nil {
				return fmt.Errorf("writing jet record: %w", err)
			}
			p.Monitor.Counters.RecordsWritten++
		}
		accepted++
		p.Monitor.Counters.EventsAccepted++
		if accepted%p.Config.ProgressEvery == 0 {
			logrus.Infof("%d events accepted (%d generated)", accepted, p.Monitor.Counters.EventsGenerated)
		}
	}
	return nil
}

// Finish flushes the monitor to the sink and returns the run summary.
func (p *Pipeline) Finish() (RunSummary, error) {
	if err := p.sink.Flush(p.Monitor); err != nil {
		return RunSummary{}, fmt.Errorf("flushing output: %w", err)
	}
	return Summarize(p.Monitor), nil
}
