// Package sim turns generator-level collision events into labeled jet
// records for heavy-flavor tagging.
//
// # Reading Guide
//
// Start with these three files to understand the event flow:
//   - event.go: RawParticle, Event and the Generator interface
//   - pipeline.go: the per-event driver (retries, sink writes, summary)
//   - tagger.go: jet selection and light/charm/bottom labeling
//
// One event goes through: generator -> tracks.go (acceptance, smearing,
// vertex displacement) -> Tagger (clustering, acceptance, truth matching)
// -> features.go (per-constituent features) -> Sink.
//
// # Architecture
//
// The sim package defines the data model and interfaces; implementations
// live in sub-packages:
//   - sim/jets/: anti-kt clustering on top of go-hep fastjet
//   - sim/source/: event sources (toy hard-scatter and minimum-bias
//     generators, HepMC2 reader)
//   - sim/output/: ROOT training file, YAML run manifest, comparison plots
//     and S3 upload
//
// # Key Interfaces
//
//   - Generator: produce the next event or ErrGeneratorExhausted
//   - Clusterer: cluster track momenta into jets with constituent indices
//   - Sink: consume jet records and flush monitoring histograms
//
// Randomness is derived from a single SimulationKey (rng.go). Detector
// effects of event attempt i use their own stream, so a rejected attempt
// never shifts the random numbers of later attempts.
package sim
