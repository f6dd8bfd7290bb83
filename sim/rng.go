package sim

import (
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible generation run.
// Two runs with the same SimulationKey, identical configuration and identical
// input events MUST produce identical output.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemGenerator drives the built-in primary event generator.
	// Uses master seed directly so --seed reproduces the generator alone.
	SubsystemGenerator = "generator"

	// SubsystemPileupGenerator drives the built-in pileup generator.
	SubsystemPileupGenerator = "pileup_generator"

	// SubsystemTracking drives efficiency rejection, pileup vertex placement
	// and detector smearing. Always used through ForEvent.
	SubsystemTracking = "tracking"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemGenerator: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//   - Per-event streams: subsystem seed XOR splitmix64(eventIndex)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.subsystemSeed(name)))
	p.subsystems[name] = rng
	return rng
}

// ForEvent returns a fresh RNG for one event of the named subsystem.
// The stream depends only on the key, the name and the index, so an event's
// draws do not shift when an earlier event consumed more or fewer values.
// Streams returned by ForEvent are not cached.
func (p *PartitionedRNG) ForEvent(name string, index int64) *rand.Rand {
	seed := p.subsystemSeed(name) ^ int64(splitmix64(uint64(index)))
	return rand.New(rand.NewSource(seed))
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func (p *PartitionedRNG) subsystemSeed(name string) int64 {
	if name == SubsystemGenerator {
		return int64(p.key)
	}
	return int64(p.key) ^ fnv1a64(name)
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// splitmix64 scrambles consecutive indices into well-separated seeds.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
