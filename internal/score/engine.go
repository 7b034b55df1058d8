package score

import (
	"runtime"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"

	"github.com/civiccc/suggestomatic/internal/memberset"
	"github.com/civiccc/suggestomatic/internal/shard"
)

// DefaultTopK is the default number of recommendations kept per source
// (spec §6.3, "top-k — u32, default 25").
const DefaultTopK = 25

// Config configures an Engine run.
type Config struct {
	// TopK is the number of recommendations retained per source.
	TopK int
	// BeginAt skips the first BeginAt entries of the set-id directory,
	// enabling resumable runs (spec §4.4, §6.3).
	BeginAt uint32
	// Workers bounds parallelism; 0 means runtime.GOMAXPROCS(0).
	Workers int
	// MinScore additionally floors emitted scores above the spec's
	// mandatory positive-score floor (SPEC_FULL.md supplemented feature,
	// default 0.0 preserves spec semantics exactly).
	MinScore float64
	// ShardCount and ShardID, when ShardCount > 0, restrict this run's
	// sources to those for which internal/shard.Assign(id, ShardCount) ==
	// ShardID (a supplemented feature for splitting one scoring run across
	// independent processes or machines). Targets are never restricted: a
	// source in this shard is still scored against every set in the full
	// directory, only the set of *sources* this run is responsible for
	// narrows. ShardCount <= 0 disables sharding.
	ShardCount int
	ShardID    int
}

// Emitter receives one source's ranked results at a time. Implementations
// must treat each call as an atomic, contiguous write (spec §5, "Append
// atomicity").
type Emitter interface {
	EmitSource(sourceID uint32, results []Candidate) error
}

// Engine computes top-K asymmetric overlap recommendations for every
// source set in directory order (spec §4.4).
type Engine struct {
	table     *memberset.Table
	directory []uint32
	cfg       Config

	validated sync.Map // set_id -> bool, memoizes the ascending-order check across workers.
}

// NewEngine constructs an Engine. directory is the set-id directory in its
// persisted order, which doubles as the iteration order for both sources
// and targets (spec §3).
func NewEngine(table *memberset.Table, directory []uint32, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{table: table, directory: directory, cfg: cfg}
}

// Run scores every source from cfg.BeginAt onward, in parallel, emitting
// each source's results as soon as it completes.
func (e *Engine) Run(emit Emitter) error {
	var sources []uint32
	if int(e.cfg.BeginAt) < len(e.directory) {
		sources = e.directory[e.cfg.BeginAt:]
	}
	if e.cfg.ShardCount > 0 {
		filtered := make([]uint32, 0, len(sources)/e.cfg.ShardCount+1)
		for _, id := range sources {
			if shard.Assign(id, e.cfg.ShardCount) == e.cfg.ShardID {
				filtered = append(filtered, id)
			}
		}
		log.Printf("score: shard %d/%d selected %d/%d sources", e.cfg.ShardID, e.cfg.ShardCount, len(filtered), len(sources))
		sources = filtered
	}
	n := len(sources)
	if n == 0 {
		log.Printf("score: no sources to score (begin-at=%d, %d-entry directory), nothing to do", e.cfg.BeginAt, len(e.directory))
		return nil
	}
	parallelism := e.cfg.Workers
	if parallelism > n {
		parallelism = n
	}
	log.Printf("score: scoring %d sources with %d workers, top-k=%d", n, parallelism, e.cfg.TopK)

	return traverse.Each(parallelism, func(jobIdx int) error {
		start := (jobIdx * n) / parallelism
		end := ((jobIdx + 1) * n) / parallelism
		var done int
		for _, sourceID := range sources[start:end] {
			a, err := e.loadValidated(sourceID)
			if err != nil {
				log.Printf("score: skipping malformed source set_id %d: %v", sourceID, err)
				continue
			}
			if err := e.scoreSource(sourceID, a, emit); err != nil {
				return err
			}
			done++
			if done%1000 == 0 {
				log.Printf("score: worker %d finished %d/%d sources", jobIdx, done, end-start)
			}
		}
		return nil
	})
}

func (e *Engine) scoreSource(sourceID uint32, a []uint32, emit Emitter) error {
	aLen := float64(len(a))
	if aLen == 0 {
		return emit.EmitSource(sourceID, nil)
	}

	topk := NewTopK(e.cfg.TopK)
	for _, targetID := range e.directory {
		if targetID == sourceID {
			continue // spec §4.4, "Self-pairs (A==B) are skipped."
		}
		b, err := e.loadValidated(targetID)
		if err != nil {
			log.Printf("score: skipping malformed target set_id %d for source %d: %v", targetID, sourceID, err)
			continue
		}
		if len(b) == 0 {
			continue
		}
		inter := Intersect(a, b)
		if inter == 0 {
			continue
		}
		sc := float64(inter) / aLen
		if sc <= e.cfg.MinScore {
			continue
		}
		topk.Offer(targetID, sc)
	}
	return emit.EmitSource(sourceID, topk.Results())
}

// loadValidated loads setID's members and verifies, once per set_id across
// the whole run, that they are ascending and free of internal zeros
// (invariants 2 and 4). A malformed set is reported as an error so the
// caller can log and skip it (spec §4.4 Failure policy).
func (e *Engine) loadValidated(setID uint32) ([]uint32, error) {
	arr, err := e.table.Load(setID)
	if err != nil {
		return nil, err
	}
	if cached, ok := e.validated.Load(setID); ok {
		if !cached.(bool) {
			return nil, errors.Errorf("set_id %d failed ascending-order validation", setID)
		}
		return arr, nil
	}
	ok := isStrictlyAscendingNonzero(arr)
	e.validated.Store(setID, ok)
	if !ok {
		return nil, errors.Errorf("set_id %d is not sorted ascending and deduplicated", setID)
	}
	return arr, nil
}

func isStrictlyAscendingNonzero(arr []uint32) bool {
	for i, v := range arr {
		if v == 0 {
			return false
		}
		if i > 0 && arr[i-1] >= v {
			return false
		}
	}
	return true
}
