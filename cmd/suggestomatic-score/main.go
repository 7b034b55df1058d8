// Command suggestomatic-score loads the binary layout produced by
// suggestomatic-prepare and computes top-K asymmetric overlap
// recommendations for every set (spec §4.4, §4.5, §6.3).
package main

import (
	"flag"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/civiccc/suggestomatic/internal/emit"
	"github.com/civiccc/suggestomatic/internal/memberset"
	"github.com/civiccc/suggestomatic/internal/partition"
	"github.com/civiccc/suggestomatic/internal/score"
)

var (
	setIDPath      = flag.String("set-id-filename", "", "Set-id directory produced by suggestomatic-prepare. (required)")
	membersPath    = flag.String("set-members-filename", "", "Concatenated member arrays file produced by suggestomatic-prepare. (required)")
	indexPath      = flag.String("set-index-filename", "", "Offset index produced by suggestomatic-prepare. (required)")
	suggestionsOut = flag.String("suggestions-filename", "", "Output path for source_id,target_id,score lines. (required)")
	topK           = flag.Uint("top-k", score.DefaultTopK, "Number of recommendations retained per source.")
	beginAt        = flag.Uint("begin-at", 0, "Resume a previous run by skipping this many entries of the set-id directory.")
	workers        = flag.Int("workers", 0, "Number of scoring workers. 0 means GOMAXPROCS.")
	minScore       = flag.Float64("min-score", 0, "Drop recommendations at or below this score, in addition to the mandatory positive-score floor.")
	shardCount     = flag.Int("shard-count", 0, "If > 0, split source sets across this many independent shards (see -shard-id). Every shard still scores against the full target universe.")
	shardID        = flag.Int("shard-id", 0, "This process's shard, in [0, shard-count). Ignored unless -shard-count > 0.")
)

func main() {
	flag.Usage = func() {
		log.Printf("usage: suggestomatic-score -set-id-filename=sets.bin -set-members-filename=members.bin -set-index-filename=index.bin -suggestions-filename=suggestions.csv")
		flag.PrintDefaults()
	}
	flag.Parse()
	if *setIDPath == "" || *membersPath == "" || *indexPath == "" || *suggestionsOut == "" {
		flag.Usage()
		log.Fatal("suggestomatic-score: -set-id-filename, -set-members-filename, -set-index-filename and -suggestions-filename are all required")
	}

	shutdown := grail.Init()
	defer shutdown()
	ctx := vcontext.Background()

	directory, err := partition.LoadSetIDDirectory(ctx, *setIDPath)
	if err != nil {
		log.Fatal(err)
	}
	index, err := partition.LoadOffsetIndex(ctx, *indexPath)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("suggestomatic-score: first set ids: %v", directory[:min(10, len(directory))])
	log.Printf("suggestomatic-score: first index entries: %v", index[:min(10, len(index))])

	m, err := memberset.Open(*membersPath)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Printf("suggestomatic-score: closing members file: %v", err)
		}
	}()

	table, err := memberset.NewTable(m, index)
	if err != nil {
		log.Fatal(err)
	}

	w, err := emit.Open(*suggestionsOut)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Printf("suggestomatic-score: closing suggestions file: %v", err)
		}
	}()

	engine := score.NewEngine(table, directory, score.Config{
		TopK:       int(*topK),
		BeginAt:    uint32(*beginAt),
		Workers:    *workers,
		MinScore:   *minScore,
		ShardCount: *shardCount,
		ShardID:    *shardID,
	})
	if err := engine.Run(w); err != nil {
		log.Fatal(err)
	}
	log.Printf("suggestomatic-score: done")
}
