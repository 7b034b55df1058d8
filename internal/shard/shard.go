// Package shard provides a deterministic, content-addressed bucket
// assignment for set ids, independent of worker count or begin-at offset.
// It supplements the scoring engine's static chunking (spec §4.4, §5) with
// a stable identifier that a reprocessing or diagnostic tool can use to
// confirm two runs assigned the same source set to the same logical
// bucket, even if the number of workers changed between runs.
package shard

import farm "github.com/dgryski/go-farm"

// Assign returns the bucket in [0, buckets) that setID belongs to. It is a
// pure function of setID and buckets: the same set always lands in the
// same bucket for a fixed bucket count, regardless of scan order or
// worker-pool size.
func Assign(setID uint32, buckets int) int {
	if buckets <= 0 {
		return 0
	}
	var key [4]byte
	key[0] = byte(setID)
	key[1] = byte(setID >> 8)
	key[2] = byte(setID >> 16)
	key[3] = byte(setID >> 24)
	h := farm.Hash64WithSeed(key[:], 0)
	return int(h % uint64(buckets))
}
