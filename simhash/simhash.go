// Package simhash fingerprints chapter bodies so that a page served twice
// (a paywall stub, a "chapter not found" page) can be spotted.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode"
)

// shingleSize is the rune window hashed per feature. Rune windows work for
// CJK text, which has no spaces to split words on.
const shingleSize = 3

// Fingerprint computes a 64-bit SimHash of text over overlapping rune
// shingles, with case and whitespace normalised.
func Fingerprint(text string) uint64 {
	runes := normalize(text)
	if len(runes) == 0 {
		return 0
	}

	var vector [64]int
	add := func(feature []rune) {
		h := fnv.New64a()
		h.Write([]byte(string(feature)))
		hash := h.Sum64()
		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	if len(runes) < shingleSize {
		add(runes)
	} else {
		for i := 0; i+shingleSize <= len(runes); i++ {
			add(runes[i : i+shingleSize])
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// normalize lowercases text and collapses whitespace runs to one space.
func normalize(text string) []rune {
	fields := strings.FieldsFunc(strings.ToLower(text), unicode.IsSpace)
	return []rune(strings.Join(fields, " "))
}

// Distance returns the Hamming distance between two SimHash fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar returns true if the Hamming distance between two fingerprints
// is less than or equal to the threshold.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// Repeats remembers the previous chapter body and reports whether the next
// one is nearly identical to it.
type Repeats struct {
	Threshold int

	last uint64
	seen bool
}

// Check fingerprints text, compares it with the previous call and stores
// it for the next one.
func (r *Repeats) Check(text string) (distance int, repeated bool) {
	fp := Fingerprint(text)
	if fp == 0 {
		return 64, false
	}
	defer func() { r.last, r.seen = fp, true }()

	if !r.seen {
		return 64, false
	}
	d := Distance(r.last, fp)
	return d, d <= r.Threshold
}
