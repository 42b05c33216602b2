// Package simhash computes 64-bit similarity fingerprints. The analyzer's
// query-parameter probe uses DOM fingerprints to decide whether a probed
// response is structurally different from the plain homepage, which plain
// byte-length comparison misses when a site pads responses.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"

	"golang.org/x/net/html"
)

// shingleSize is the n-gram width used over DOM tag sequences.
const shingleSize = 3

// Fingerprint computes a 64-bit SimHash of the given text using FNV-64a
// over whitespace-separated tokens.
func Fingerprint(text string) uint64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 0
	}

	var vector [64]int
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i, v := range vector {
		if v > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within threshold bits.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// FingerprintDOM fingerprints the tag structure of an HTML document,
// ignoring text content and attributes. Two pages with the same layout but
// different content produce identical fingerprints, so a changed fingerprint
// is evidence the server actually rendered something different.
func FingerprintDOM(htmlStr string) uint64 {
	tags := tagSequence(htmlStr)
	if len(tags) == 0 {
		return 0
	}
	if len(tags) < shingleSize {
		return Fingerprint(strings.Join(tags, " "))
	}

	shingles := make([]string, 0, len(tags)-shingleSize+1)
	for i := 0; i <= len(tags)-shingleSize; i++ {
		shingles = append(shingles, strings.Join(tags[i:i+shingleSize], "_"))
	}
	return Fingerprint(strings.Join(shingles, " "))
}

// tagSequence collects open-tag names in document order.
func tagSequence(htmlStr string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	var tags []string
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			tags = append(tags, string(tn))
		}
	}
}
