package tokens

import (
	"fmt"
	"math"
	"sync"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"
)

// Counter reports how many tokens text occupies. Tokenization is not
// additive across lines, so callers count whole windows, never sums of parts.
type Counter interface {
	Count(text string) int
}

// Encoding names a BPE vocabulary.
type Encoding = tokenizer.Encoding

const (
	// EncodingR50k is the GPT-2 vocabulary, shared by GPT-J and the base
	// GPT-3 models.
	EncodingR50k Encoding = tokenizer.R50kBase

	// EncodingP50k is used by the text-davinci-00x instruction models.
	EncodingP50k Encoding = tokenizer.P50kBase
)

// codecs holds one loaded vocabulary per encoding for the whole process.
var codecs sync.Map // Encoding -> tokenizer.Codec

// BPECounter counts with a byte-pair-encoding vocabulary. Counts are exact
// for every model sharing the encoding.
type BPECounter struct {
	codec tokenizer.Codec
}

// NewBPECounter returns a counter for enc, loading the vocabulary on first use.
func NewBPECounter(enc Encoding) (*BPECounter, error) {
	if c, ok := codecs.Load(enc); ok {
		return &BPECounter{codec: c.(tokenizer.Codec)}, nil
	}
	codec, err := tokenizer.Get(enc)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", enc, err)
	}
	c, _ := codecs.LoadOrStore(enc, codec)
	return &BPECounter{codec: c.(tokenizer.Codec)}, nil
}

// Count returns the number of BPE tokens in text. Input the codec rejects
// is estimated instead.
func (c *BPECounter) Count(text string) int {
	n, err := c.codec.Count(text)
	if err != nil {
		return estimate(text)
	}
	return n
}

// Encoding returns the vocabulary name.
func (c *BPECounter) Encoding() string {
	return c.codec.GetName()
}

// EstimatingCounter approximates one token per four runes. It stands in when
// no vocabulary can be loaded.
type EstimatingCounter struct{}

// NewEstimatingCounter returns the heuristic counter.
func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{}
}

// Count estimates the tokens in text, rounding to nearest.
func (*EstimatingCounter) Count(text string) int {
	return estimate(text)
}

func estimate(text string) int {
	return int(math.Round(float64(utf8.RuneCountInString(text)) / 4))
}
