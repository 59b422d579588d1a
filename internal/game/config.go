package game

import "fmt"

// RoundType はラウンド構成の種類
type RoundType int

const (
	RoundSingle RoundType = iota + 1
	RoundDouble
	RoundTriple
)

// Rules holds the constants of one game variant. Sequences are fixed lists,
// not derived from the total.
type Rules struct {
	TotalCoins     int
	MinPlayers     int
	MaxPlayers     int
	DoubleSequence []int
	TripleSequence []int
}

// DefaultRules は12枚・最大5人のゲーム
func DefaultRules() Rules {
	return Rules{
		TotalCoins:     12,
		MinPlayers:     2,
		MaxPlayers:     5,
		DoubleSequence: []int{12, 1},
		TripleSequence: []int{12, 4, 1},
	}
}

// Validate checks that every configured batch size divides the total.
func (r Rules) Validate() error {
	if r.TotalCoins <= 0 {
		return fmt.Errorf("total coins must be positive, got %d", r.TotalCoins)
	}
	if r.MinPlayers < 1 || r.MaxPlayers < r.MinPlayers {
		return fmt.Errorf("invalid player range [%d, %d]", r.MinPlayers, r.MaxPlayers)
	}
	for _, seq := range [][]int{r.DoubleSequence, r.TripleSequence} {
		if len(seq) == 0 {
			return fmt.Errorf("empty batch sequence")
		}
		for _, size := range seq {
			if !r.validBatchSize(size) {
				return fmt.Errorf("batch size %d does not divide %d", size, r.TotalCoins)
			}
		}
	}
	return nil
}

func (r Rules) validBatchSize(size int) bool {
	return size > 0 && size <= r.TotalCoins && r.TotalCoins%size == 0
}

// RoundConfig is the host's choice for the game. SelectedBatchSize is only
// meaningful for RoundSingle.
type RoundConfig struct {
	Type              RoundType
	RequiredPlayers   int
	SelectedBatchSize int
}

// Sequence はラウンドごとのバッチサイズを返す
func (r Rules) Sequence(cfg RoundConfig) []int {
	switch cfg.Type {
	case RoundSingle:
		return []int{cfg.SelectedBatchSize}
	case RoundDouble:
		return append([]int(nil), r.DoubleSequence...)
	case RoundTriple:
		return append([]int(nil), r.TripleSequence...)
	}
	return nil
}

func (r Rules) defaultConfig() RoundConfig {
	return RoundConfig{Type: RoundTriple, RequiredPlayers: r.MaxPlayers}
}

func (r Rules) checkConfig(cfg RoundConfig) (RoundConfig, error) {
	switch cfg.Type {
	case RoundSingle:
		if cfg.SelectedBatchSize == 0 {
			return cfg, newError(KindInvalidInput, "batch size is required for a single round")
		}
		if !r.validBatchSize(cfg.SelectedBatchSize) {
			return cfg, newError(KindInvalidInput, fmt.Sprintf("batch size must divide %d", r.TotalCoins))
		}
	case RoundDouble, RoundTriple:
		cfg.SelectedBatchSize = 0
	default:
		return cfg, newError(KindInvalidInput, "unknown round type")
	}
	if cfg.RequiredPlayers < r.MinPlayers || cfg.RequiredPlayers > r.MaxPlayers {
		return cfg, newError(KindInvalidInput,
			fmt.Sprintf("required players must be between %d and %d", r.MinPlayers, r.MaxPlayers))
	}
	return cfg, nil
}
