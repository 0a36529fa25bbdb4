package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kilupskalvis/langvc/internal/models"
	"github.com/klauspost/compress/zstd"
)

var (
	stashEncoder, _ = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	stashDecoder, _ = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
	)
)

// stashedString is the serialized form of one stashed staged entry
type stashedString struct {
	Branch    int     `json:"branch"`
	Lang      string  `json:"lang"`
	Component string  `json:"component"`
	StringID  string  `json:"stringid"`
	Baseline  *string `json:"baseline"`
	New       *string `json:"new"`
	StagedAt  int64   `json:"staged_at"`
}

// encodeStash serializes staged entries as zstd-compressed JSON
func encodeStash(entries []*models.StagedEntry) ([]byte, error) {
	out := make([]stashedString, len(entries))
	for i, e := range entries {
		out[i] = stashedString{
			Branch:    e.Branch,
			Lang:      e.Lang,
			Component: e.Component,
			StringID:  e.StringID,
			Baseline:  e.Baseline,
			New:       e.New,
			StagedAt:  e.StagedAt.Unix(),
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal stash: %w", err)
	}
	return stashEncoder.EncodeAll(data, nil), nil
}

// decodeStash restores staged entries for the given owner
func decodeStash(ownerID int64, blob []byte) ([]*models.StagedEntry, error) {
	data, err := stashDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress stash: %w", err)
	}
	var in []stashedString
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("unmarshal stash: %w", err)
	}

	entries := make([]*models.StagedEntry, len(in))
	for i, s := range in {
		entries[i] = &models.StagedEntry{
			EditorID: ownerID,
			Key:      models.Key{Branch: s.Branch, Lang: s.Lang, Component: s.Component, StringID: s.StringID},
			Baseline: s.Baseline,
			New:      s.New,
			StagedAt: time.Unix(s.StagedAt, 0).UTC(),
		}
	}
	return entries, nil
}
