package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/codeclash-oj/apiserver/internal/storage"
	"github.com/codeclash-oj/apiserver/types"
)

// The catalog and roster are externally curated JSON documents. In
// production they live in object storage; for local development they can
// be plain files.

// LoadChallenges reads the challenge catalog from object storage.
func LoadChallenges(ctx context.Context, st *storage.Storage, key string) ([]types.Challenge, error) {
	reader, err := st.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load catalog object %q: %w", key, err)
	}
	defer reader.Close()
	return decodeChallenges(reader)
}

// LoadChallengesFromFile reads the challenge catalog from a local file.
func LoadChallengesFromFile(path string) ([]types.Challenge, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog file %q: %w", path, err)
	}
	defer file.Close()
	return decodeChallenges(file)
}

// LoadRoster reads the user roster from object storage.
func LoadRoster(ctx context.Context, st *storage.Storage, key string) ([]types.RosterEntry, error) {
	reader, err := st.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load roster object %q: %w", key, err)
	}
	defer reader.Close()
	return decodeRoster(reader)
}

// LoadRosterFromFile reads the user roster from a local file.
func LoadRosterFromFile(path string) ([]types.RosterEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load roster file %q: %w", path, err)
	}
	defer file.Close()
	return decodeRoster(file)
}

func decodeChallenges(r io.Reader) ([]types.Challenge, error) {
	var challenges []types.Challenge
	if err := json.NewDecoder(r).Decode(&challenges); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for i, c := range challenges {
		if !c.Difficulty.Valid() {
			return nil, fmt.Errorf("challenge %d: invalid difficulty %q", c.ID, c.Difficulty)
		}
		if len(c.TestCases) == 0 {
			return nil, fmt.Errorf("challenge %d: no test cases", c.ID)
		}
		for j, tc := range c.TestCases {
			if tc.Index == 0 {
				challenges[i].TestCases[j].Index = j + 1
			}
		}
	}
	return challenges, nil
}

func decodeRoster(r io.Reader) ([]types.RosterEntry, error) {
	var roster []types.RosterEntry
	if err := json.NewDecoder(r).Decode(&roster); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	return roster, nil
}
