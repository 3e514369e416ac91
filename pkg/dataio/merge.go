package dataio

import (
	"fmt"

	"github.com/arnavshah/position-helper-go/pkg/models"
)

// Strategy decides how an import is combined with the stored data
type Strategy string

const (
	// Overwrite replaces everything with the incoming data
	Overwrite Strategy = "overwrite"
	// MergeIncoming keeps both sides and lets incoming entries win on conflict
	MergeIncoming Strategy = "merge_incoming"
	// MergeExisting keeps both sides and lets existing entries win on conflict
	MergeExisting Strategy = "merge_existing"
)

// ParseStrategy converts a strategy name, defaulting to MergeIncoming when empty
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return MergeIncoming, nil
	case Overwrite, MergeIncoming, MergeExisting:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown merge strategy %q", s)
}

// Merge combines current and incoming without modifying either.
// Members match by trimmed name, weeks by key.
func Merge(current, incoming *models.AppData, strategy Strategy) *models.AppData {
	if strategy == Overwrite {
		return incoming.Clone()
	}

	out := current.Clone()
	in := incoming.Clone()

	index := make(map[string]int, len(out.Members))
	for i, m := range out.Members {
		index[models.NormalizeName(m.Name)] = i
	}
	for _, m := range in.Members {
		i, ok := index[models.NormalizeName(m.Name)]
		switch {
		case !ok:
			index[models.NormalizeName(m.Name)] = len(out.Members)
			out.Members = append(out.Members, m)
		case strategy == MergeIncoming:
			out.Members[i] = m
		}
	}

	for date, week := range in.Weeks {
		if _, ok := out.Weeks[date]; ok && strategy != MergeIncoming {
			continue
		}
		out.Weeks[date] = week
	}
	return out
}
