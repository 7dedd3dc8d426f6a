// Package tally parses detection tokens from the coin channel and keeps
// the persisted per-denomination counters.
package tally

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cashm/note-sorter/internal/domain"
)

// ParseToken classifies one raw line into a typed detection token.
// Prefixes are tried in priority order: COIN:, NOTE:, then the legacy Rs.
// form, which carries either kind and is resolved by set membership (coin
// set first). Sub-2-character lines fail with ErrLineNoise; any other
// failure returns ErrTokenInvalid. The raw text is kept on the token for
// diagnostics in both cases.
func ParseToken(line string) (domain.DetectionToken, error) {
	raw := strings.TrimSpace(line)

	if len(raw) < 2 {
		return unrecognized(raw), fmt.Errorf("%q: %w", raw, domain.ErrLineNoise)
	}

	if rest, ok := strings.CutPrefix(raw, "COIN:"); ok {
		if v, ok := parseDigits(rest); ok && domain.ValidCoin(v) {
			return domain.DetectionToken{Kind: domain.TokenCoin, Value: v, Raw: raw}, nil
		}
		return invalid(raw)
	}

	if rest, ok := strings.CutPrefix(raw, "NOTE:"); ok {
		if v, ok := parseDigits(rest); ok && domain.ValidNote(v) {
			return domain.DetectionToken{Kind: domain.TokenNote, Value: v, Raw: raw}, nil
		}
		return invalid(raw)
	}

	if rest, ok := strings.CutPrefix(raw, "Rs."); ok {
		v, ok := parseDigits(rest)
		switch {
		case ok && domain.ValidCoin(v):
			return domain.DetectionToken{Kind: domain.TokenCoin, Value: v, Raw: raw}, nil
		case ok && domain.ValidNote(v):
			return domain.DetectionToken{Kind: domain.TokenNote, Value: v, Raw: raw}, nil
		}
		return invalid(raw)
	}

	return invalid(raw)
}

// parseDigits accepts only all-digit strings; signs, spaces, and empty
// remainders all fail.
func parseDigits(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func unrecognized(raw string) domain.DetectionToken {
	return domain.DetectionToken{Kind: domain.TokenUnrecognized, Raw: raw}
}

func invalid(raw string) (domain.DetectionToken, error) {
	return unrecognized(raw), fmt.Errorf("%q: %w", raw, domain.ErrTokenInvalid)
}
