package evsutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAmountMode is returned when keep_last is combined with a
// token-denominated amount (spec.md §4.5: "fails with InvalidAmountMode if
// combined with Tokens").
var ErrInvalidAmountMode = errors.New("invalid amount mode")

// AmountKind distinguishes the parsed shape of a user-supplied amount
// spec string (spec.md §4.5 "amount" parameter; also used for
// auto-compact thresholds, spec.md §4.9).
type AmountKind int

const (
	// AmountCount is a bare message count ("50").
	AmountCount AmountKind = iota
	// AmountPercent is a percentage of messages ("40%").
	AmountPercent
	// AmountTokens is an absolute token count ("140k" == 140000, or a bare
	// number).
	AmountTokens
	// AmountPercentTokens is a percentage of the token budget.
	AmountPercentTokens
)

// Amount is a parsed amount/threshold spec.
type Amount struct {
	Kind  AmountKind
	Value float64 // count, percent (0-100), or token count

	// KeepLast reinterprets Count(n)/Percent(p) as "keep the last n
	// messages, remove the rest" instead of the default "remove the first
	// n" (spec.md §4.5 "keep_last").
	KeepLast bool
}

// ApplyKeepLast sets the keep_last mode on a parsed amount. It is only
// defined for message-denominated amounts; combining it with a
// token-denominated amount is a mode conflict (spec.md §4.5).
func (a Amount) ApplyKeepLast() (Amount, error) {
	if a.Kind == AmountTokens || a.Kind == AmountPercentTokens {
		return Amount{}, fmt.Errorf("%w: keep_last cannot be combined with a token amount", ErrInvalidAmountMode)
	}
	a.KeepLast = true
	return a, nil
}

// ParseAmount parses the compact spec-string grammar used throughout EVS:
//
//	"50"     -> AmountCount{50}
//	"40%"    -> AmountPercent{40}
//	"140k"   -> AmountTokens{140000}
//	"1.5m"   -> AmountTokens{1500000}
//	"40%t"   -> AmountPercentTokens{40}  (percent-of-tokens suffix)
//
// A trailing "t" after a percent marks it as a token percentage rather than
// a message-count percentage; this disambiguates Percent(p) from
// PercentTokens(p) in spec.md §4.5.
func ParseAmount(spec string) (Amount, error) {
	s := strings.TrimSpace(spec)
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount spec")
	}

	if strings.HasSuffix(s, "%t") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%t"), 64)
		if err != nil {
			return Amount{}, fmt.Errorf("parsing percent-of-tokens amount %q: %w", spec, err)
		}
		return Amount{Kind: AmountPercentTokens, Value: v}, nil
	}
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return Amount{}, fmt.Errorf("parsing percent amount %q: %w", spec, err)
		}
		return Amount{Kind: AmountPercent, Value: v}, nil
	}

	lower := strings.ToLower(s)
	multiplier := 1.0
	numeric := lower
	switch {
	case strings.HasSuffix(lower, "k"):
		multiplier = 1_000
		numeric = strings.TrimSuffix(lower, "k")
	case strings.HasSuffix(lower, "m"):
		multiplier = 1_000_000
		numeric = strings.TrimSuffix(lower, "m")
	}
	v, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("parsing amount %q: %w", spec, err)
	}
	v *= multiplier

	if multiplier != 1.0 {
		return Amount{Kind: AmountTokens, Value: v}, nil
	}
	// A bare integer with no suffix is a message count; a bare integer used
	// as a token threshold is disambiguated by the caller's context (the
	// auto-compact threshold is always tokens-or-percent per spec.md §4.9).
	return Amount{Kind: AmountCount, Value: v}, nil
}

// ParseTokenThreshold parses a threshold spec string in the auto-compact
// context, where a bare number always means an absolute token count
// (spec.md §4.9 "threshold (absolute tokens or percent ...)").
func ParseTokenThreshold(spec string) (Amount, error) {
	a, err := ParseAmount(spec)
	if err != nil {
		return Amount{}, err
	}
	if a.Kind == AmountCount {
		a.Kind = AmountTokens
	}
	return a, nil
}
