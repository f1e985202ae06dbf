package longpoll

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ActionKind is the decision taken for an envelope.
type ActionKind int

const (
	// Abort stops the poller
	Abort ActionKind = iota
	// Advance dispatches updates and moves the cursor forward
	Advance
	// ResyncTs replaces the cursor with the one from the envelope
	ResyncTs
	// Renegotiate discards the session
	Renegotiate
)

func (k ActionKind) String() string {
	switch k {
	case Advance:
		return "advance"
	case ResyncTs:
		return "resync"
	case Renegotiate:
		return "renegotiate"
	}
	return "abort"
}

// Action is the classifier output.
type Action struct {
	Kind ActionKind
	// Ts for Advance and ResyncTs
	Ts Ts
	// KeepTs asks Renegotiate to continue from the current cursor
	KeepTs bool
	// Reason for Abort and Renegotiate
	Reason string
}

func (a Action) String() string {
	switch a.Kind {
	case Advance, ResyncTs:
		return a.Kind.String() + "(" + a.Ts.String() + ")"
	}
	if a.Reason != "" {
		return a.Kind.String() + "(" + a.Reason + ")"
	}
	return a.Kind.String()
}

// Rule is the reaction to a failure code.
type Rule int

const (
	RuleAbort Rule = iota
	RuleResync
	RuleRenegotiate
	RuleRenegotiateKeepTs
)

var ruleNames = map[Rule]string{
	RuleAbort:             "abort",
	RuleResync:            "resync",
	RuleRenegotiate:       "renegotiate",
	RuleRenegotiateKeepTs: "renegotiate-keep-ts",
}

func (r Rule) String() string {
	if name, ok := ruleNames[r]; ok {
		return name
	}
	return "rule(" + strconv.Itoa(int(r)) + ")"
}

func parseRule(s string) (Rule, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for rule, name := range ruleNames {
		if s == name {
			return rule, nil
		}
	}
	return RuleAbort, fmt.Errorf("longpoll: unknown failure rule %q", s)
}

// Policy maps provider failure codes to rules.
// Codes not listed abort the poller.
type Policy map[int]Rule

// DefaultPolicy is the VK Bots Long Poll failure table:
//
//	1 – ts is out of the history range; continue from the returned ts
//	2 – key expired; request a new key, keep the ts
//	3 – information lost; request a new key and ts
func DefaultPolicy() Policy {
	return Policy{
		1: RuleResync,
		2: RuleRenegotiateKeepTs,
		3: RuleRenegotiate,
	}
}

// ParsePolicy parses "code=rule[,code=rule...]",
// e.g. "1=resync,2=renegotiate-keep-ts,3=renegotiate".
// Empty input yields DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultPolicy(), nil
	}
	policy := make(Policy)
	for _, entry := range strings.Split(s, ",") {
		if entry = strings.TrimSpace(entry); entry == "" {
			continue
		}
		code, name, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("longpoll: failure policy %q: want code=rule", entry)
		}
		n, err := strconv.Atoi(strings.TrimSpace(code))
		if err != nil || n == 0 {
			return nil, fmt.Errorf("longpoll: failure policy %q: invalid code", entry)
		}
		rule, err := parseRule(name)
		if err != nil {
			return nil, err
		}
		policy[n] = rule
	}
	return policy, nil
}

func (p Policy) String() string {
	codes := make([]int, 0, len(p))
	for code := range p {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	parts := make([]string, len(codes))
	for i, code := range codes {
		parts[i] = strconv.Itoa(code) + "=" + p[code].String()
	}
	return strings.Join(parts, ",")
}

// Classify decides what to do with the envelope.
func (p Policy) Classify(env *Envelope) Action {
	if env.Failed == 0 {
		if env.Ts < env.RequestTs {
			// server moved back: the session changed under us
			return Action{
				Kind:   Renegotiate,
				Reason: "ts " + env.Ts.String() + " < " + env.RequestTs.String(),
			}
		}
		return Action{Kind: Advance, Ts: env.Ts}
	}

	rule, ok := p[env.Failed]
	if !ok {
		return Action{
			Kind:   Abort,
			Reason: "unknown failure code " + strconv.Itoa(env.Failed),
		}
	}
	reason := "failed " + strconv.Itoa(env.Failed)
	switch rule {
	case RuleResync:
		if !env.HasTs {
			return Action{Kind: Renegotiate, Reason: reason + " without ts"}
		}
		return Action{Kind: ResyncTs, Ts: env.Ts}
	case RuleRenegotiate:
		return Action{Kind: Renegotiate, Reason: reason}
	case RuleRenegotiateKeepTs:
		return Action{Kind: Renegotiate, KeepTs: true, Reason: reason}
	}
	return Action{Kind: Abort, Reason: reason}
}
