package algo

import "simtrader/internal/domain"

// RulePolicy picks which rule of a multi-rule strategy drives the next entry
// cycle. prev is the index used for the previous cycle, or -1 on session
// start.
type RulePolicy interface {
	Select(s domain.Strategy, prev int) int
}

// FirstRule always trades the strategy's first rule.
type FirstRule struct{}

func (FirstRule) Select(domain.Strategy, int) int { return 0 }

// RoundRobin rotates through the strategy's rules, one per entry cycle.
type RoundRobin struct{}

func (RoundRobin) Select(s domain.Strategy, prev int) int {
	if len(s.Rules) == 0 {
		return 0
	}
	if prev < 0 {
		return 0
	}
	return (prev + 1) % len(s.Rules)
}
