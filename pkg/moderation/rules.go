package moderation

import (
	"iter"
	"slices"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// ParseAction validates an action name (case-insensitive)
func ParseAction(name string) (models.PunishmentAction, error) {
	action := models.PunishmentAction(strings.ToLower(strings.TrimSpace(name)))
	switch action {
	case models.ActionMute, models.ActionKick, models.ActionBan, models.ActionWarn:
		return action, nil
	}
	return "", &ValidationError{
		Field:   "action",
		Message: "invalid action " + name + ", must be mute, kick, ban or warn",
	}
}

// RuleSet holds the punishment rules of a guild keyed by threshold.
type RuleSet struct {
	rules map[int]models.PunishmentRule
}

// NewRuleSet builds a rule set. Later duplicates of a threshold win.
func NewRuleSet(rules []models.PunishmentRule) *RuleSet {
	rs := &RuleSet{rules: make(map[int]models.PunishmentRule, len(rules))}
	for _, r := range rules {
		rs.Upsert(r)
	}
	return rs
}

// Upsert inserts the rule or replaces the one with the same threshold
func (rs *RuleSet) Upsert(rule models.PunishmentRule) {
	rs.rules[rule.Threshold] = rule
}

// Remove deletes the rule for threshold and reports whether it existed
func (rs *RuleSet) Remove(threshold int) bool {
	if _, ok := rs.rules[threshold]; !ok {
		return false
	}
	delete(rs.rules, threshold)
	return true
}

// Get returns the rule configured for threshold
func (rs *RuleSet) Get(threshold int) (models.PunishmentRule, bool) {
	r, ok := rs.rules[threshold]
	return r, ok
}

// Len returns the number of rules
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Evaluate returns the rule with the highest threshold not above points.
// The most severe applicable punishment wins, not the first configured one.
func (rs *RuleSet) Evaluate(points int) (models.PunishmentRule, bool) {
	var (
		best  models.PunishmentRule
		found bool
	)
	for threshold, r := range rs.rules {
		if threshold > points {
			continue
		}
		if !found || threshold > best.Threshold {
			best, found = r, true
		}
	}
	return best, found
}

// All yields the rules in ascending threshold order. The sequence can be
// ranged over any number of times.
func (rs *RuleSet) All() iter.Seq[models.PunishmentRule] {
	return func(yield func(models.PunishmentRule) bool) {
		for _, t := range rs.thresholds() {
			if !yield(rs.rules[t]) {
				return
			}
		}
	}
}

// Rules returns an ascending snapshot suitable for persisting
func (rs *RuleSet) Rules() []models.PunishmentRule {
	out := make([]models.PunishmentRule, 0, len(rs.rules))
	for r := range rs.All() {
		out = append(out, r)
	}
	return out
}

func (rs *RuleSet) thresholds() []int {
	keys := make([]int, 0, len(rs.rules))
	for t := range rs.rules {
		keys = append(keys, t)
	}
	slices.Sort(keys)
	return keys
}
