package engine

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"caltidy/pkg/provider"
	"caltidy/pkg/spec"
)

// PatchRule selects events by subject/location and declares the
// settings to layer over the rule set's defaults.
type PatchRule struct {
	Match PatchMatch             `yaml:"match"`
	Set   map[string]interface{} `yaml:"set"`
}

// PatchMatch holds the rule predicates. Each field accepts a scalar or
// a list in YAML; any one value matching satisfies that predicate, and
// all present predicates must hold.
type PatchMatch struct {
	SubjectContains  StringList `yaml:"subject_contains"`
	SubjectRegex     StringList `yaml:"subject_regex"`
	LocationContains StringList `yaml:"location_contains"`
}

// StringList unmarshals a YAML scalar or sequence into a string slice.
type StringList []string

func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		if strings.TrimSpace(v) != "" {
			*s = []string{v}
		}
		return nil
	case yaml.SequenceNode:
		var v []string
		if err := node.Decode(&v); err != nil {
			return err
		}
		var out []string
		for _, x := range v {
			if strings.TrimSpace(x) != "" {
				out = append(out, x)
			}
		}
		*s = out
		return nil
	}
	return fmt.Errorf("expected string or list, got yaml kind %d", node.Kind)
}

// PatchRuleSet is the declarative bulk-settings document: defaults plus
// ordered rules, first match wins.
type PatchRuleSet struct {
	Defaults map[string]interface{} `yaml:"defaults"`
	Rules    []PatchRule            `yaml:"rules"`
}

// LoadPatchRuleSet reads a YAML document with either a top-level
// settings: section or defaults/rules at the root.
func LoadPatchRuleSet(path string) (PatchRuleSet, error) {
	var rs PatchRuleSet
	data, err := os.ReadFile(path)
	if err != nil {
		return rs, fmt.Errorf("failed to read config: %w", err)
	}
	var wrapped struct {
		Settings *PatchRuleSet `yaml:"settings"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err == nil && wrapped.Settings != nil {
		return *wrapped.Settings, nil
	}
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return rs, fmt.Errorf("config must contain settings.rules: [] or top-level rules: []")
	}
	return rs, nil
}

// SettingsRequest applies a PatchRuleSet to every event in a window.
type SettingsRequest struct {
	RuleSet  PatchRuleSet
	Calendar string
	FromDate string
	ToDate   string
	DryRun   bool

	Window WindowResolver
}

// SettingsResult counts selection and mutation outcomes. Selected
// counts events a rule (or non-empty defaults) applied to, including
// those whose merged patch turned out to be a no-op.
type SettingsResult struct {
	Logs     []string
	Selected int
	Changed  int
	DryRun   bool
}

// ApplySettings evaluates the rule set against every occurrence in the
// window and patches the matches. A merged patch with nothing set is
// suppressed; per-event provider failures are logged and skipped.
func ApplySettings(ctx context.Context, svc provider.Provider, req SettingsRequest) (SettingsResult, error) {
	res := SettingsResult{DryRun: req.DryRun}

	startISO, endISO := req.Window.Resolve(req.FromDate, req.ToDate, 30, 180)
	events, err := svc.ListEventsInRange(ctx, provider.RangeQuery{
		CalendarName: req.Calendar,
		StartISO:     startISO,
		EndISO:       endISO,
	})
	if err != nil {
		return res, fmt.Errorf("failed to list events: %w", err)
	}

	for _, ev := range events {
		if ev.ID == "" {
			continue
		}
		cfg, matched := evaluateRules(req.RuleSet, ev)
		if !matched {
			continue
		}
		res.Selected++
		patch := buildPatch(cfg)
		if patch.IsZero() {
			continue
		}
		patch.CalendarName = req.Calendar
		if req.DryRun {
			res.Logs = append(res.Logs, fmt.Sprintf("[dry-run] would update %s | %s -> %s",
				ev.ID, strings.TrimSpace(ev.Subject), describePatch(patch)))
			continue
		}
		if err := svc.UpdateEventSettings(ctx, ev.ID, patch); err != nil {
			res.Logs = append(res.Logs, fmt.Sprintf("Failed to update %s: %v", ev.ID, err))
			continue
		}
		res.Changed++
	}
	return res, nil
}

// evaluateRules returns the merged config for an event: defaults
// overlaid with the first matching rule's set. ok is false when no rule
// matches and defaults are empty, meaning the event is not selected at
// all.
func evaluateRules(rs PatchRuleSet, ev provider.Event) (map[string]interface{}, bool) {
	subject := strings.TrimSpace(ev.Subject)
	location := strings.TrimSpace(ev.Location.DisplayName)

	var applySet map[string]interface{}
	matched := false
	for _, rule := range rs.Rules {
		if ruleMatches(rule.Match, subject, location) {
			applySet = rule.Set
			matched = true
			break
		}
	}
	if !matched && len(rs.Defaults) == 0 {
		return nil, false
	}
	cfg := map[string]interface{}{}
	for k, v := range rs.Defaults {
		cfg[k] = v
	}
	for k, v := range applySet {
		cfg[k] = v
	}
	return cfg, true
}

func ruleMatches(m PatchMatch, subject, location string) bool {
	if len(m.SubjectContains) > 0 && !anyContainsFold(subject, m.SubjectContains) {
		return false
	}
	if len(m.SubjectRegex) > 0 {
		hit := false
		for _, p := range m.SubjectRegex {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				continue
			}
			if re.MatchString(subject) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if len(m.LocationContains) > 0 && !anyContainsFold(location, m.LocationContains) {
		return false
	}
	return true
}

func anyContainsFold(s string, needles []string) bool {
	ls := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(ls, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// buildPatch coerces the merged loose config into a typed patch.
// Unparseable values become unset rather than errors.
func buildPatch(cfg map[string]interface{}) provider.SettingsPatch {
	var patch provider.SettingsPatch

	switch cats := cfg["categories"].(type) {
	case nil:
	case string:
		for _, p := range strings.Split(cats, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patch.Categories = append(patch.Categories, p)
			}
		}
	case []interface{}:
		for _, v := range cats {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				patch.Categories = append(patch.Categories, s)
			}
		}
	case []string:
		for _, v := range cats {
			if s := strings.TrimSpace(v); s != "" {
				patch.Categories = append(patch.Categories, s)
			}
		}
	default:
		patch.Categories = []string{strings.TrimSpace(fmt.Sprint(cats))}
	}
	if patch.Categories != nil {
		patch.Categories = dedupStrings(patch.Categories)
	}

	if v, ok := cfg["show_as"]; ok && v != nil {
		patch.ShowAs = strings.TrimSpace(fmt.Sprint(v))
	} else if v, ok := cfg["showAs"]; ok && v != nil {
		patch.ShowAs = strings.TrimSpace(fmt.Sprint(v))
	}
	if v, ok := cfg["sensitivity"]; ok && v != nil {
		patch.Sensitivity = strings.TrimSpace(fmt.Sprint(v))
	}
	patch.IsReminderOn = spec.CoerceBool(cfg["is_reminder_on"])
	if v, ok := cfg["reminder_minutes"]; ok && v != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(v))); err == nil {
			patch.ReminderMinutes = &n
		}
	}
	return patch
}

func dedupStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			out = append(out, s)
			seen[s] = true
		}
	}
	return out
}

func describePatch(p provider.SettingsPatch) string {
	var parts []string
	if p.Categories != nil {
		parts = append(parts, fmt.Sprintf("categories=%v", p.Categories))
	}
	if p.ShowAs != "" {
		parts = append(parts, "showAs="+p.ShowAs)
	}
	if p.Sensitivity != "" {
		parts = append(parts, "sensitivity="+p.Sensitivity)
	}
	if p.IsReminderOn != nil {
		parts = append(parts, fmt.Sprintf("isReminderOn=%t", *p.IsReminderOn))
	}
	if p.ReminderMinutes != nil {
		parts = append(parts, fmt.Sprintf("reminderMinutes=%d", *p.ReminderMinutes))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
