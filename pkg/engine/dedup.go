package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"caltidy/pkg/provider"
)

// DedupRequest configures duplicate-series detection over a window.
// The tie-break flags are evaluated in the order PreferDeleteNonstandard,
// DeleteStandardized, default; KeepNewest flips the default keep side.
type DedupRequest struct {
	Calendar                string
	FromDate                string // YYYY-MM-DD, optional
	ToDate                  string
	Apply                   bool
	KeepNewest              bool
	PreferDeleteNonstandard bool
	DeleteStandardized      bool

	Window WindowResolver
}

// DedupGroup is one set of recurring series that share a canonical key.
// Exactly one member survives: Keep is a member, Delete holds the rest.
type DedupGroup struct {
	Subject   string
	Weekday   string
	StartTime string
	EndTime   string
	Members   []string // all series master ids in the group
	Keep      string
	Delete    []string
}

// DedupResult is the duplicate plan plus apply-phase outcomes.
type DedupResult struct {
	Groups  []DedupGroup
	Applied bool
	Deleted int
	Logs    []string
}

// Dedup finds recurring series that are semantically identical (same
// canonical key, location excluded) but were created by separate import
// runs, and picks one survivor per group. With Apply set, the losing
// series masters are deleted best-effort: one failure is logged and the
// remaining deletions proceed.
func Dedup(ctx context.Context, svc provider.Provider, req DedupRequest) (DedupResult, error) {
	var res DedupResult

	startISO, endISO := req.Window.Resolve(req.FromDate, req.ToDate, 30, 180)
	calID := ""
	if req.Calendar != "" {
		id, err := svc.FindCalendarID(ctx, req.Calendar)
		if err != nil {
			return res, fmt.Errorf("calendar lookup failed: %w", err)
		}
		calID = id
	}
	occ, err := svc.ListCalendarView(ctx, calID, startISO, endISO)
	if err != nil {
		return res, fmt.Errorf("calendar view failed: %w", err)
	}

	res.Groups = findDuplicates(occ, req)
	res.Applied = req.Apply
	if req.Apply {
		for _, g := range res.Groups {
			for _, sid := range g.Delete {
				ok, derr := svc.DeleteEventByID(ctx, sid)
				if derr != nil {
					res.Logs = append(res.Logs, fmt.Sprintf("Failed to delete %s: %v", sid, derr))
					continue
				}
				if ok {
					res.Deleted++
					res.Logs = append(res.Logs, fmt.Sprintf("Deleted series master %s", sid))
				}
			}
		}
	}
	return res, nil
}

// findDuplicates buckets series masters by canonical key and selects a
// survivor for every key shared by two or more series. Singles (no
// series master id) never participate.
func findDuplicates(occ []provider.Event, req DedupRequest) []DedupGroup {
	type bucket struct {
		key     Key
		masters map[string][]provider.Event
	}
	buckets := map[Key]*bucket{}
	for _, ev := range occ {
		sid := ev.SeriesMasterID
		if sid == "" {
			continue
		}
		key := KeyForEvent(ev)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key, masters: map[string][]provider.Event{}}
			buckets[key] = b
		}
		b.masters[sid] = append(b.masters[sid], ev)
	}

	keys := make([]Key, 0, len(buckets))
	for k, b := range buckets {
		if len(b.masters) > 1 {
			keys = append(keys, k)
		}
	}
	// Map order is random; sort groups for a reproducible plan.
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Weekday != b.Weekday {
			return a.Weekday < b.Weekday
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})

	var groups []DedupGroup
	for _, k := range keys {
		b := buckets[k]
		keep, del, members := selectSeries(b.masters, req)
		if keep == "" {
			continue
		}
		groups = append(groups, DedupGroup{
			Subject:   k.Subject,
			Weekday:   k.Weekday,
			StartTime: k.Start,
			EndTime:   k.End,
			Members:   members,
			Keep:      keep,
			Delete:    del,
		})
	}
	return groups
}

// seriesCreatedAt is the earliest created timestamp seen on any of the
// series's occurrences. Unknown creation time sorts as maximal, i.e. a
// series we know nothing about is treated as the newest.
func seriesCreatedAt(occ []provider.Event) string {
	created := ""
	for _, ev := range occ {
		if ev.CreatedAt == "" {
			continue
		}
		if created == "" || ev.CreatedAt < created {
			created = ev.CreatedAt
		}
	}
	return created
}

// seriesStandardized reports whether any occurrence carries a structured
// address or a parenthesized qualifier in its display name, e.g.
// "Pool (123 Main St, City, ST)".
func seriesStandardized(occ []provider.Event) bool {
	for _, ev := range occ {
		if !ev.Location.Address.Empty() {
			return true
		}
		disp := ev.Location.DisplayName
		if strings.Contains(disp, "(") && strings.Contains(disp, ")") {
			return true
		}
	}
	return false
}

// selectSeries applies the tie-break policy to one key's series set and
// returns (keep, delete, members sorted oldest-first).
func selectSeries(masters map[string][]provider.Event, req DedupRequest) (string, []string, []string) {
	ids := make([]string, 0, len(masters))
	for sid := range masters {
		ids = append(ids, sid)
	}
	sortKey := func(sid string) string {
		if c := seriesCreatedAt(masters[sid]); c != "" {
			return c
		}
		return "Z" // unknown creation time sorts newest
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := sortKey(ids[i]), sortKey(ids[j])
		if a != b {
			return a < b
		}
		return ids[i] < ids[j]
	})
	if len(ids) == 0 {
		return "", nil, nil
	}
	oldest, newest := ids[0], ids[len(ids)-1]

	var std, non []string
	for _, sid := range ids {
		if seriesStandardized(masters[sid]) {
			std = append(std, sid)
		} else {
			non = append(non, sid)
		}
	}

	keepOldestOrNewest := func() string {
		if req.KeepNewest {
			return newest
		}
		return oldest
	}
	allExcept := func(keep string) []string {
		var out []string
		for _, sid := range ids {
			if sid != keep {
				out = append(out, sid)
			}
		}
		return out
	}

	// The keeper always comes from the preferred side; everything else in
	// the group is deleted, so members = {keep} + delete holds for every
	// policy.
	var keep string
	switch {
	case req.PreferDeleteNonstandard && len(std) > 0 && len(non) > 0:
		if req.KeepNewest {
			keep = std[len(std)-1]
		} else {
			keep = std[0]
		}
	case req.DeleteStandardized && len(std) > 0 && len(non) > 0:
		if req.KeepNewest {
			keep = non[len(non)-1]
		} else {
			keep = non[0]
		}
	default:
		keep = keepOldestOrNewest()
	}
	return keep, allExcept(keep), ids
}
