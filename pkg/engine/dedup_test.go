package engine

import (
	"context"
	"reflect"
	"testing"

	"caltidy/pkg/provider"
)

func soccerOccurrence(id, sid, start, end, created, location string) provider.Event {
	return provider.Event{
		ID:             id,
		SeriesMasterID: sid,
		Kind:           provider.KindOccurrence,
		Subject:        "Soccer",
		Start:          start,
		End:            end,
		CreatedAt:      created,
		Location:       provider.Location{DisplayName: location},
	}
}

// duplicateSoccer returns occurrences of two series that describe the
// same Monday 18:00-19:00 slot. Series A was created before series B.
func duplicateSoccer() []provider.Event {
	return []provider.Event{
		soccerOccurrence("a1", "A", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "2024-01-01T00:00:00Z", "Field"),
		soccerOccurrence("a2", "A", "2025-01-13T18:00:00", "2025-01-13T19:00:00", "2024-01-01T00:00:00Z", "Field"),
		soccerOccurrence("b1", "B", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "2024-06-01T00:00:00Z", "Field"),
	}
}

func dedupWindow() DedupRequest {
	return DedupRequest{FromDate: "2025-01-01", ToDate: "2025-03-01"}
}

func TestDedupKeepsOldestByDefault(t *testing.T) {
	svc := newFakeProvider(duplicateSoccer()...)
	res, err := Dedup(context.Background(), svc, dedupWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Groups) != 1 {
		t.Fatalf("expected one group, got %d", len(res.Groups))
	}
	g := res.Groups[0]
	if g.Keep != "A" || !reflect.DeepEqual(g.Delete, []string{"B"}) {
		t.Fatalf("unexpected selection: keep=%s delete=%v", g.Keep, g.Delete)
	}
	if g.Subject != "soccer" || g.Weekday != "MO" || g.StartTime != "18:00" || g.EndTime != "19:00" {
		t.Fatalf("unexpected group key: %+v", g)
	}
	if len(svc.deleted) != 0 {
		t.Fatal("dry run must not delete anything")
	}
}

func TestDedupKeepNewest(t *testing.T) {
	req := dedupWindow()
	req.KeepNewest = true
	res, err := Dedup(context.Background(), newFakeProvider(duplicateSoccer()...), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := res.Groups[0]
	if g.Keep != "B" || !reflect.DeepEqual(g.Delete, []string{"A"}) {
		t.Fatalf("unexpected selection: keep=%s delete=%v", g.Keep, g.Delete)
	}
}

func TestDedupSinglesNeverGroup(t *testing.T) {
	events := []provider.Event{
		{ID: "s1", Kind: provider.KindSingle, Subject: "Soccer", Start: "2025-01-06T18:00:00", End: "2025-01-06T19:00:00"},
		{ID: "s2", Kind: provider.KindSingle, Subject: "Soccer", Start: "2025-01-06T18:00:00", End: "2025-01-06T19:00:00"},
	}
	res, err := Dedup(context.Background(), newFakeProvider(events...), dedupWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Groups) != 0 {
		t.Fatalf("singles must not form groups: %+v", res.Groups)
	}
}

func TestDedupLocationDoesNotSplitGroups(t *testing.T) {
	events := []provider.Event{
		soccerOccurrence("a1", "A", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "2024-01-01T00:00:00Z", "Field 1"),
		soccerOccurrence("b1", "B", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "2024-06-01T00:00:00Z", "Field 2 North"),
	}
	res, err := Dedup(context.Background(), newFakeProvider(events...), dedupWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Groups) != 1 {
		t.Fatalf("differently formatted locations must still group: %+v", res.Groups)
	}
}

func TestDedupStandardizationPreference(t *testing.T) {
	events := []provider.Event{
		soccerOccurrence("a1", "A", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "2024-01-01T00:00:00Z", "Pool"),
		soccerOccurrence("b1", "B", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "2024-06-01T00:00:00Z", "Pool (123 Main St, City, ON A1A 1A1)"),
	}

	req := dedupWindow()
	req.PreferDeleteNonstandard = true
	res, err := Dedup(context.Background(), newFakeProvider(events...), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g := res.Groups[0]; g.Keep != "B" {
		t.Fatalf("expected the standardized series kept, got keep=%s", g.Keep)
	}

	req = dedupWindow()
	req.DeleteStandardized = true
	res, err = Dedup(context.Background(), newFakeProvider(events...), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g := res.Groups[0]; g.Keep != "A" {
		t.Fatalf("expected the plain series kept, got keep=%s", g.Keep)
	}
}

func TestDedupStructuredAddressCountsAsStandardized(t *testing.T) {
	a := soccerOccurrence("a1", "A", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "2024-01-01T00:00:00Z", "Pool")
	b := soccerOccurrence("b1", "B", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "2024-06-01T00:00:00Z", "Pool")
	b.Location.Address = provider.Address{Street: "123 Main St", City: "City"}

	req := dedupWindow()
	req.PreferDeleteNonstandard = true
	res, err := Dedup(context.Background(), newFakeProvider(a, b), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g := res.Groups[0]; g.Keep != "B" {
		t.Fatalf("expected the addressed series kept, got keep=%s", g.Keep)
	}
}

// One member always survives and the rest are deleted, whatever the
// flag combination.
func TestDedupConservation(t *testing.T) {
	events := []provider.Event{
		soccerOccurrence("a1", "A", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "2024-01-01T00:00:00Z", "Pool (1 Main St)"),
		soccerOccurrence("b1", "B", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "2024-06-01T00:00:00Z", "Pool"),
		soccerOccurrence("c1", "C", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "", "Pool"),
	}
	for _, req := range []DedupRequest{
		dedupWindow(),
		{FromDate: "2025-01-01", ToDate: "2025-03-01", KeepNewest: true},
		{FromDate: "2025-01-01", ToDate: "2025-03-01", PreferDeleteNonstandard: true},
		{FromDate: "2025-01-01", ToDate: "2025-03-01", DeleteStandardized: true},
		{FromDate: "2025-01-01", ToDate: "2025-03-01", PreferDeleteNonstandard: true, KeepNewest: true},
	} {
		res, err := Dedup(context.Background(), newFakeProvider(events...), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, g := range res.Groups {
			if len(g.Members) != len(g.Delete)+1 {
				t.Fatalf("group loses or duplicates members: %+v (req %+v)", g, req)
			}
			for _, d := range g.Delete {
				if d == g.Keep {
					t.Fatalf("keeper scheduled for deletion: %+v (req %+v)", g, req)
				}
			}
		}
	}
}

func TestDedupPlanIsDeterministic(t *testing.T) {
	events := []provider.Event{
		soccerOccurrence("a1", "A", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "", "Field"),
		soccerOccurrence("b1", "B", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "", "Field"),
		soccerOccurrence("c1", "C", "2025-01-07T10:00:00", "2025-01-07T11:00:00", "", "Pool"),
		soccerOccurrence("d1", "D", "2025-01-07T10:00:00", "2025-01-07T11:00:00", "", "Pool"),
	}
	first, err := Dedup(context.Background(), newFakeProvider(events...), dedupWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Dedup(context.Background(), newFakeProvider(events...), dedupWindow())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first.Groups, again.Groups) {
			t.Fatalf("plan changed between runs.\nfirst: %+v\nagain: %+v", first.Groups, again.Groups)
		}
	}
}

func TestDedupApplyDeletesLosers(t *testing.T) {
	svc := newFakeProvider(duplicateSoccer()...)
	req := dedupWindow()
	req.Apply = true
	res, err := Dedup(context.Background(), svc, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Deleted != 1 || !reflect.DeepEqual(svc.deleted, []string{"B"}) {
		t.Fatalf("unexpected deletions: %v (deleted=%d)", svc.deleted, res.Deleted)
	}
}

func TestDedupApplyContinuesAfterFailure(t *testing.T) {
	events := []provider.Event{
		soccerOccurrence("a1", "A", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "2024-01-01T00:00:00Z", "Field"),
		soccerOccurrence("b1", "B", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "2024-06-01T00:00:00Z", "Field"),
		soccerOccurrence("c1", "C", "2025-01-06T18:00:00", "2025-01-06T19:00:00", "2024-07-01T00:00:00Z", "Field"),
	}
	svc := newFakeProvider(events...)
	svc.deleteErr["B"] = errBackend
	req := dedupWindow()
	req.Apply = true
	res, err := Dedup(context.Background(), svc, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Deleted != 1 || !reflect.DeepEqual(svc.deleted, []string{"C"}) {
		t.Fatalf("expected C deleted despite B failing: %v", svc.deleted)
	}
}
