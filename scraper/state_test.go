package scraper

import "testing"

// Records with whole subtrees missing (no stats, no avatar) must still come
// back as zeroed records rather than panicking or being dropped.
func TestUserRecords_ToleratesMissingFields(t *testing.T) {
	raw := `{"UserModule": {"users": {"dana": {"uniqueId": "dana"}}}}`
	recs := mustParseState(t, raw).UserRecords()

	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.UniqueID != "dana" {
		t.Errorf("uniqueId = %q, want dana", rec.UniqueID)
	}
	if rec.Followers != 0 || rec.Hearts != 0 || rec.Videos != 0 {
		t.Errorf("counters without a stats object must be zero: %+v", rec)
	}
	if rec.AvatarURL != "" || rec.Bio != "" {
		t.Errorf("string fields without source keys must be empty: %+v", rec)
	}
}

// A field of the wrong JSON type reads as its zero value, same as absent.
func TestUserRecords_ToleratesWrongTypes(t *testing.T) {
	raw := `{"UserModule": {"users": {"erin": {
		"uniqueId": "erin", "verified": "yes",
		"stats": {"followerCount": "lots", "heartCount": 7}
	}}}}`
	recs := mustParseState(t, raw).UserRecords()

	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Verified {
		t.Error("string verified field must not read as true")
	}
	if rec.Followers != 0 {
		t.Errorf("followers = %d, want 0 for a non-numeric count", rec.Followers)
	}
	if rec.Hearts != 7 {
		t.Errorf("hearts = %d, want 7", rec.Hearts)
	}
}

func TestUserRecords_AvatarAndHeartFallbackKeys(t *testing.T) {
	raw := `{"UserModule": {"users": {"finn": {
		"uniqueId": "finn",
		"avatarThumb": "https://img.example/finn-thumb.jpg",
		"stats": {"heart": 300}
	}}}}`
	recs := mustParseState(t, raw).UserRecords()

	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].AvatarURL != "https://img.example/finn-thumb.jpg" {
		t.Errorf("avatar = %q, want the thumb fallback", recs[0].AvatarURL)
	}
	if recs[0].Hearts != 300 {
		t.Errorf("hearts = %d, want 300 from the legacy heart key", recs[0].Hearts)
	}
}

// Items keyed by a JSON object must come out in sorted key order on every
// read; the declaration order in the document is irrelevant.
func TestItems_StableSortedOrder(t *testing.T) {
	raw := `{"ItemModule": {"items": {
		"b": {"desc": "second"},
		"c": {"desc": "third"},
		"a": {"desc": "first"}
	}}}`
	state := mustParseState(t, raw)

	want := []string{"first", "second", "third"}
	for round := 0; round < 20; round++ {
		items := state.Items()
		if len(items) != len(want) {
			t.Fatalf("round %d: got %d items, want %d", round, len(items), len(want))
		}
		for i, item := range items {
			if item.Caption != want[i] {
				t.Fatalf("round %d: items[%d].Caption = %q, want %q", round, i, item.Caption, want[i])
			}
		}
	}
}

func TestItems_ArrayShape(t *testing.T) {
	raw := `{"userInfo": {"user": {"uniqueId": "gus"}},
		"itemList": [
			{"desc": "one", "stats": {"playCount": 10}},
			{"desc": "two", "stats": {"playCount": 20}}
		]}`
	items := mustParseState(t, raw).Items()

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Caption != "one" || items[1].Caption != "two" {
		t.Errorf("array items out of order: %q, %q", items[0].Caption, items[1].Caption)
	}
	if items[1].Views != 20 {
		t.Errorf("views = %d, want 20", items[1].Views)
	}
}
