package scraper

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/ysmood/gson"
)

// RawPageState is the loosely-typed data blob recovered from a profile
// page. The upstream has shipped several shapes for the same logical data
// (SIGI_STATE with UserModule/ItemModule, __UNIVERSAL_DATA_FOR_REHYDRATION__
// with a __DEFAULT_SCOPE__, and the bare webapp.user-detail object), so the
// typed views below go through per-shape accessor functions composed with a
// first-success-wins combinator instead of hard-coding one layout.
//
// A RawPageState is scoped to one scrape attempt and discarded after
// normalization.
type RawPageState struct {
	root gson.JSON
}

// marker keys that identify a blob as profile page state.
var stateMarkers = []string{"UserModule", "ItemModule", "__DEFAULT_SCOPE__", "userInfo"}

// parseState validates and wraps a JSON blob. Returns false for invalid
// JSON or JSON that carries none of the recognizable marker keys.
func parseState(data []byte) (*RawPageState, bool) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, marker := range stateMarkers {
		if _, found := m[marker]; found {
			return &RawPageState{root: gson.New(v)}, true
		}
	}
	return nil, false
}

// UserRecord is the typed view of one user entry in the raw state.
type UserRecord struct {
	UniqueID  string
	Nickname  string
	Bio       string
	AvatarURL string
	Verified  bool
	Private   bool

	Followers int
	Following int
	Hearts    int
	Videos    int
}

// Item is the typed view of one content (video) entry.
type Item struct {
	Caption      string
	HashtagNames []string
	Mentions     []string
	MusicTitle   string
	MusicAuthor  string

	Views    int
	Likes    int
	Comments int
	Shares   int
}

// UserRecords returns every user entry the blob carries, trying each known
// shape in priority order.
func (s *RawPageState) UserRecords() []UserRecord {
	return firstHit(s.root,
		usersFromUserModule,
		usersFromUserDetail,
		usersFromDefaultScope,
	)
}

// Items returns every content entry the blob carries.
func (s *RawPageState) Items() []Item {
	return firstHit(s.root,
		itemsFromItemModule,
		itemsFromItemList,
	)
}

// MatchUser finds the record for the requested username, matching uniqueId
// or nickname case-insensitively. There is deliberately no "first record"
// fallback: substituting an unrelated record would attribute another
// account's numbers to the caller's target.
func (s *RawPageState) MatchUser(username string) (UserRecord, bool) {
	want := strings.ToLower(username)
	for _, rec := range s.UserRecords() {
		if strings.ToLower(rec.UniqueID) == want || strings.ToLower(rec.Nickname) == want {
			return rec, true
		}
	}
	return UserRecord{}, false
}

// firstHit runs shape accessors in order and returns the first non-empty
// result.
func firstHit[T any](root gson.JSON, accessors ...func(gson.JSON) ([]T, bool)) []T {
	for _, access := range accessors {
		if out, ok := access(root); ok {
			return out
		}
	}
	return nil
}

// --- user shape accessors ---

// usersFromUserModule reads the classic SIGI_STATE shape:
// UserModule.users.<name> → record with a nested stats object. Some
// revisions key the map directly under UserModule. Keys are walked in
// sorted order so repeated reads of the same blob yield the same slice.
func usersFromUserModule(root gson.JSON) ([]UserRecord, bool) {
	users := gets(root, "UserModule", "users")
	if jsonNil(users) {
		users = gets(root, "UserModule")
	}
	m, ok := users.Val().(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}

	records := make([]UserRecord, 0, len(m))
	for _, key := range sortedKeys(m) {
		entry := gets(users, key)
		rec := userFromEntry(entry, gets(entry, "stats"))
		if rec.UniqueID == "" && rec.Nickname == "" {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, false
	}
	return records, true
}

// usersFromUserDetail reads the shape where the blob already is the
// webapp.user-detail object: userInfo.user + userInfo.stats.
func usersFromUserDetail(root gson.JSON) ([]UserRecord, bool) {
	return userInfoRecord(gets(root, "userInfo"))
}

// usersFromDefaultScope reads the full rehydration blob:
// __DEFAULT_SCOPE__["webapp.user-detail"].userInfo.
func usersFromDefaultScope(root gson.JSON) ([]UserRecord, bool) {
	return userInfoRecord(gets(root, "__DEFAULT_SCOPE__", "webapp.user-detail", "userInfo"))
}

// userInfoRecord handles both the nested (userInfo.user + userInfo.stats)
// and flattened (fields directly on userInfo) variants.
func userInfoRecord(info gson.JSON) ([]UserRecord, bool) {
	if jsonNil(info) {
		return nil, false
	}
	user := gets(info, "user")
	if jsonNil(user) {
		user = info
	}
	stats := gets(info, "stats")
	if jsonNil(stats) {
		stats = gets(user, "stats")
	}
	rec := userFromEntry(user, stats)
	if rec.UniqueID == "" && rec.Nickname == "" {
		return nil, false
	}
	return []UserRecord{rec}, true
}

func userFromEntry(user, stats gson.JSON) UserRecord {
	avatar := str(gets(user, "avatarLarger"))
	if avatar == "" {
		avatar = str(gets(user, "avatarMedium"))
	}
	if avatar == "" {
		avatar = str(gets(user, "avatarThumb"))
	}
	hearts := num(gets(stats, "heartCount"))
	if hearts == 0 {
		hearts = num(gets(stats, "heart"))
	}
	return UserRecord{
		UniqueID:  str(gets(user, "uniqueId")),
		Nickname:  str(gets(user, "nickname")),
		Bio:       str(gets(user, "signature")),
		AvatarURL: avatar,
		Verified:  boolean(gets(user, "verified")),
		Private:   boolean(gets(user, "privateAccount")),
		Followers: num(gets(stats, "followerCount")),
		Following: num(gets(stats, "followingCount")),
		Hearts:    hearts,
		Videos:    num(gets(stats, "videoCount")),
	}
}

// --- item shape accessors ---

// itemsFromItemModule reads ItemModule.items (or the map directly under
// ItemModule, as older revisions keyed it). Keys are walked in sorted
// order: item order feeds hashtag/audio insertion order downstream, and
// repeated normalization of one blob must not depend on map iteration.
func itemsFromItemModule(root gson.JSON) ([]Item, bool) {
	entries := gets(root, "ItemModule", "items")
	if jsonNil(entries) {
		entries = gets(root, "ItemModule")
	}
	m, ok := entries.Val().(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}

	items := make([]Item, 0, len(m))
	for _, key := range sortedKeys(m) {
		items = append(items, itemFromEntry(gets(entries, key)))
	}
	return items, true
}

// itemsFromItemList reads the array shape used by the item-list API
// responses that occasionally end up embedded in the page.
func itemsFromItemList(root gson.JSON) ([]Item, bool) {
	list := gets(root, "itemList")
	if jsonNil(list) {
		list = gets(root, "ItemList")
	}
	arr, ok := list.Val().([]any)
	if !ok || len(arr) == 0 {
		return nil, false
	}

	items := make([]Item, 0, len(arr))
	for i := range arr {
		items = append(items, itemFromEntry(gets(list, i)))
	}
	return items, true
}

func itemFromEntry(entry gson.JSON) Item {
	caption := str(gets(entry, "desc"))
	if caption == "" {
		caption = str(gets(entry, "text"))
	}

	var tags []string
	for _, field := range []string{"hashtags", "challenges"} {
		arr, ok := gets(entry, field).Val().([]any)
		if !ok {
			continue
		}
		for i := range arr {
			tag := gets(entry, field, i)
			name := str(gets(tag, "name"))
			if name == "" {
				name = str(gets(tag, "title"))
			}
			if name != "" {
				tags = append(tags, name)
			}
		}
	}

	var mentions []string
	if arr, ok := gets(entry, "mentions").Val().([]any); ok {
		for i := range arr {
			if m := str(gets(entry, "mentions", i)); m != "" {
				mentions = append(mentions, m)
			}
		}
	}

	stats := gets(entry, "stats")
	return Item{
		Caption:      caption,
		HashtagNames: tags,
		Mentions:     mentions,
		MusicTitle:   str(gets(entry, "music", "title")),
		MusicAuthor:  str(gets(entry, "music", "authorName")),
		Views:        num(gets(stats, "playCount")),
		Likes:        num(gets(stats, "diggCount")),
		Comments:     num(gets(stats, "commentCount")),
		Shares:       num(gets(stats, "shareCount")),
	}
}

// --- tolerant value readers ---
// gson's Gets reports presence as a second return; gets drops it because
// the readers below collapse "absent" and "wrong type" into zero values
// anyway. Numeric reads additionally clamp to non-negative.

func gets(j gson.JSON, sections ...interface{}) gson.JSON {
	v, _ := j.Gets(sections...)
	return v
}

func str(j gson.JSON) string {
	if v, ok := j.Val().(string); ok {
		return v
	}
	return ""
}

func num(j gson.JSON) int {
	if v, ok := j.Val().(float64); ok && v > 0 {
		return int(v)
	}
	return 0
}

func boolean(j gson.JSON) bool {
	v, _ := j.Val().(bool)
	return v
}

func jsonNil(j gson.JSON) bool {
	return j.Val() == nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
