package scraper

import (
	"testing"
)

const rehydrationFixture = `{"__DEFAULT_SCOPE__":{"webapp.user-detail":{"userInfo":{"user":{"uniqueId":"alice","nickname":"Alice","verified":false,"privateAccount":false},"stats":{"followerCount":1000,"followingCount":5,"heartCount":200,"videoCount":3}}}}}`

func newTestExtractor() *Extractor {
	return NewExtractor(1, 0)
}

func TestParseState_RejectsInvalidInput(t *testing.T) {
	if _, ok := parseState([]byte("not json")); ok {
		t.Error("invalid JSON accepted as page state")
	}
	if _, ok := parseState([]byte(`{"unrelated": 1}`)); ok {
		t.Error("JSON without state markers accepted")
	}
	if _, ok := parseState([]byte(`[1,2,3]`)); ok {
		t.Error("non-object JSON accepted")
	}
}

func TestExtractor_ScriptTag(t *testing.T) {
	html := `<html><body><script id="__UNIVERSAL_DATA_FOR_REHYDRATION__" type="application/json">` +
		rehydrationFixture + `</script></body></html>`

	state := newTestExtractor().Run(&source{html: html})
	if state == nil {
		t.Fatal("no state extracted from dedicated script tag")
	}
	rec, ok := state.MatchUser("alice")
	if !ok {
		t.Fatal("extracted state does not contain the user")
	}
	if rec.Followers != 1000 {
		t.Errorf("followers = %d, want 1000", rec.Followers)
	}
}

func TestExtractor_WindowAssignment(t *testing.T) {
	html := `<html><script>window.__UNIVERSAL_DATA_FOR_REHYDRATION__ = ` +
		rehydrationFixture + `;</script></html>`

	state := newTestExtractor().Run(&source{html: html})
	if state == nil {
		t.Fatal("no state extracted from window assignment")
	}
	if _, ok := state.MatchUser("Alice"); !ok {
		t.Error("nickname match failed on window-assignment state")
	}
}

func TestExtractor_ScriptScan(t *testing.T) {
	// No dedicated tag, no window assignment: the state is buried inside
	// an arbitrary bootstrap script.
	html := `<html><script>var bootstrap = {"UserModule":{"users":{"alice":{"uniqueId":"alice","nickname":"Alice","stats":{"followerCount":77}}}}};doInit(bootstrap);</script></html>`

	state := newTestExtractor().Run(&source{html: html})
	if state == nil {
		t.Fatal("no state extracted by script scan")
	}
	rec, ok := state.MatchUser("alice")
	if !ok || rec.Followers != 77 {
		t.Errorf("script-scan record = %+v (ok=%v), want followers 77", rec, ok)
	}
}

func TestExtractor_LiveEval(t *testing.T) {
	sess := &fakeSession{html: "<html><body>shell</body></html>", evalResult: rehydrationFixture}
	state := newTestExtractor().Run(&source{html: sess.html, sess: sess})
	if state == nil {
		t.Fatal("no state extracted via live evaluation")
	}
	if _, ok := state.MatchUser("alice"); !ok {
		t.Error("live-eval state missing the user")
	}
}

func TestExtractor_NoStateIsNotAnError(t *testing.T) {
	html := `<html><body><h1>profile</h1></body></html>`
	if state := newTestExtractor().Run(&source{html: html}); state != nil {
		t.Errorf("expected nil state for markup without any blob, got %+v", state)
	}
}

func TestEnclosingObject_BalancedWalk(t *testing.T) {
	s := `prefix {"a":{"b":"}"},"c":1} suffix`
	idx := 9 // inside the object
	got, ok := enclosingObject(s, idx)
	if !ok {
		t.Fatal("enclosingObject failed")
	}
	if got != `{"a":{"b":"}"},"c":1}` {
		t.Errorf("enclosingObject = %q", got)
	}
}
