package progress

import "testing"

func TestCompositeKey_Movie(t *testing.T) {
	id := ContentIdentity{TitleID: "tt0137523"}
	if got := id.CompositeKey(); got != "tt0137523" {
		t.Fatalf("expected bare title id, got %q", got)
	}
}

func TestCompositeKey_Episode(t *testing.T) {
	id := ContentIdentity{TitleID: "5", Season: 1, Episode: 2}
	if got := id.CompositeKey(); got != "5:s01:e02" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestCompositeKey_Deterministic(t *testing.T) {
	a := ContentIdentity{TitleID: "5", Season: 1, Episode: 2}
	b := ContentIdentity{TitleID: "5", Season: 1, Episode: 2}
	if a.CompositeKey() != b.CompositeKey() {
		t.Fatal("expected identical identities to share a key")
	}
}

func TestCompositeKey_EpisodesDistinct(t *testing.T) {
	a := ContentIdentity{TitleID: "5", Season: 1, Episode: 2}
	b := ContentIdentity{TitleID: "5", Season: 1, Episode: 3}
	if a.CompositeKey() == b.CompositeKey() {
		t.Fatal("expected different episodes to have different keys")
	}
}

func TestEpisodic(t *testing.T) {
	if (ContentIdentity{TitleID: "x"}).Episodic() {
		t.Fatal("movie identity reported episodic")
	}
	if !(ContentIdentity{TitleID: "x", Season: 2, Episode: 1}).Episodic() {
		t.Fatal("episode identity not reported episodic")
	}
}
