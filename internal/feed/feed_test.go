package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/ChadIImus/Devoops/internal/models"
)

func makePost(id string, authorID int64, age time.Duration, flagged bool) models.Post {
	return models.Post{
		ID:          id,
		AuthorID:    authorID,
		Author:      fmt.Sprintf("user_%d", authorID),
		Text:        "post " + id,
		PublishDate: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Add(-age),
		Flagged:     flagged,
	}
}

// newest first, no flagged entries, capped at the page size
func TestPublic_OrderFilterCap(t *testing.T) {
	var candidates []models.Post
	for i := 0; i < 40; i++ {
		candidates = append(candidates, makePost(fmt.Sprintf("p%02d", i), 1, time.Duration(i)*time.Minute, false))
	}
	for i := 0; i < 5; i++ {
		candidates = append(candidates, makePost(fmt.Sprintf("f%02d", i), 1, time.Duration(i)*time.Second, true))
	}

	page := Public(candidates, PageSize)

	if len(page) != PageSize {
		t.Fatalf("expected %d posts, got %d", PageSize, len(page))
	}
	for i, p := range page {
		if p.Flagged {
			t.Fatalf("flagged post %s leaked into public timeline", p.ID)
		}
		if i > 0 && page[i-1].PublishDate.Before(p.PublishDate) {
			t.Fatalf("posts out of order at index %d", i)
		}
	}
	// the five flagged posts were the newest, so the page starts at p00
	if page[0].ID != "p00" {
		t.Fatalf("expected p00 first, got %s", page[0].ID)
	}
}

// equal publish dates fall back to post id descending
func TestAssemble_TieBreakDeterministic(t *testing.T) {
	a := makePost("aaa", 1, 0, false)
	b := makePost("bbb", 2, 0, false)
	c := makePost("ccc", 3, 0, false)

	page := Assemble(PageSize, []models.Post{a, c, b})

	want := []string{"ccc", "bbb", "aaa"}
	for i, id := range want {
		if page[i].ID != id {
			t.Fatalf("expected %v, got %s at index %d", want, page[i].ID, i)
		}
	}
}

// authors keep seeing their own flagged posts; followed flagged posts disappear
func TestPersonal_OwnFlaggedVisible(t *testing.T) {
	own := []models.Post{
		makePost("own-flagged", 1, time.Minute, true),
		makePost("own-ok", 1, 2*time.Minute, false),
	}
	followed := []models.Post{
		makePost("followed-ok", 2, 3*time.Minute, false),
		makePost("followed-flagged", 2, 4*time.Minute, true),
	}

	page := Personal(own, followed, PageSize)

	got := map[string]bool{}
	for _, p := range page {
		got[p.ID] = true
	}
	if !got["own-flagged"] {
		t.Fatal("author's own flagged post missing from personal timeline")
	}
	if got["followed-flagged"] {
		t.Fatal("followed author's flagged post leaked into personal timeline")
	}
	if len(page) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(page))
	}
}

func TestPersonal_MergeOrdering(t *testing.T) {
	own := []models.Post{
		makePost("o1", 1, 1*time.Minute, false),
		makePost("o2", 1, 5*time.Minute, false),
	}
	followed := []models.Post{
		makePost("f1", 2, 2*time.Minute, false),
		makePost("f2", 2, 4*time.Minute, false),
	}

	page := Personal(own, followed, PageSize)

	want := []string{"o1", "f1", "f2", "o2"}
	if len(page) != len(want) {
		t.Fatalf("expected %d posts, got %d", len(want), len(page))
	}
	for i, id := range want {
		if page[i].ID != id {
			t.Fatalf("expected %s at index %d, got %s", id, i, page[i].ID)
		}
	}
}

func TestFilter_KeepsOrder(t *testing.T) {
	posts := []models.Post{
		makePost("a", 1, time.Minute, false),
		makePost("b", 1, 2*time.Minute, true),
		makePost("c", 1, 3*time.Minute, false),
	}

	res := Filter(posts)
	if len(res) != 2 || res[0].ID != "a" || res[1].ID != "c" {
		t.Fatalf("unexpected filter result: %+v", res)
	}
}

func TestVisible(t *testing.T) {
	if !Visible(makePost("a", 1, 0, false)) {
		t.Fatal("unflagged post should be visible")
	}
	if Visible(makePost("b", 1, 0, true)) {
		t.Fatal("flagged post should not be visible")
	}
}

func TestAssemble_EmptyInput(t *testing.T) {
	if page := Assemble(PageSize); len(page) != 0 {
		t.Fatalf("expected empty page, got %d posts", len(page))
	}
}
