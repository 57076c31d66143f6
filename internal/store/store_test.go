package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/khushisara1/news-digest/internal/digest"
)

func testDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleItems() []digest.Item {
	now := time.Now().UTC()
	return []digest.Item{
		{Title: "Chip exports tighten", URL: "https://a.com/1", Source: "Reuters", Category: "Technology", Summary: "New limits on chip exports.", PublishedAt: now.Add(-1 * time.Hour)},
		{Title: "Rates hold steady", URL: "https://b.com/2", Source: "Bloomberg", Category: "Business", Summary: "The central bank held rates.", PublishedAt: now.Add(-2 * time.Hour), Rating: 4},
		{Title: "Storm season outlook", URL: "https://c.com/3", Source: "AP", Category: "Climate", Summary: "A busy storm season is forecast.", PublishedAt: now.Add(-48 * time.Hour)},
	}
}

func saveAll(t *testing.T, db *Store, items []digest.Item) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		id, err := db.SaveItem(it)
		if err != nil {
			t.Fatalf("save %q: %v", it.Title, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestSaveAndGet(t *testing.T) {
	db := testDB(t)
	ids := saveAll(t, db, sampleItems())

	got, err := db.GetItem(ids[0])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Chip exports tighten" || got.Source != "Reuters" {
		t.Errorf("unexpected item: %+v", got)
	}
	if got.Slug != "chip-exports-tighten" {
		t.Errorf("slug = %q", got.Slug)
	}
	if got.ArticleID == "" {
		t.Error("expected an article id")
	}
	if got.SavedAt.IsZero() {
		t.Error("expected saved_at to be set")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	saveAll(t, db, sampleItems())
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	items, err := db.ListItems(ListOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("expected 3 items after reopen, got %d", len(items))
	}
}

func TestSaveRejectsInvalidRating(t *testing.T) {
	db := testDB(t)
	for _, r := range []int{-1, 6} {
		it := sampleItems()[0]
		it.Rating = r
		if _, err := db.SaveItem(it); !errors.Is(err, ErrInvalidRating) {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", r, err)
		}
	}
}

func TestSaveRequiresURL(t *testing.T) {
	db := testDB(t)
	if _, err := db.SaveItem(digest.Item{Title: "no link"}); err == nil {
		t.Error("expected error for empty url")
	}
}

func TestSaveSameURLUpdates(t *testing.T) {
	db := testDB(t)
	it := sampleItems()[0]
	first, err := db.SaveItem(it)
	if err != nil {
		t.Fatal(err)
	}

	it.Summary = "Updated summary."
	it.Rating = 5
	second, err := db.SaveItem(it)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("expected same id on re-save, got %d and %d", first, second)
	}

	items, _ := db.ListItems(ListOpts{})
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Summary != "Updated summary." || items[0].Rating != 5 {
		t.Errorf("re-save did not update: %+v", items[0])
	}
}

func TestListOrder(t *testing.T) {
	db := testDB(t)
	saveAll(t, db, sampleItems())

	items, err := db.ListItems(ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Rates hold steady", "Chip exports tighten", "Storm season outlook"}
	for i, w := range want {
		if items[i].Title != w {
			t.Errorf("position %d: got %q, want %q", i, items[i].Title, w)
		}
	}
}

func TestListFilters(t *testing.T) {
	db := testDB(t)
	saveAll(t, db, sampleItems())

	tests := []struct {
		name string
		opts ListOpts
		want int
	}{
		{"all", ListOpts{}, 3},
		{"category", ListOpts{Category: "Business"}, 1},
		{"All category", ListOpts{Category: "All"}, 3},
		{"search title", ListOpts{Search: "CHIP"}, 1},
		{"search source", ListOpts{Search: "bloomberg"}, 1},
		{"search summary", ListOpts{Search: "forecast"}, 1},
		{"like wildcard is literal", ListOpts{Search: "%"}, 0},
		{"limit", ListOpts{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListItems(tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d items, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	saveAll(t, db, sampleItems())

	got, err := db.Search("storm")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Source != "AP" {
		t.Errorf("unexpected search result: %+v", got)
	}
}

func TestCategories(t *testing.T) {
	db := testDB(t)
	saveAll(t, db, sampleItems())

	cats, err := db.Categories()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Business", "Climate", "Technology"}
	if len(cats) != len(want) {
		t.Fatalf("got %v, want %v", cats, want)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Errorf("got %v, want %v", cats, want)
		}
	}
}

func TestUpdateRating(t *testing.T) {
	db := testDB(t)
	ids := saveAll(t, db, sampleItems())

	if err := db.UpdateRating(ids[0], 3); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := db.GetItem(ids[0])
	if got.Rating != 3 {
		t.Errorf("rating = %d, want 3", got.Rating)
	}

	if err := db.UpdateRating(ids[0], 9); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}
	if err := db.UpdateRating(9999, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	db := testDB(t)
	ids := saveAll(t, db, sampleItems())

	if err := db.DeleteItem(ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.GetItem(ids[1]); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := db.DeleteItem(ids[1]); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	var n int
	db.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&n)
	if n != 2 {
		t.Errorf("expected article row removed, %d left", n)
	}
}

func TestDigestLifecycle(t *testing.T) {
	db := testDB(t)
	ids := saveAll(t, db, sampleItems())

	d, err := db.CreateDigest("Morning", `{"topics":["Technology"]}`, []int64{ids[2], ids[0], ids[2]})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.ID == "" || d.Name != "Morning" {
		t.Errorf("unexpected digest: %+v", d)
	}
	if len(d.Items) != 2 {
		t.Fatalf("expected duplicates collapsed to 2 items, got %d", len(d.Items))
	}
	if d.Items[0].Title != "Storm season outlook" {
		t.Errorf("digest order not kept: first is %q", d.Items[0].Title)
	}

	list, err := db.ListDigests()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Items != 2 {
		t.Errorf("unexpected digest list: %+v", list)
	}

	// Deleting an item drops it from the digest.
	if err := db.DeleteItem(ids[0]); err != nil {
		t.Fatal(err)
	}
	d, _ = db.GetDigest(d.ID)
	if len(d.Items) != 1 {
		t.Errorf("expected 1 item after delete, got %d", len(d.Items))
	}

	if err := db.DeleteDigest(d.ID); err != nil {
		t.Fatalf("delete digest: %v", err)
	}
	if _, err := db.GetDigest(d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := db.DeleteDigest(d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCreateDigestUnknownItem(t *testing.T) {
	db := testDB(t)
	if _, err := db.CreateDigest("bad", "", []int64{42}); err == nil {
		t.Fatal("expected foreign key error")
	}
	list, _ := db.ListDigests()
	if len(list) != 0 {
		t.Errorf("failed create left %d digests behind", len(list))
	}
}

func TestCreateDigestDefaultName(t *testing.T) {
	db := testDB(t)
	d, err := db.CreateDigest("  ", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name == "" {
		t.Error("expected a generated name")
	}
	if d.Items == nil {
		t.Error("expected non-nil empty items")
	}
}

func TestPrune(t *testing.T) {
	db := testDB(t)
	ids := saveAll(t, db, sampleItems())

	if _, err := db.CreateDigest("new", "", ids); err != nil {
		t.Fatal(err)
	}
	old := utc(time.Now().Add(-30 * 24 * time.Hour))
	if _, err := db.db.Exec(`INSERT INTO digests (id, name, query, created_at) VALUES ('old', 'old', '', ?)`, old); err != nil {
		t.Fatal(err)
	}

	n, err := db.Prune(7 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned, got %d", n)
	}

	list, _ := db.ListDigests()
	if len(list) != 1 || list[0].Name != "new" {
		t.Errorf("unexpected digests after prune: %+v", list)
	}
	items, _ := db.ListItems(ListOpts{})
	if len(items) != 3 {
		t.Errorf("prune must keep saved items, got %d", len(items))
	}
}

func TestStats(t *testing.T) {
	db := testDB(t)
	items := sampleItems()
	items[0].Rating = 2
	ids := saveAll(t, db, items)
	if _, err := db.CreateDigest("d", "", ids[:1]); err != nil {
		t.Fatal(err)
	}

	st, err := db.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.SavedItems != 3 || st.Rated != 2 || st.Digests != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
	if st.AvgRating != 3 {
		t.Errorf("avg rating = %v, want 3", st.AvgRating)
	}
	if st.Categories["Business"] != 1 {
		t.Errorf("categories = %v", st.Categories)
	}
	if st.SizeBytes == 0 {
		t.Error("expected non-zero db size")
	}
}

func TestLastFetch(t *testing.T) {
	db := testDB(t)

	if !db.NeedsRefresh(time.Hour) {
		t.Error("expected refresh needed with no last fetch")
	}
	last, err := db.LastFetch()
	if err != nil || !last.IsZero() {
		t.Errorf("expected zero time, got %v (%v)", last, err)
	}

	now := time.Now()
	if err := db.SetLastFetch(now); err != nil {
		t.Fatal(err)
	}
	if db.NeedsRefresh(time.Hour) {
		t.Error("expected no refresh right after fetch")
	}
	last, _ = db.LastFetch()
	if last.Unix() != now.Unix() {
		t.Errorf("last fetch = %v, want %v", last, now)
	}
}
