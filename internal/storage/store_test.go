package storage

import (
	"context"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore creates a migrated in-memory Store for testing.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db := openTestDB(t)

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

// seedMedia inserts a media record with one cue per text, each two seconds long.
func seedMedia(t *testing.T, store *SQLiteStore, path string, texts ...string) *MediaRecord {
	t.Helper()
	rec := &MediaRecord{Path: path, ChangeToken: "1700000000.5", ModifiedTime: 1700000000}
	cues := make([]Cue, len(texts))
	for i, text := range texts {
		cues[i] = Cue{Start: float64(i * 2), End: float64(i*2 + 2), Text: text}
	}
	inserted, err := store.AddMediaWithCues(context.Background(), rec, cues)
	require.NoError(t, err)
	require.True(t, inserted)
	return rec
}

// --- Media records ---

func TestAddMediaWithCues_GetMedia_Roundtrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := &MediaRecord{Path: "/lib/show.mp4", ChangeToken: "1700000000.25", ModifiedTime: 1700000000}
	inserted, err := store.AddMediaWithCues(ctx, rec, nil)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Positive(t, rec.ID)

	got, err := store.GetMedia(ctx, "/lib/show.mp4")
	require.NoError(t, err)
	assert.Equal(t, *rec, *got)
}

func TestAddMediaWithCues_DuplicatePathIsNotAnError(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := &MediaRecord{Path: "/lib/show.mp4", ModifiedTime: 1}
	inserted, err := store.AddMediaWithCues(ctx, first, nil)
	require.NoError(t, err)
	require.True(t, inserted)

	dup := &MediaRecord{Path: "/lib/show.mp4", ModifiedTime: 2}
	inserted, err = store.AddMediaWithCues(ctx, dup, nil)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Zero(t, dup.ID)

	got, err := store.GetMedia(ctx, "/lib/show.mp4")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ModifiedTime, "original record must be untouched")
}

func TestGetMedia_NotFound(t *testing.T) {
	store := openTestStore(t)

	got, err := store.GetMedia(context.Background(), "/nope.mp4")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, got)
}

func TestLastModifiedTime(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	last, err := store.LastModifiedTime(ctx)
	require.NoError(t, err)
	assert.Zero(t, last, "empty index")

	for i, mt := range []int64{300, 100, 200} {
		_, err := store.AddMediaWithCues(ctx, &MediaRecord{Path: fmt.Sprintf("/m%d.mp4", i), ModifiedTime: mt}, nil)
		require.NoError(t, err)
	}

	last, err = store.LastModifiedTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(300), last)
}

// --- Cues ---

func TestAddMediaWithCues_DuplicateWritesNothing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedMedia(t, store, "/lib/show.mp4", "a", "b")

	rec := &MediaRecord{Path: "/lib/show.mp4"}
	inserted, err := store.AddMediaWithCues(ctx, rec, []Cue{{Start: 9, End: 10, Text: "extra"}})
	require.NoError(t, err)
	assert.False(t, inserted)

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.MediaFiles)
	assert.Equal(t, int64(2), stats.Cues)
}

func TestAddMediaWithCues_PreservesOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Out-of-order timestamps keep insertion order.
	cues := []Cue{
		{Start: 5, End: 6, Text: "first"},
		{Start: 1, End: 2, Text: "second"},
		{Start: 3, End: 4, Text: "third"},
	}
	rec := &MediaRecord{Path: "/lib/show.mp4"}
	_, err := store.AddMediaWithCues(ctx, rec, cues)
	require.NoError(t, err)

	hits, err := store.SearchCues(ctx, "second")
	require.NoError(t, err)
	require.Len(t, hits, 1)

	before, err := store.CuesBefore(ctx, rec.ID, hits[0].Cue.ID, 5)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, "first", before[0].Text)

	after, err := store.CuesAfter(ctx, rec.ID, hits[0].Cue.ID, 5)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "third", after[0].Text)
}

func TestCuesBeforeAfter_Bounds(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	rec := seedMedia(t, store, "/lib/show.mp4", "c1", "c2", "c3", "c4", "c5")
	other := seedMedia(t, store, "/lib/other.mp4", "o1", "o2")

	hits, err := store.SearchCues(ctx, "c3")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	mid := hits[0].Cue

	before, err := store.CuesBefore(ctx, rec.ID, mid.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, texts(before), "ascending order, nearest last")

	after, err := store.CuesAfter(ctx, rec.ID, mid.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c4", "c5"}, texts(after), "stops at the end of the record")

	none, err := store.CuesBefore(ctx, rec.ID, mid.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	// Never crosses into another media record.
	hits, err = store.SearchCues(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	before, err = store.CuesBefore(ctx, other.ID, hits[0].Cue.ID, 3)
	require.NoError(t, err)
	assert.Empty(t, before)
}

func TestReplaceCues(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	rec := seedMedia(t, store, "/lib/show.mp4", "old one", "old two")

	rec.ChangeToken = "1800000000.75"
	rec.ModifiedTime = 1800000000
	require.NoError(t, store.ReplaceCues(ctx, rec, []Cue{
		{Start: 0, End: 1, Text: "new one"},
		{Start: 1, End: 2, Text: "new two"},
		{Start: 2, End: 3, Text: "new three"},
	}))

	got, err := store.GetMedia(ctx, "/lib/show.mp4")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID, "record keeps its id")
	assert.Equal(t, int64(1800000000), got.ModifiedTime)
	assert.Equal(t, "1800000000.75", got.ChangeToken)

	hits, err := store.SearchCues(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = store.SearchCues(ctx, "new")
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestReplaceCues_UnknownRecord(t *testing.T) {
	store := openTestStore(t)
	err := store.ReplaceCues(context.Background(), &MediaRecord{ID: 42}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- Search ---

func TestSearchCues_CaseInsensitiveSubstring(t *testing.T) {
	store := openTestStore(t)
	seedMedia(t, store, "/lib/show.mp4", "Hello World", "nothing here", "say HELLO")

	hits, err := store.SearchCues(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Hello World", hits[0].Cue.Text)
	assert.Equal(t, "say HELLO", hits[1].Cue.Text)
	assert.Equal(t, "/lib/show.mp4", hits[0].Media.Path)
}

func TestSearchCues_OrderedByPathThenStart(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	b := &MediaRecord{Path: "/lib/b.mp4"}
	_, err := store.AddMediaWithCues(ctx, b, []Cue{
		{Start: 10, End: 11, Text: "match late"},
		{Start: 1, End: 2, Text: "match early"},
	})
	require.NoError(t, err)
	seedMedia(t, store, "/lib/a.mp4", "match a")

	hits, err := store.SearchCues(ctx, "match")
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "/lib/a.mp4", hits[0].Media.Path)
	assert.Equal(t, "match early", hits[1].Cue.Text)
	assert.Equal(t, "match late", hits[2].Cue.Text)
}

func TestSearchCues_WildcardsAreLiteral(t *testing.T) {
	store := openTestStore(t)
	seedMedia(t, store, "/lib/show.mp4", "100% sure", "1000 sure", "snake_case", "snakeXcase", `back\slash`)

	ctx := context.Background()
	hits, err := store.SearchCues(ctx, "100%")
	require.NoError(t, err)
	assert.Equal(t, []string{"100% sure"}, hitTexts(hits))

	hits, err = store.SearchCues(ctx, "e_c")
	require.NoError(t, err)
	assert.Equal(t, []string{"snake_case"}, hitTexts(hits))

	hits, err = store.SearchCues(ctx, `k\s`)
	require.NoError(t, err)
	assert.Equal(t, []string{`back\slash`}, hitTexts(hits))
}

func TestSearchCues_NoMatches(t *testing.T) {
	store := openTestStore(t)
	seedMedia(t, store, "/lib/show.mp4", "a", "b")

	hits, err := store.SearchCues(context.Background(), "zzz")
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

// --- Stats / purge ---

func TestGetStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.MediaFiles)
	assert.True(t, stats.LastModified.IsZero())

	seedMedia(t, store, "/lib/a.mp4", "1")
	seedMedia(t, store, "/lib/b.mp4", "1", "2", "3")

	stats, err = store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.MediaFiles)
	assert.Equal(t, int64(4), stats.Cues)
	assert.Equal(t, int64(1700000000), stats.LastModified.Unix())
	assert.Positive(t, stats.DatabaseSizeBytes)
	require.Len(t, stats.TopMedia, 2)
	assert.Equal(t, MediaCount{Path: "/lib/b.mp4", Cues: 3}, stats.TopMedia[0])
}

func TestPurgeAll(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedMedia(t, store, "/lib/a.mp4", "1", "2")

	require.NoError(t, store.PurgeAll(ctx))

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.MediaFiles)
	assert.Zero(t, stats.Cues)

	// Paths can be indexed again after a purge.
	seedMedia(t, store, "/lib/a.mp4", "again")
}

func texts(cues []Cue) []string {
	out := make([]string, len(cues))
	for i, c := range cues {
		out[i] = c.Text
	}
	return out
}

func hitTexts(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Cue.Text
	}
	return out
}
