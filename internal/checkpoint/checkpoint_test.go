package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azizmrsh/shamela-go/pkg/book"
)

func sampleDoc(pages int) *book.Document {
	doc := &book.Document{
		Title:             "كتاب الاختبار",
		BookID:            "43",
		PageCountInternal: pages,
		VolumeCount:       1,
		Volumes:           []book.Volume{{Number: 1, Title: "المجلد 1", PageStart: 1, PageEnd: pages}},
		Language:          "ar",
	}
	for i := 1; i <= pages; i++ {
		doc.Pages = append(doc.Pages, book.Page{
			InternalIndex: i,
			PageNumber:    i,
			Content:       fmt.Sprintf("محتوى الصفحة %d", i),
			WordCount:     3,
		})
	}
	return doc
}

func TestSaveLoadCleanup(t *testing.T) {
	store, err := NewStore(t.TempDir(), 5)
	require.NoError(t, err)

	doc := sampleDoc(3)
	snap := &Snapshot{
		Skeleton:      doc.Skeleton(),
		Pages:         doc.Pages,
		LoadedIndices: []int{1, 2, 3},
		FailedIndices: []int{7},
	}
	require.NoError(t, store.Save("43", snap))

	got, ok := store.Load("43")
	require.True(t, ok)
	assert.Equal(t, "كتاب الاختبار", got.Skeleton.Title)
	assert.Len(t, got.Pages, 3)
	assert.Equal(t, []int{1, 2, 3}, got.LoadedIndices)
	assert.Equal(t, []int{7}, got.FailedIndices)
	assert.False(t, got.Timestamp.IsZero())

	store.Cleanup("43")
	_, ok = store.Load("43")
	assert.False(t, ok)
}

func TestLoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir(), 5)
	require.NoError(t, err)
	_, ok := store.Load("999")
	assert.False(t, ok)
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 5)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkpoint_43.json"), []byte("{broken"), 0o644))
	_, ok := store.Load("43")
	assert.False(t, ok, "corrupt checkpoint should read as absent")
}

func TestBackupRotation(t *testing.T) {
	store, err := NewStore(t.TempDir(), 3)
	require.NoError(t, err)

	doc := sampleDoc(2)
	for i := 0; i < 5; i++ {
		_, err := store.CreateBackup(doc)
		require.NoError(t, err)
		// Distinct mtimes keep rotation order deterministic.
		time.Sleep(10 * time.Millisecond)
	}

	paths := store.backupPaths("43")
	assert.LessOrEqual(t, len(paths), 3, "rotation should cap retained backups")
}

func TestBackupRestoreNewest(t *testing.T) {
	store, err := NewStore(t.TempDir(), 5)
	require.NoError(t, err)

	older := sampleDoc(1)
	_, err = store.CreateBackup(older)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	newer := sampleDoc(2)
	_, err = store.CreateBackup(newer)
	require.NoError(t, err)

	got, ok := store.RestoreBackup("43")
	require.True(t, ok)
	assert.Len(t, got.Pages, 2, "restore should pick the newest backup")

	store.CleanupBackups("43")
	_, ok = store.RestoreBackup("43")
	assert.False(t, ok)
}

func TestAtomicWriteLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 5)
	require.NoError(t, err)
	require.NoError(t, store.Save("43", &Snapshot{Skeleton: sampleDoc(1).Skeleton()}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "temp file should not survive a save")
	}
}
