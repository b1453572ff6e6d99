package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func folder(name string) Item {
	return Item{Object: Object{Name: name}, Type: TypeFolder, Status: StatusReady}
}

func file(name string) Item {
	return Item{Object: Object{ID: "file-id", Name: name}, Type: TypeFile, Status: StatusReady}
}

func columnsOf(names ...[]string) []Column {
	columns := make([]Column, len(names))
	for i, col := range names {
		for _, n := range col {
			columns[i].Items = append(columns[i].Items, file(n))
		}
	}
	return columns
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Error(message string) {
	n.messages = append(n.messages, message)
}

func intPtr(i int) *int { return &i }

func TestValidateFolderName(t *testing.T) {
	valid := []string{
		"myfolder", "MyFolder123", "my_folder", "my-folder", "my.folder", "my folder",
		"folder!", "folder'", "folder(1)", "folder*", "folder&name", "folder$name",
		"folder@name", "folder=name", "folder;name", "folder:name", "folder+name",
		"folder,name", "folder?name", "parent/child", "",
	}
	for _, name := range valid {
		msg, invalid := ValidateFolderName(name)
		assert.False(t, invalid, name)
		assert.Empty(t, msg, name)
	}

	invalid := map[string]string{
		"my#folder":  `Folder name cannot contain the "#" character`,
		"my%folder":  `Folder name cannot contain the "%" character`,
		"my^folder":  `Folder name cannot contain the "^" character`,
		"my[folder":  `Folder name cannot contain the "[" character`,
		"café":       `Folder name cannot contain the "é" character`,
		"a\\b{c}":    `Folder name cannot contain the "\" character`,
		"tab\there":  "Folder name cannot contain the \"\t\" character",
	}
	for name, want := range invalid {
		msg, bad := ValidateFolderName(name)
		assert.True(t, bad, name)
		assert.Equal(t, want, msg, name)
	}
}

func TestGetPathAlongOpenedFolders(t *testing.T) {
	assert.Equal(t, "my-bucket", GetPathAlongOpenedFolders(nil, "my-bucket", true))
	assert.Equal(t, "my-bucket/images", GetPathAlongOpenedFolders([]Item{folder("images")}, "my-bucket", true))
	assert.Equal(t, "my-bucket/images/2024/january",
		GetPathAlongOpenedFolders([]Item{folder("images"), folder("2024"), folder("january")}, "my-bucket", true))
	assert.Equal(t, "", GetPathAlongOpenedFolders(nil, "my-bucket", false))
	assert.Equal(t, "images/2024", GetPathAlongOpenedFolders([]Item{folder("images"), folder("2024")}, "my-bucket", false))
}

func TestGetPathAlongFoldersToIndex(t *testing.T) {
	opened := []Item{folder("images"), folder("2024"), folder("january")}

	assert.Equal(t, "", GetPathAlongFoldersToIndex(opened, 0))
	assert.Equal(t, "images", GetPathAlongFoldersToIndex(opened, 1))
	assert.Equal(t, "images/2024", GetPathAlongFoldersToIndex(opened, 2))
	assert.Equal(t, "images/2024/january", GetPathAlongFoldersToIndex(opened, 3))
	assert.Equal(t, "images/2024/january", GetPathAlongFoldersToIndex(opened, 10))
	assert.Equal(t, "images/2024", GetPathAlongFoldersToIndex(opened, -1))
	assert.Equal(t, "", GetPathAlongFoldersToIndex(opened, -5))
	assert.Equal(t, "", GetPathAlongFoldersToIndex(nil, 5))
}

func TestPathToItem(t *testing.T) {
	opened := []Item{folder("images"), folder("2024")}
	assert.Equal(t, "cat.png", PathToItem(opened, 0, "cat.png"))
	assert.Equal(t, "images/2024/cat.png", PathToItem(opened, 2, "cat.png"))
}

func TestFoldersFromPath(t *testing.T) {
	folders := FoldersFromPath("/images//2024/")
	require.Len(t, folders, 2)
	assert.Equal(t, "images", folders[0].Name)
	assert.Equal(t, TypeFolder, folders[1].Type)
	assert.Empty(t, FoldersFromPath(""))
}

func TestSanitizeNameForDuplicateInColumn(t *testing.T) {
	t.Run("no conflict", func(t *testing.T) {
		n := &recordingNotifier{}
		name, ok := SanitizeNameForDuplicateInColumn(columnsOf([]string{"other.txt"}), SanitizeOptions{Name: "file.txt"}, n)
		assert.True(t, ok)
		assert.Equal(t, "file.txt", name)
		assert.Empty(t, n.messages)
	})

	t.Run("case-insensitive conflict", func(t *testing.T) {
		n := &recordingNotifier{}
		_, ok := SanitizeNameForDuplicateInColumn(columnsOf([]string{"FILE.TXT"}), SanitizeOptions{Name: "file.txt"}, n)
		assert.False(t, ok)
		assert.Len(t, n.messages, 1)
	})

	t.Run("items being edited are ignored", func(t *testing.T) {
		columns := columnsOf([]string{"file.txt"})
		columns[0].Items[0].Status = StatusEditing
		name, ok := SanitizeNameForDuplicateInColumn(columns, SanitizeOptions{Name: "file.txt"}, nil)
		assert.True(t, ok)
		assert.Equal(t, "file.txt", name)
	})

	t.Run("column index", func(t *testing.T) {
		columns := columnsOf([]string{"file.txt"}, []string{"other.txt"})

		name, ok := SanitizeNameForDuplicateInColumn(columns, SanitizeOptions{Name: "file.txt"}, nil)
		assert.True(t, ok, "defaults to the last column")
		assert.Equal(t, "file.txt", name)

		n := &recordingNotifier{}
		_, ok = SanitizeNameForDuplicateInColumn(columns, SanitizeOptions{Name: "file.txt", ColumnIndex: intPtr(0)}, n)
		assert.False(t, ok)
		assert.Len(t, n.messages, 1)

		name, ok = SanitizeNameForDuplicateInColumn(columns, SanitizeOptions{Name: "file.txt", ColumnIndex: intPtr(1)}, nil)
		assert.True(t, ok)
		assert.Equal(t, "file.txt", name)

		name, ok = SanitizeNameForDuplicateInColumn(columns, SanitizeOptions{Name: "other.txt", ColumnIndex: intPtr(0)}, nil)
		assert.True(t, ok)
		assert.Equal(t, "other.txt", name)
	})

	t.Run("out of range column has no conflicts", func(t *testing.T) {
		name, ok := SanitizeNameForDuplicateInColumn(nil, SanitizeOptions{Name: "file.txt"}, nil)
		assert.True(t, ok)
		assert.Equal(t, "file.txt", name)

		name, ok = SanitizeNameForDuplicateInColumn(columnsOf([]string{"file.txt"}), SanitizeOptions{Name: "file.txt", ColumnIndex: intPtr(4)}, nil)
		assert.True(t, ok)
		assert.Equal(t, "file.txt", name)
	})

	t.Run("rejection message", func(t *testing.T) {
		n := &recordingNotifier{}
		name, ok := SanitizeNameForDuplicateInColumn(columnsOf([]string{"file.txt"}), SanitizeOptions{Name: "file.txt", Autofix: false}, n)
		assert.False(t, ok)
		assert.Empty(t, name)
		assert.Equal(t, []string{"The name file.txt already exists in the current directory. Please use a different name."}, n.messages)
	})

	t.Run("autofix", func(t *testing.T) {
		cases := []struct {
			column []string
			name   string
			want   string
		}{
			{[]string{"file.txt"}, "file.txt", "file (1).txt"},
			{[]string{"file.txt", "file (1).txt"}, "file.txt", "file (2).txt"},
			{[]string{"file.txt", "file (1).txt", "file (2).txt"}, "file.txt", "file (3).txt"},
			{[]string{"myfile"}, "myfile", " (1).myfile"},
			{[]string{"myfile", " (1).myfile"}, "myfile", " (2).myfile"},
			{[]string{"archive.tar.gz"}, "archive.tar.gz", "archive.tar (1).gz"},
			{[]string{"notes."}, "notes.", "notes (1)"},
			{[]string{"a+b (x).txt"}, "a+b (x).txt", "a+b (x) (1).txt"},
			{[]string{"file.txt", "file (1)xtxt"}, "file.txt", "file (1).txt"},
		}
		for _, tc := range cases {
			n := &recordingNotifier{}
			got, ok := SanitizeNameForDuplicateInColumn(columnsOf(tc.column), SanitizeOptions{Name: tc.name, Autofix: true}, n)
			assert.True(t, ok, tc.name)
			assert.Equal(t, tc.want, got, tc.column)
			assert.Empty(t, n.messages)
		}
	})

	t.Run("notifier func", func(t *testing.T) {
		var got string
		_, ok := SanitizeNameForDuplicateInColumn(columnsOf([]string{"x"}), SanitizeOptions{Name: "X"}, NotifierFunc(func(m string) { got = m }))
		assert.False(t, ok)
		assert.Equal(t, DuplicateNameMessage("X"), got)
	})
}

func TestFormatFolderItems(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	objects := []Object{
		{Name: EmptyFolderPlaceholder, ID: "ph"},
		{Name: "docs"},
		{Name: "ready.png", ID: "1", CreatedAt: at(time.Hour), Metadata: map[string]interface{}{"size": 10}},
		{Name: "uploading.png", ID: "2", CreatedAt: at(time.Minute)},
		{Name: "stuck.png", ID: "3", CreatedAt: at(time.Hour)},
		{Name: "edge.png", ID: "4", CreatedAt: at(CorruptedThreshold)},
		{Name: "empty-meta.png", ID: "5", CreatedAt: at(time.Hour), Metadata: map[string]interface{}{}},
	}

	items := FormatFolderItems(objects, "images", now)
	require.Len(t, items, 6)

	byName := map[string]Item{}
	for _, item := range items {
		byName[item.Name] = item
	}

	assert.Equal(t, TypeFolder, byName["docs"].Type)
	assert.Equal(t, StatusReady, byName["docs"].Status)
	assert.False(t, byName["docs"].IsCorrupted)
	assert.Equal(t, "images/docs", byName["docs"].Path)

	assert.Equal(t, TypeFile, byName["ready.png"].Type)
	assert.Equal(t, StatusReady, byName["ready.png"].Status)
	assert.False(t, byName["ready.png"].IsCorrupted)

	assert.Equal(t, StatusLoading, byName["uploading.png"].Status)
	assert.False(t, byName["uploading.png"].IsCorrupted)

	assert.Equal(t, StatusReady, byName["stuck.png"].Status)
	assert.True(t, byName["stuck.png"].IsCorrupted)

	assert.Equal(t, StatusLoading, byName["edge.png"].Status)
	assert.True(t, byName["edge.png"].IsCorrupted)

	assert.Equal(t, StatusReady, byName["empty-meta.png"].Status)
	assert.False(t, byName["empty-meta.png"].IsCorrupted)

	noPrefix := FormatFolderItems([]Object{{Name: "a"}}, "", now)
	assert.Equal(t, "a", noPrefix[0].Path)
	assert.Empty(t, FormatFolderItems(nil, "", now))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "0s", FormatTime(0))
	assert.Equal(t, "42s", FormatTime(42.7))
	assert.Equal(t, "1m ", FormatTime(60))
	assert.Equal(t, "5m ", FormatTime(5*60+59))
	assert.Equal(t, "3h ", FormatTime(3*3600+120))
	assert.Equal(t, "2d ", FormatTime(2*86400+3600))
}

func TestCalculateTotalRemainingTime(t *testing.T) {
	assert.Equal(t, 0.0, CalculateTotalRemainingTime(nil))
	assert.Equal(t, 0.0, CalculateTotalRemainingTime([]UploadProgress{{RemainingBytes: 0, RemainingTime: 10}}))
	assert.Equal(t, 10.0, CalculateTotalRemainingTime([]UploadProgress{{RemainingBytes: 100, RemainingTime: 10}}))

	// second weight is 100/200
	got := CalculateTotalRemainingTime([]UploadProgress{
		{RemainingBytes: 100, RemainingTime: 10},
		{RemainingBytes: 100, RemainingTime: 20},
	})
	assert.InDelta(t, 20.0, got, 1e-9)
}
