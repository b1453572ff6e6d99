// Package storage holds the pure naming and listing rules of the storage
// explorer: path composition, folder-name validation, duplicate handling and
// the formatting of raw object listings into explorer items.
package storage

import (
	"strings"
	"time"
)

// ItemStatus is the explorer row status.
type ItemStatus string

const (
	StatusReady   ItemStatus = "READY"
	StatusEditing ItemStatus = "EDITING"
	StatusLoading ItemStatus = "LOADING"
)

// ItemType tags an explorer row as a file or a folder.
type ItemType string

const (
	TypeFile   ItemType = "FILE"
	TypeFolder ItemType = "FOLDER"
)

const (
	// EmptyFolderPlaceholder is the object written to keep an otherwise empty
	// folder alive. It is never shown in listings.
	EmptyFolderPlaceholder = ".emptyFolderPlaceholder"

	// CorruptedThreshold is how long a file may stay without metadata before it
	// is considered a failed upload.
	CorruptedThreshold = 15 * time.Minute
)

// Object is a raw storage object as returned by a listing. Folders have no ID.
type Object struct {
	ID             string                 `json:"id,omitempty"`
	Name           string                 `json:"name"`
	CreatedAt      *time.Time             `json:"created_at"`
	UpdatedAt      *time.Time             `json:"updated_at"`
	LastAccessedAt *time.Time             `json:"last_accessed_at"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// Item is one row of an explorer column.
type Item struct {
	Object
	Type        ItemType   `json:"type"`
	Status      ItemStatus `json:"status"`
	IsCorrupted bool       `json:"isCorrupted"`
	Path        string     `json:"path,omitempty"`
}

// Column is one breadcrumb level of the explorer.
type Column struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// FormatFolderItems turns a raw listing into explorer items. Placeholder
// objects are dropped. A file without metadata is LOADING while it is younger
// than CorruptedThreshold and flagged corrupted once it is at least that old.
func FormatFolderItems(objects []Object, prefix string, now time.Time) []Item {
	items := make([]Item, 0, len(objects))
	for _, obj := range objects {
		if obj.Name == EmptyFolderPlaceholder {
			continue
		}

		itemType := TypeFolder
		if obj.ID != "" {
			itemType = TypeFile
		}

		var age time.Duration
		if obj.CreatedAt != nil {
			age = now.Sub(*obj.CreatedAt)
		} else {
			age = now.Sub(time.UnixMilli(0))
		}
		pending := itemType == TypeFile && obj.Metadata == nil

		status := StatusReady
		if pending && age <= CorruptedThreshold {
			status = StatusLoading
		}

		path := obj.Name
		if prefix != "" {
			path = prefix + "/" + obj.Name
		}

		items = append(items, Item{
			Object:      obj,
			Type:        itemType,
			Status:      status,
			IsCorrupted: pending && age >= CorruptedThreshold,
			Path:        path,
		})
	}
	return items
}

// PathToItem returns the path of an item shown in the column at columnIndex,
// relative to the bucket root.
func PathToItem(openedFolders []Item, columnIndex int, name string) string {
	folders := GetPathAlongFoldersToIndex(openedFolders, columnIndex)
	if folders == "" {
		return name
	}
	return folders + "/" + name
}

// FoldersFromPath turns a slash separated path into opened folder items.
// Empty segments are skipped.
func FoldersFromPath(path string) []Item {
	var folders []Item
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		folders = append(folders, Item{
			Object: Object{Name: segment},
			Type:   TypeFolder,
			Status: StatusReady,
		})
	}
	return folders
}

// Bucket is a storage bucket.
type Bucket struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner,omitempty"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"created_at"`
}
