package storage

import "strings"

// GetPathAlongOpenedFolders returns the path to the current folder. With
// includeBucket the bucket name is prepended, and returned alone when no
// folder is open.
func GetPathAlongOpenedFolders(openedFolders []Item, bucketName string, includeBucket bool) string {
	folders := joinNames(openedFolders)
	if !includeBucket {
		return folders
	}
	if len(openedFolders) == 0 {
		return bucketName
	}
	return bucketName + "/" + folders
}

// GetPathAlongFoldersToIndex joins the opened folders before index. Index 0
// yields "" and an index past the end joins every folder. A negative index
// counts back from the end.
func GetPathAlongFoldersToIndex(openedFolders []Item, index int) string {
	if index < 0 {
		index += len(openedFolders)
		if index < 0 {
			index = 0
		}
	}
	if index > len(openedFolders) {
		index = len(openedFolders)
	}
	return joinNames(openedFolders[:index])
}

func joinNames(items []Item) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return strings.Join(names, "/")
}
