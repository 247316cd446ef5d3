// Package storage writes downloaded images to disk.
//
// Files for a search term live in <base>/<term>/ and are named by the last
// path segment of their source URL. A file with the same name is replaced.
// Writes go to a temporary file first and are renamed into place, so a
// failed download never leaves a truncated image behind.
//
// Usage:
//
//	manager, err := storage.NewManager("images", "lighthouse")
//	if err != nil {
//	    return err
//	}
//	path, size, err := manager.Save(body, storage.FilenameFromURL(url))
package storage
