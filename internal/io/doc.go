// Package ioutils provides file system, in-memory blob and image utilities.
//
// This package contains functions for:
//   - Atomic file saving into the downloads directory
//   - Filename sanitization for cross-platform compatibility
//   - Object-URL style references to in-memory payloads
//   - Pretty-printing JSON payloads
//   - Rendering images as terminal previews
//
// # File Operations
//
//	// Save data atomically (temp file + rename)
//	path, err := ioutils.SaveFile(ctx, "/home/me/Downloads", "data.json", data)
//
// # Blobs
//
// BlobStore hands out "blob:" references for payloads kept in memory, the way
// a browser hands out object URLs. References must be revoked when no longer
// displayed:
//
//	store := ioutils.NewBlobStore()
//	ref := store.Create(png, "image/png")
//	defer store.Revoke(ref)
//
// # Image Processing
//
// The ImageService scales images down and renders them with half-block
// characters:
//
//	svc := ioutils.NewImageService()
//	preview, _ := svc.Preview(ctx, pngData, 80, 40)
//	fmt.Println(preview)
package ioutils
