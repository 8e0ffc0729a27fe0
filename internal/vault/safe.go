package vault

// Read paths tolerate heterogeneous decryption states: after an admin-forced
// password reset some records may still carry ciphertext under the old key.
// The Safe* wrappers apply one uniform fallback so a single undecryptable
// record never blocks retrieval of the rest.

// SafeDecryptNote returns the decrypted note, or a marker note carrying only
// identifiers and DecryptionError=true when authentication fails.
func SafeDecryptNote(row *NoteRow, key []byte) *Note {
	n, err := DecryptNote(row, key)
	if err != nil {
		return &Note{ID: row.ID, DecryptionError: true}
	}
	return n
}

// SafeDecryptBookmark is the bookmark counterpart of SafeDecryptNote.
// The folder link survives so the UI can keep the record in place.
func SafeDecryptBookmark(row *BookmarkRow, key []byte) *Bookmark {
	b, err := DecryptBookmark(row, key)
	if err != nil {
		return &Bookmark{ID: row.ID, FolderID: row.FolderID, DecryptionError: true}
	}
	return b
}

// SafeDecryptFolder is the folder counterpart. The name is replaced with a
// placeholder so tree rendering stays possible.
func SafeDecryptFolder(row *FolderRow, key []byte) *Folder {
	f, err := DecryptFolder(row, key)
	if err != nil {
		return &Folder{ID: row.ID, ParentID: row.ParentID, Name: "[encrypted]", DecryptionError: true}
	}
	return f
}
