package filevault

// CanRead is the single authorization decision for all read paths: an
// entry is readable when it is public, or when the requester is its
// owner. Root as requester means "unauthenticated".
//
// Callers map a false result to the same not-found outcome as a missing
// entry, so private resources never leak their existence.
func CanRead(entry *FileEntry, requesterID ID) bool {
	if entry == nil {
		return false
	}
	if entry.Public {
		return true
	}
	return !requesterID.IsRoot() && requesterID == entry.OwnerID
}
