// Package filevault implements a user-owned virtual file hierarchy with
// blob-backed content and asynchronously derived image thumbnails.
//
// The package defines the domain types (ID, User, FileEntry, Job), the
// capability interfaces over the backing stores (Repository, BlobStore,
// KeyValue, Queue) and the Service that ties them together: account
// registration, token sessions, the upload pipeline and the gated read
// paths. Concrete backends live in the repo/, storage/, kv/ and queue/
// subpackages; the thumbnail worker lives in thumbnail/.
//
// Construct a Service with functional options:
//
//	svc, err := filevault.New(
//	    filevault.WithRepository(memoryrepo.New()),
//	    filevault.WithBlobStore(store),
//	    filevault.WithSessions(filevault.NewSessionStore(kv, 0)),
//	    filevault.WithQueue(q),
//	)
package filevault
