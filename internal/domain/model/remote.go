package model

// RemoteRepo is the minimal projection of a repository returned by the
// remote host's listing endpoint: just enough for scope validation and
// link display.
type RemoteRepo struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// ContentKind tags a RepoContent value.
type ContentKind string

const (
	// ContentDir means the fetched path is a directory.
	ContentDir ContentKind = "dir"
	// ContentFile means the fetched path is a file.
	ContentFile ContentKind = "file"
)

// ContentEntry is one entry of a directory listing.
type ContentEntry struct {
	Name string      `json:"name"`
	Path string      `json:"path"`
	Kind ContentKind `json:"type"`
}

// RepoContent is the result of a contents fetch: either a directory listing
// or decoded file text. The variant is decided once at the gateway boundary
// so callers never sniff response shapes.
type RepoContent struct {
	Kind    ContentKind
	Entries []ContentEntry // populated when Kind == ContentDir
	Text    string         // populated when Kind == ContentFile
}
