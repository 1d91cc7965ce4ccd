package model

// Path represents a file system path.
type Path string

// File is a source file read for instrumentation.
type File struct {
	Path    Path
	Content []byte
	// Hash is the SHA-256 fingerprint of Content.
	Hash string
}

// SourceMap is a parsed `.js.map` document kept as raw JSON.
type SourceMap []byte

// Manifest is the subset of package.json / bower.json fields covhook reads.
type Manifest struct {
	Name   string
	Module string
	Main   string
}
