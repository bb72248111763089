package indexer

import (
	"time"

	"github.com/viant/bintly"
)

// FileInfo is the per-file record kept next to the forward-index entries.
type FileInfo struct {
	Path        string
	Size        int64
	Fingerprint uint64
	EntryID     int64
	Words       int
	IndexedAt   time.Time
}

// EncodeBinary encodes the record to a bintly stream
func (f *FileInfo) EncodeBinary(stream *bintly.Writer) error {
	stream.String(f.Path)
	stream.Int64(f.Size)
	stream.Uint64(f.Fingerprint)
	stream.Int64(f.EntryID)
	stream.Int(f.Words)
	stream.Time(f.IndexedAt)
	return nil
}

// DecodeBinary decodes the record from a bintly stream
func (f *FileInfo) DecodeBinary(stream *bintly.Reader) error {
	stream.String(&f.Path)
	stream.Int64(&f.Size)
	stream.Uint64(&f.Fingerprint)
	stream.Int64(&f.EntryID)
	stream.Int(&f.Words)
	stream.Time(&f.IndexedAt)
	return nil
}

// Fingerprint is what the indexer remembers about a file between runs.
type Fingerprint struct {
	Size   int64  `json:"size"`
	Hash   uint64 `json:"hash"`
	InfoID int64  `json:"infoId"`
}
