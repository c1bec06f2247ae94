package flat

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
)

// Artifact file names inside the storage directory.
const (
	IndexFile  = "index.bin"
	ChunksFile = "chunks.json"
)

const formatVersion = 1

var magic = [4]byte{'D', 'P', 'I', 'X'}

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// header is the fixed-size prefix of index.bin.
type header struct {
	Magic      [4]byte
	Version    uint32
	Generation [16]byte
	Count      uint32
	Dimension  uint32
}

// chunkFile is the JSON layout of chunks.json.
type chunkFile struct {
	Generation string         `json:"generation"`
	Provider   string         `json:"provider,omitempty"`
	Dimension  int            `json:"dimension"`
	Chunks     []domain.Chunk `json:"chunks"`
}

// Store reads and writes index artifacts in a directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// IndexPath returns the path of index.bin.
func (s *Store) IndexPath() string {
	return filepath.Join(s.dir, IndexFile)
}

// ChunksPath returns the path of chunks.json.
func (s *Store) ChunksPath() string {
	return filepath.Join(s.dir, ChunksFile)
}

// Save writes both artifacts under a fresh generation.
func (s *Store) Save(snap driven.IndexSnapshot) error {
	if len(snap.Vectors) != len(snap.Chunks) {
		return fmt.Errorf("%w: %d vectors for %d chunks", domain.ErrIndexCorrupt, len(snap.Vectors), len(snap.Chunks))
	}
	dim := 0
	if len(snap.Vectors) > 0 {
		dim = len(snap.Vectors[0])
	}
	for i, v := range snap.Vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", domain.ErrInvalidInput, i, len(v), dim)
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating vector store directory: %w", err)
	}

	gen := uuid.New()

	chunks := snap.Chunks
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	cf := chunkFile{
		Generation: gen.String(),
		Provider:   snap.Provider,
		Dimension:  dim,
		Chunks:     chunks,
	}
	if err := writeFileAtomic(s.ChunksPath(), func(w io.Writer) error {
		return json.NewEncoder(w).Encode(cf)
	}); err != nil {
		return fmt.Errorf("writing chunks: %w", err)
	}

	h := header{
		Magic:      magic,
		Version:    formatVersion,
		Generation: gen,
		Count:      uint32(len(snap.Vectors)),
		Dimension:  uint32(dim),
	}
	if err := writeFileAtomic(s.IndexPath(), func(w io.Writer) error {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			return err
		}
		for _, v := range snap.Vectors {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}

	return nil
}

// Load reads both artifacts and checks that they belong together.
func (s *Store) Load() (*driven.IndexSnapshot, error) {
	if !exists(s.IndexPath()) || !exists(s.ChunksPath()) {
		return nil, fmt.Errorf("%w: expected %s and %s", domain.ErrIndexNotBuilt, s.IndexPath(), s.ChunksPath())
	}

	h, vectors, err := s.readIndex()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.ChunksPath())
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	var cf chunkFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: decoding chunks: %v", domain.ErrIndexCorrupt, err)
	}

	gen := uuid.UUID(h.Generation).String()
	switch {
	case cf.Generation != gen:
		return nil, fmt.Errorf("%w: index generation %s, chunks generation %s", domain.ErrIndexCorrupt, gen, cf.Generation)
	case len(cf.Chunks) != len(vectors):
		return nil, fmt.Errorf("%w: %d vectors for %d chunks", domain.ErrIndexCorrupt, len(vectors), len(cf.Chunks))
	case cf.Dimension != int(h.Dimension):
		return nil, fmt.Errorf("%w: index dimension %d, chunks dimension %d", domain.ErrIndexCorrupt, h.Dimension, cf.Dimension)
	}

	return &driven.IndexSnapshot{
		Vectors:  vectors,
		Chunks:   cf.Chunks,
		Provider: cf.Provider,
	}, nil
}

func (s *Store) readIndex() (header, [][]float32, error) {
	var h header

	f, err := os.Open(s.IndexPath())
	if err != nil {
		return h, nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, nil, fmt.Errorf("%w: reading index header: %v", domain.ErrIndexCorrupt, err)
	}
	if h.Magic != magic {
		return h, nil, fmt.Errorf("%w: not an index file", domain.ErrIndexCorrupt)
	}
	if h.Version != formatVersion {
		return h, nil, fmt.Errorf("%w: unsupported index version %d", domain.ErrIndexCorrupt, h.Version)
	}
	if err := checkPayloadSize(f, h); err != nil {
		return h, nil, err
	}

	vectors := make([][]float32, h.Count)
	for i := range vectors {
		v := make([]float32, h.Dimension)
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return h, nil, fmt.Errorf("%w: reading vector %d: %v", domain.ErrIndexCorrupt, i, err)
		}
		vectors[i] = v
	}
	return h, vectors, nil
}

// checkPayloadSize rejects a header whose count and dimension disagree with
// the file size, before any vector is allocated.
func checkPayloadSize(f *os.File, h header) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat index: %w", err)
	}
	if h.Count > 0 && h.Dimension == 0 {
		return fmt.Errorf("%w: %d vectors of dimension 0", domain.ErrIndexCorrupt, h.Count)
	}

	payload := info.Size() - int64(binary.Size(header{}))
	want := uint64(h.Count) * uint64(h.Dimension)
	if payload < 0 || want > uint64(payload)/4 || want*4 != uint64(payload) {
		return fmt.Errorf("%w: header declares %d x %d vectors, file holds %d payload bytes",
			domain.ErrIndexCorrupt, h.Count, h.Dimension, payload)
	}
	return nil
}

// writeFileAtomic writes through a temporary file in the same directory
// and renames it over path.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	w := bufio.NewWriter(tmp)
	if err := write(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
