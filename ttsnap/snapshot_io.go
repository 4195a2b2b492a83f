// Package ttsnap persists a ttable snapshot to disk: a length-prefixed
// binary record stream, one record per visited position, so a long
// ponder session can be checkpointed and resumed across process
// restarts.
//
// The transposition table is generic over the game's position type, so
// this package cannot serialize a key itself; callers supply a Codec
// that encodes/decodes their concrete G.
package ttsnap

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/signalnine/mcts/stats"
)

// magic identifies the file format; version allows the record layout to
// change later without silently misreading an old file.
const (
	magic   uint32 = 0x6d637473 // "mcts"
	version uint32 = 1
)

// Codec turns a concrete position type into a byte key and back.
type Codec[G comparable] struct {
	Encode func(G) []byte
	Decode func([]byte) (G, error)
}

// Save writes snap to path, via a temp-file-then-rename so a reader never
// observes a partially written checkpoint, matching the teacher's
// checkpoint-save pattern.
func Save[G comparable](path string, snap map[G]stats.Stats, codec Codec[G]) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ttsnap: create directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("ttsnap: create temp file: %w", err)
	}

	w := bufio.NewWriter(f)
	writeErr := writeSnapshot(w, snap, codec)
	if writeErr == nil {
		writeErr = w.Flush()
	}
	closeErr := f.Close()
	if writeErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("ttsnap: write snapshot: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("ttsnap: close temp file: %w", closeErr)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("ttsnap: finalize snapshot: %w", err)
	}
	return nil
}

func writeSnapshot[G comparable](w io.Writer, snap map[G]stats.Stats, codec Codec[G]) error {
	if err := binary.Write(w, binary.BigEndian, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, version); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint64(len(snap))); err != nil {
		return err
	}
	for g, s := range snap {
		key := codec.Encode(g)
		if err := binary.Write(w, binary.BigEndian, uint32(len(key))); err != nil {
			return err
		}
		if _, err := w.Write(key); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, [3]uint64{s.Wins, s.Losses, s.Visits}); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a snapshot previously written by Save.
func Load[G comparable](path string, codec Codec[G]) (map[G]stats.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ttsnap: open: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var gotMagic, gotVersion uint32
	if err := binary.Read(r, binary.BigEndian, &gotMagic); err != nil {
		return nil, fmt.Errorf("ttsnap: read magic: %w", err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("ttsnap: not a snapshot file")
	}
	if err := binary.Read(r, binary.BigEndian, &gotVersion); err != nil {
		return nil, fmt.Errorf("ttsnap: read version: %w", err)
	}
	if gotVersion != version {
		return nil, fmt.Errorf("ttsnap: unsupported snapshot version %d", gotVersion)
	}

	var n uint64
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("ttsnap: read record count: %w", err)
	}

	snap := make(map[G]stats.Stats, n)
	for i := uint64(0); i < n; i++ {
		var keyLen uint32
		if err := binary.Read(r, binary.BigEndian, &keyLen); err != nil {
			return nil, fmt.Errorf("ttsnap: read key length: %w", err)
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, fmt.Errorf("ttsnap: read key: %w", err)
		}
		g, err := codec.Decode(key)
		if err != nil {
			return nil, fmt.Errorf("ttsnap: decode key: %w", err)
		}

		var triple [3]uint64
		if err := binary.Read(r, binary.BigEndian, &triple); err != nil {
			return nil, fmt.Errorf("ttsnap: read stats: %w", err)
		}
		snap[g] = stats.Stats{Wins: triple[0], Losses: triple[1], Visits: triple[2]}
	}
	return snap, nil
}
