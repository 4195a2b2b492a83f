package ttsnap

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/signalnine/mcts/stats"
)

func intCodec() Codec[int] {
	return Codec[int]{
		Encode: func(g int) []byte {
			b := make([]byte, 8)
			binary.BigEndian.PutUint64(b, uint64(g))
			return b
		},
		Decode: func(b []byte) (int, error) {
			if len(b) != 8 {
				return 0, errors.New("ttsnap: bad key length")
			}
			return int(binary.BigEndian.Uint64(b)), nil
		},
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.bin")
	codec := intCodec()

	want := map[int]stats.Stats{
		1: {Wins: 3, Losses: 1, Visits: 4},
		2: {Wins: 0, Losses: 0, Visits: 0},
		3: {Wins: 100, Losses: 50, Visits: 150},
	}

	if err := Save(path, want, codec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path, codec)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Load returned %d records, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("got[%d] = %+v, want %+v", k, got[k], v)
		}
	}
}

func TestSaveLeavesNoTempFileBehind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.bin")
	codec := intCodec()
	if err := Save(path, map[int]stats.Stats{1: {Visits: 1}}, codec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	matches, err := filepath.Glob(path + "*")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) != 1 || matches[0] != path {
		t.Errorf("directory contents after Save: %v, want only %q", matches, path)
	}
}

func TestLoadRejectsAFileWithoutTheMagicHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-snapshot.bin")
	if err := os.WriteFile(path, []byte("not a snapshot, just text"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Load(path, intCodec()); err == nil {
		t.Error("Load should reject a file without the magic header")
	}
}

func TestLoadRejectsAMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.bin"), intCodec()); err == nil {
		t.Error("Load should fail on a nonexistent file")
	}
}
