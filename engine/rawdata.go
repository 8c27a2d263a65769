package engine

import (
	"encoding/gob"
	"fmt"
	"os"
)

// RawDump is the §6 raw-data file's payload: the depth-ordered Finding
// list, sufficient on its own to reconstruct every page (each Finding
// carries its own sourceFile, parentCallPath and stepIndex). The format is
// otherwise unspecified by the spec beyond round-tripping through -d/-l;
// gob is used rather than JSON or a protobuf because nothing else in this
// repo needs the findings to be human-readable or to cross a network
// boundary, and the teacher repo itself reaches for stdlib encoding
// (encoding/json, for its notification dump) whenever a format choice has
// no other constraint driving it.
type RawDump struct {
	Findings []Finding
}

// SaveRaw persists store's Findings to path (the "-d" CLI path of §6).
func SaveRaw(path string, store *ReportStore) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating raw data file: %w", err)
	}
	defer f.Close()

	dump := RawDump{Findings: store.Sorted()}
	if err := gob.NewEncoder(f).Encode(&dump); err != nil {
		return fmt.Errorf("encoding raw data file: %w", err)
	}
	return nil
}

// LoadRaw reconstructs a ReportStore from a previously saved raw-data file
// (the "-l" CLI path of §6), without touching a debugger.
func LoadRaw(path string) (*ReportStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening raw data file: %w", err)
	}
	defer f.Close()

	var dump RawDump
	if err := gob.NewDecoder(f).Decode(&dump); err != nil {
		return nil, fmt.Errorf("decoding raw data file: %w", err)
	}

	store := NewReportStore()
	for _, f := range dump.Findings {
		// gob does not transmit empty slices, so the root path comes back
		// nil; restore it to the empty CallPath the search records.
		if f.ParentCallPath == nil {
			f.ParentCallPath = CallPath{}
		}
		store.Add(f)
	}
	return store, nil
}
