package snapshot

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"palletvox.app/internal/encoding"
	"palletvox.app/internal/grid"
)

const Version = 1

type Header struct {
	Version    int    `json:"version"`
	PaletteID  string `json:"palette_id"`
	ExportedAt int64  `json:"exported_at_ms"`
}

// PaletteV1 is the portable form of one palette. Occupancy is RLE encoded
// (see encoding.EncodeOccupancy).
type PaletteV1 struct {
	Header Header `json:"header"`

	Name         string          `json:"name"`
	Dimensions   grid.Dimensions `json:"dimensions"`
	Occupancy    string          `json:"occupancy"`
	Present      int             `json:"present"`
	GroupID      string          `json:"group_id,omitempty"`
	ExtraCartons int             `json:"extra_cartons,omitempty"`
	CreatedAt    int64           `json:"created_at_ms"`
	UpdatedAt    int64           `json:"updated_at_ms"`
}

//go:embed palette_v1.schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("palette_v1.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

// FromOccupancy fills the occupancy fields of s from occ.
func (s *PaletteV1) FromOccupancy(occ grid.Occupancy) {
	s.Occupancy = encoding.EncodeOccupancy(s.Dimensions, occ)
	s.Present = 0
	for c := range occ {
		if s.Dimensions.InBounds(c) {
			s.Present++
		}
	}
}

// Cubes decodes the occupancy and checks it against the recorded count.
func (s PaletteV1) Cubes() (grid.Occupancy, error) {
	occ, err := encoding.DecodeOccupancy(s.Dimensions, s.Occupancy)
	if err != nil {
		return nil, fmt.Errorf("occupancy: %w", err)
	}
	if occ.Len() != s.Present {
		return nil, fmt.Errorf("occupancy has %d cubes, header says %d", occ.Len(), s.Present)
	}
	return occ, nil
}

func WriteSnapshot(path string, snap PaletteV1) error {
	if snap.Header.Version == 0 {
		snap.Header.Version = Version
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(enc)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := json.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

func ReadSnapshot(path string) (PaletteV1, error) {
	var snap PaletteV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("header: %w", err)
	}
	var hdr Header
	if err := json.Unmarshal(line, &hdr); err != nil {
		return snap, fmt.Errorf("header: %w", err)
	}
	if hdr.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", hdr.Version)
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return snap, err
	}
	if err := validateBody(body); err != nil {
		return snap, err
	}
	if err := json.Unmarshal(body, &snap); err != nil {
		return snap, fmt.Errorf("json decode: %w", err)
	}
	if snap.Header != hdr {
		return snap, fmt.Errorf("header line does not match body header")
	}
	return snap, nil
}

func validateBody(body []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("invalid snapshot: %s", strings.TrimSpace(err.Error()))
	}
	return nil
}
