package editor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"strconv"
	"time"

	"palletvox.app/internal/persistence/store"
)

// Saver persists a palette. *store.Store satisfies it.
type Saver interface {
	UpdatePalette(ctx context.Context, p store.Palette) (store.Palette, error)
}

// AutoSaver writes the palette only when its content digest moved since the
// last save. The digest covers occupancy, extra count and name.
type AutoSaver struct {
	saver   Saver
	timeout time.Duration
	log     *log.Logger

	last  string
	saves int
}

func NewAutoSaver(saver Saver, timeout time.Duration, logger *log.Logger) *AutoSaver {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &AutoSaver{saver: saver, timeout: timeout, log: logger}
}

func Digest(p store.Palette) string {
	h := sha256.New()
	h.Write([]byte(p.Cubes.Digest()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(p.ExtraCartons)))
	h.Write([]byte{0})
	h.Write([]byte(p.Name))
	return hex.EncodeToString(h.Sum(nil))
}

// Prime records p as already persisted, e.g. right after loading it.
func (a *AutoSaver) Prime(p store.Palette) { a.last = Digest(p) }

// Saves counts calls made to the saver, failed or not.
func (a *AutoSaver) Saves() int { return a.saves }

// MaybeSave saves p if it changed. The digest is recorded before the call, so
// a failed save is logged and not retried until the next change.
func (a *AutoSaver) MaybeSave(ctx context.Context, p store.Palette) (saved bool, err error) {
	d := Digest(p)
	if d == a.last {
		return false, nil
	}
	a.last = d
	a.saves++

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if _, err := a.saver.UpdatePalette(ctx, p); err != nil {
		a.log.Printf("autosave %s: %v", p.ID, err)
		return false, err
	}
	return true, nil
}
