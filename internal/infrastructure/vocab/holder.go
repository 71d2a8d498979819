package vocab

import (
	"context"
	"sync/atomic"

	"github.com/abelyaev/cv-match/internal/core/domain"
	"github.com/abelyaev/cv-match/internal/core/ports"
)

// Holder owns the in-memory vocabulary and swaps it wholesale on reload.
// Current never blocks and never returns a partial snapshot.
type Holder struct {
	source  ports.VocabularySource
	current atomic.Pointer[domain.Vocabulary]
}

func NewHolder(source ports.VocabularySource) *Holder {
	return &Holder{source: source}
}

// Load reads the snapshot and installs it. Used once at startup.
func (h *Holder) Load(ctx context.Context) error {
	vocab, err := h.source.Load(ctx)
	if err != nil {
		return err
	}
	h.current.Store(&vocab)
	return nil
}

// Reload re-reads the snapshot. On failure the previous vocabulary stays
// installed.
func (h *Holder) Reload(ctx context.Context) error {
	return h.Load(ctx)
}

// SetEmpty installs an empty vocabulary, for degraded startup without a
// snapshot file.
func (h *Holder) SetEmpty() {
	h.current.Store(&domain.Vocabulary{})
}

func (h *Holder) Current() domain.Vocabulary {
	if v := h.current.Load(); v != nil {
		return *v
	}
	return domain.Vocabulary{}
}
