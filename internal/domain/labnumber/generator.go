package labnumber

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/medlab/medlab/internal/platform/sequence"
)

const (
	prefix         = "LAB-"
	sequencePrefix = "labnumber:"
)

// Generator proposes a candidate lab number. Uniqueness is enforced when the
// candidate is stored, not here.
type Generator interface {
	Generate(ctx context.Context, req IssueRequest) (string, error)
}

// TimestampGenerator yields LAB-<unix millis>-<4 random digits>.
type TimestampGenerator struct {
	now    func() time.Time
	random func(n int) int
}

func NewTimestampGenerator() *TimestampGenerator {
	return &TimestampGenerator{now: time.Now, random: rand.Intn}
}

func (g *TimestampGenerator) Generate(_ context.Context, _ IssueRequest) (string, error) {
	return fmt.Sprintf("%s%d-%04d", prefix, g.now().UnixMilli(), g.random(10000)), nil
}

// PassportGenerator yields LAB-<passport>-<NNN> from a per-passport counter.
// Requests without a passport number fall back to the timestamp form.
type PassportGenerator struct {
	seq      sequence.Sequencer
	fallback Generator
}

func NewPassportGenerator(seq sequence.Sequencer) *PassportGenerator {
	return &PassportGenerator{seq: seq, fallback: NewTimestampGenerator()}
}

func (g *PassportGenerator) Generate(ctx context.Context, req IssueRequest) (string, error) {
	passport := normalizePassport(req.PassportNumber)
	if passport == "" {
		return g.fallback.Generate(ctx, req)
	}
	n, err := g.seq.Next(ctx, sequencePrefix+passport)
	if err != nil {
		return "", fmt.Errorf("next lab number for %s: %w", passport, err)
	}
	return fmt.Sprintf("%s%s-%03d", prefix, passport, n), nil
}

func normalizePassport(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}
