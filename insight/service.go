/*
service.go - Advisory phrasing service

PURPOSE:
  Bridges the affordability engine to the text generator. Given a verdict
  and its deterministic fallback text, the service either returns a fresh
  cached advisory, or asks the generator to rephrase the numbers into a
  short recommendation using a prompt-in / JSON-out contract:

    {"advice": "one or two sentences"}

  Any failure along the way, including unparseable model output, degrades
  to the deterministic fallback. The service never fails a request.
*/
package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pesoplan/finance-engine/forecast"
	"github.com/pesoplan/finance-engine/ledger"
)

// DefaultGenerateTimeout caps one generator round trip.
const DefaultGenerateTimeout = 10 * time.Second

// Service implements forecast.TextAdvisor.
type Service struct {
	gen     Generator // nil disables generation entirely
	cache   *Cache
	log     *logrus.Logger
	timeout time.Duration
}

func NewService(gen Generator, cache *Cache, log *logrus.Logger) *Service {
	return &Service{
		gen:     gen,
		cache:   cache,
		log:     log,
		timeout: DefaultGenerateTimeout,
	}
}

// Advisory returns advisory text for the verdict. Cached text wins, then a
// generator round trip, then the deterministic fallback.
func (s *Service) Advisory(ctx context.Context, userID ledger.UserID, v *forecast.Verdict, fallback string) string {
	hash := snapshotHash(v)

	if s.cache != nil {
		if text, ok := s.cache.Get(userID, hash); ok {
			return text
		}
	}
	if s.gen == nil {
		return fallback
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.gen.Generate(genCtx, buildPrompt(v))
	if err != nil {
		if s.log != nil {
			s.log.WithField("user", userID).WithError(err).Warn("advisory generation failed, using fallback")
		}
		return fallback
	}

	advice, ok := parseAdvice(raw)
	if !ok {
		if s.log != nil {
			s.log.WithField("user", userID).Warn("unparseable advisory output, using fallback")
		}
		return fallback
	}

	if s.cache != nil {
		s.cache.Put(userID, hash, advice)
	}
	return advice
}

// snapshotHash keys the cache on the numbers the advice was derived from.
// Two evaluations with identical breakdowns get identical advice.
func snapshotHash(v *forecast.Verdict) string {
	b := v.Breakdown
	payload := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d|%t|%s",
		b.CurrentBalance.Value.String(),
		b.ProjectedIncome.Value.String(),
		b.RoutineExpenses.Value.String(),
		b.UpcomingCommitted.Value.String(),
		b.LaterWeighted.Value.String(),
		b.NetBalance.Value.String(),
		b.DaysUntilTarget,
		v.CanAfford,
		v.Confidence,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func buildPrompt(v *forecast.Verdict) string {
	b := v.Breakdown
	verdict := "cannot"
	if v.CanAfford {
		verdict = "can"
	}
	return fmt.Sprintf(`You are a personal finance assistant. A user %s afford a goal.

Numbers (Philippine pesos):
- current balance: %s
- projected income until target: %s
- projected routine spending until target: %s
- upcoming committed expenses: %s
- net balance after commitments: %s
- days until target: %d
- confidence: %s

Write one or two encouraging, concrete sentences of advice.
Respond with JSON only, in exactly this shape:
{"advice": "your advice here"}`,
		verdict,
		b.CurrentBalance, b.ProjectedIncome, b.RoutineExpenses,
		b.UpcomingCommitted, b.NetBalance, b.DaysUntilTarget, v.Confidence)
}

type adviceEnvelope struct {
	Advice string `json:"advice"`
}

// parseAdvice extracts the advice string, tolerating markdown code fences
// around the JSON body.
func parseAdvice(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var env adviceEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return "", false
	}
	advice := strings.TrimSpace(env.Advice)
	if advice == "" {
		return "", false
	}
	return advice, true
}
