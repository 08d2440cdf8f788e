package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// CompactionConfig controls when and how a session's transcript is
// summarized.
type CompactionConfig struct {
	// PreserveRecent is the number of most recent messages that are never
	// folded into the summary.
	PreserveRecent int
	// TokenThreshold is a rough token-count estimate above which a session
	// becomes a compaction candidate.
	TokenThreshold int
}

// DefaultCompactionConfig preserves the last 10 messages and triggers once
// a session's estimated token usage passes 4096.
func DefaultCompactionConfig() CompactionConfig {
	return CompactionConfig{PreserveRecent: 10, TokenThreshold: 4096}
}

// SummarizeFunc produces a prose summary of the given messages. Supplied
// by the caller (an LLM call in production, a canned string in tests) so
// this package has no model-provider dependency of its own.
type SummarizeFunc func(ctx context.Context, messages []Message) (string, error)

// estimateTokens is a rough 4-characters-per-token heuristic, matching the
// order of magnitude real tokenizers produce for English prose without
// requiring one as a dependency.
func estimateTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content)/4 + 1
	}
	return total
}

// NeedsCompaction reports whether the named session's estimated token
// usage currently exceeds ctxLimit. cfg is accepted but unused by the
// token estimate itself; it's there so a future cfg-dependent heuristic
// doesn't need a signature change.
func (m *Manager) NeedsCompaction(id string, cfg CompactionConfig, ctxLimit int) (bool, error) {
	s, err := m.GetSession(id)
	if err != nil {
		return false, err
	}
	return estimateTokens(s.Messages) > ctxLimit, nil
}

// CompactionCandidates returns the IDs of all currently-loaded sessions
// whose estimated token usage exceeds ctxLimit, ordered with the longest
// context first and ties broken by session ID, so a caller processing
// candidates in order always tackles the biggest offender first
// regardless of map iteration order.
func (m *Manager) CompactionCandidates(cfg CompactionConfig, ctxLimit int) []string {
	m.mapMu.RLock()
	type candidate struct {
		id     string
		tokens int
	}
	var candidates []candidate
	for id, s := range m.sessions {
		tokens := estimateTokens(s.Messages)
		if tokens > ctxLimit {
			candidates = append(candidates, candidate{id: id, tokens: tokens})
		}
	}
	m.mapMu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].tokens != candidates[j].tokens {
			return candidates[i].tokens > candidates[j].tokens
		}
		return candidates[i].id < candidates[j].id
	})

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
	}
	return ids
}

// CompactSession replaces every message but the most recent
// cfg.PreserveRecent with a single system-authored summary message at
// position 0, leaving the session with exactly 1+PreserveRecent messages
// (or fewer, if there weren't enough to compact).
func (m *Manager) CompactSession(ctx context.Context, id string, cfg CompactionConfig, summarize SummarizeFunc) error {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, err := m.getLocked(id)
	if err != nil {
		return err
	}

	if len(s.Messages) <= cfg.PreserveRecent {
		return nil // nothing to compact
	}

	toSummarize := s.Messages[:len(s.Messages)-cfg.PreserveRecent]
	recent := s.Messages[len(s.Messages)-cfg.PreserveRecent:]
	originalTokens := estimateTokens(s.Messages)

	summary, err := summarize(ctx, toSummarize)
	if err != nil {
		// Summarizer failed: session state is left unchanged.
		return fmt.Errorf("summarizing session %q: %w", id, err)
	}

	compacted := make([]Message, 0, 1+len(recent))
	compacted = append(compacted, NewMessage(RoleSystem, summary))
	compacted = append(compacted, recent...)

	s.Messages = compacted
	s.CompactionCount++
	s.UpdatedAt = nowFunc()
	now := nowFunc()
	s.LastCompactionAt = &now
	if originalTokens > 0 {
		s.LastCompactionRatio = float64(estimateTokens(s.Messages)) / float64(originalTokens)
	}

	return m.persist(s)
}

// BatchCompactionResult records the outcome of compacting one session in
// a batch run.
type BatchCompactionResult struct {
	SessionID string
	Err       error
}

// CompactSessionsBatch compacts each of ids concurrently (bounded by
// sourcegraph/conc's pool, capped to avoid saturating the filesystem with
// concurrent renames) and returns one result per input ID, including
// errors, instead of aborting the whole batch on the first failure.
func (m *Manager) CompactSessionsBatch(ctx context.Context, ids []string, cfg CompactionConfig, summarize SummarizeFunc) []BatchCompactionResult {
	if len(ids) == 0 {
		return nil
	}

	results := make([]BatchCompactionResult, len(ids))
	p := pool.New().WithMaxGoroutines(8)

	for i, id := range ids {
		i, id := i, id
		p.Go(func() {
			err := m.CompactSession(ctx, id, cfg, summarize)
			results[i] = BatchCompactionResult{SessionID: id, Err: err}
		})
	}
	p.Wait()

	return results
}

// CompactionSummary is the result of an auto_compact_sessions sweep:
// which sessions were candidates, which were compacted, and which failed.
type CompactionSummary struct {
	Candidates []string
	Compacted  []string
	Failed     []BatchCompactionResult
}

// AutoCompactSessions finds every session whose estimated context exceeds
// ctxLimit (longest-first, as CompactionCandidates orders them) and
// compacts them concurrently through CompactSessionsBatch, collecting
// per-session outcomes.
func (m *Manager) AutoCompactSessions(ctx context.Context, cfg CompactionConfig, ctxLimit int, summarize SummarizeFunc) CompactionSummary {
	candidates := m.CompactionCandidates(cfg, ctxLimit)
	if len(candidates) == 0 {
		return CompactionSummary{}
	}

	results := m.CompactSessionsBatch(ctx, candidates, cfg, summarize)

	summary := CompactionSummary{Candidates: candidates}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed = append(summary.Failed, r)
			continue
		}
		summary.Compacted = append(summary.Compacted, r.SessionID)
	}
	return summary
}

// CompactionStats aggregates compaction activity across every
// currently-loaded session.
type CompactionStats struct {
	TotalSessions             int
	SessionsWithCompaction    int
	TotalCompactionOperations int
	AverageCompressionRatio   float64
	MostRecentCompaction      *time.Time
}

// GetCompactionStats computes CompactionStats over every session held in
// memory. Sessions never loaded this process (on disk but untouched)
// aren't reflected, matching ListSessions' same in-memory-only scope.
func (m *Manager) GetCompactionStats() CompactionStats {
	m.mapMu.RLock()
	defer m.mapMu.RUnlock()

	stats := CompactionStats{TotalSessions: len(m.sessions)}

	var ratioSum float64
	var ratioCount int
	for _, s := range m.sessions {
		if s.CompactionCount == 0 {
			continue
		}
		stats.SessionsWithCompaction++
		stats.TotalCompactionOperations += s.CompactionCount
		if s.LastCompactionRatio > 0 {
			ratioSum += s.LastCompactionRatio
			ratioCount++
		}
		if s.LastCompactionAt != nil {
			if stats.MostRecentCompaction == nil || s.LastCompactionAt.After(*stats.MostRecentCompaction) {
				t := *s.LastCompactionAt
				stats.MostRecentCompaction = &t
			}
		}
	}
	if ratioCount > 0 {
		stats.AverageCompressionRatio = ratioSum / float64(ratioCount)
	}
	return stats
}
