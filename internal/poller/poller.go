// Package poller runs one background notification loop per linked chat.
package poller

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"ytgram/internal/feed"
	"ytgram/internal/session"
	"ytgram/internal/youtrack"
)

// FetchFunc returns the currently-available feed records for a chat.
type FetchFunc func(chatID int64) ([]youtrack.RawFeedRecord, error)

// SendFunc delivers one formatted notification message to a chat.
type SendFunc func(chatID int64, text string) error

// Manager owns the per-chat polling tasks. Starting a chat spawns a
// goroutine; stopping cancels it cooperatively at the next tick boundary.
// An in-flight fetch is never interrupted.
type Manager struct {
	interval time.Duration
	sessions *session.Registry
	fetch    FetchFunc
	send     SendFunc
	now      func() time.Time

	mu      sync.Mutex
	cancels map[int64]context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager wires a poller manager. fetch and send are injected so the
// manager stays free of transport details.
func NewManager(interval time.Duration, sessions *session.Registry, fetch FetchFunc, send SendFunc) *Manager {
	return &Manager{
		interval: interval,
		sessions: sessions,
		fetch:    fetch,
		send:     send,
		now:      time.Now,
		cancels:  make(map[int64]context.CancelFunc),
	}
}

// Start launches the polling loop for a chat. Starting an already-polling
// chat is a no-op. The loop also ends when ctx is canceled.
func (m *Manager) Start(ctx context.Context, chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, running := m.cancels[chatID]; running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancels[chatID] = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.remove(chatID)
		m.run(loopCtx, chatID)
	}()
	log.Info().Int64("chat", chatID).Msg("Started notification polling")
}

// Stop cancels a chat's polling loop. The loop notices at its next tick
// boundary; this call does not wait for it.
func (m *Manager) Stop(chatID int64) {
	m.mu.Lock()
	cancel, ok := m.cancels[chatID]
	m.mu.Unlock()
	if ok {
		cancel()
		log.Info().Int64("chat", chatID).Msg("Stopping notification polling")
	}
}

// Wait blocks until every polling loop has returned. Call after the parent
// context is canceled during shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) remove(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.cancels[chatID]; ok {
		cancel()
		delete(m.cancels, chatID)
	}
}

// run is the per-chat loop. The watermark starts at "now": events from
// before the loop started (including anything missed while the process was
// down) are deliberately not replayed.
func (m *Manager) run(ctx context.Context, chatID int64) {
	watermark := m.now().UnixMilli()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if !m.stillConfigured(chatID) {
			log.Debug().Int64("chat", chatID).Msg("Chat no longer configured, poller exiting")
			return
		}

		watermark = m.tick(chatID, watermark)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// stillConfigured is the top-of-tick check, taken under the chat's session
// lock so it cannot race a concurrent /reset.
func (m *Manager) stillConfigured(chatID int64) bool {
	configured := false
	m.sessions.With(chatID, func(s *session.Session) {
		configured = s.Configured()
	})
	return configured
}

// tick fetches, decodes, classifies and delivers one batch, returning the
// advanced watermark. Errors never escape: a failed fetch means "no
// notifications this tick" and a failed send resumes the batch next tick.
func (m *Manager) tick(chatID int64, since int64) int64 {
	records, err := m.fetch(chatID)
	if err != nil {
		log.Warn().Err(err).Int64("chat", chatID).Msg("Feed fetch failed, skipping tick")
		return since
	}

	var notifications []feed.Notification
	for _, record := range records {
		event, err := feed.Decode(record, since)
		if err != nil {
			var decodeErr *feed.DecodeError
			if errors.As(err, &decodeErr) {
				log.Warn().Err(err).Int64("chat", chatID).Str("record", decodeErr.RecordID).Msg("Skipping malformed feed record")
			} else {
				log.Warn().Err(err).Int64("chat", chatID).Msg("Skipping undecodable feed record")
			}
			continue
		}
		if event == nil {
			continue // beneath the watermark
		}
		notifications = append(notifications, feed.Classify(event))
	}

	// The feed is not guaranteed pre-sorted.
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].Timestamp < notifications[j].Timestamp
	})

	for _, n := range notifications {
		if err := m.send(chatID, feed.Format(n)); err != nil {
			log.Warn().Err(err).Int64("chat", chatID).Str("issue", n.IssueID).Msg("Notification delivery failed, will resume after last success")
			return since
		}
		// Advance past each delivery so a partially-delivered batch
		// resumes after the last success, not from the batch start.
		since = n.Timestamp + 1
	}

	return since
}
