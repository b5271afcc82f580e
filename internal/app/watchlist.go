package app

import (
	"strings"

	"github.com/newthinker/quorum/internal/config"
)

// SetWatchlist replaces the watchlist. Duplicate symbols keep the first entry.
func (s *Service) SetWatchlist(items []config.WatchlistItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchlistItems = make([]config.WatchlistItem, 0, len(items))
	s.watchlistSet = make(map[string]struct{}, len(items))
	for _, item := range items {
		s.addLocked(item)
	}
	s.deps.Metrics.SetWatchlistSize(len(s.watchlistItems))
}

// GetWatchlist returns the current watchlist symbols.
func (s *Service) GetWatchlist() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]string, len(s.watchlistItems))
	for i, item := range s.watchlistItems {
		result[i] = item.Symbol
	}
	return result
}

// GetWatchlistItems returns a copy of the full watchlist entries.
func (s *Service) GetWatchlistItems() []config.WatchlistItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]config.WatchlistItem, len(s.watchlistItems))
	copy(result, s.watchlistItems)
	return result
}

// AddToWatchlist adds an entry. It reports false when the symbol is already present.
func (s *Service) AddToWatchlist(item config.WatchlistItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := s.addLocked(item)
	s.deps.Metrics.SetWatchlistSize(len(s.watchlistItems))
	return added
}

func (s *Service) addLocked(item config.WatchlistItem) bool {
	item.Symbol = strings.ToUpper(strings.TrimSpace(item.Symbol))
	if item.Symbol == "" {
		return false
	}
	if _, exists := s.watchlistSet[item.Symbol]; exists {
		return false
	}
	if item.Name == "" {
		item.Name = item.Symbol
	}
	s.watchlistSet[item.Symbol] = struct{}{}
	s.watchlistItems = append(s.watchlistItems, item)
	return true
}

// RemoveFromWatchlist removes a symbol from the watchlist.
func (s *Service) RemoveFromWatchlist(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.watchlistSet[symbol]; !exists {
		return false
	}
	delete(s.watchlistSet, symbol)
	for i, item := range s.watchlistItems {
		if item.Symbol == symbol {
			s.watchlistItems = append(s.watchlistItems[:i], s.watchlistItems[i+1:]...)
			break
		}
	}
	s.deps.Metrics.SetWatchlistSize(len(s.watchlistItems))
	return true
}
