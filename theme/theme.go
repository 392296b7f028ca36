// Package theme manages the persisted dark-mode preference.
package theme

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/user/taskboard-go/observable"
	"github.com/user/taskboard-go/storage"
)

// Service holds the observable theme preference backed by durable storage.
// Dark mode is the default when no preference has been stored.
type Service struct {
	store   *storage.Store
	current *observable.Value[bool]
	logger  *zap.Logger
}

// NewService loads the stored preference (defaulting to dark) and returns the
// theme service.
func NewService(store *storage.Store, logger *zap.Logger) *Service {
	dark := true
	if raw, ok, err := store.Get(storage.KeyDarkMode); err != nil {
		logger.Warn("failed to read theme preference", zap.Error(err))
	} else if ok {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			dark = parsed
		} else {
			logger.Warn("stored theme preference is malformed, using default", zap.String("value", raw))
		}
	}
	return &Service{
		store:   store,
		current: observable.NewValue(dark),
		logger:  logger,
	}
}

// IsDarkMode reports the current preference.
func (s *Service) IsDarkMode() bool {
	return s.current.Get()
}

// Toggle flips the preference, persists it, and publishes the new value.
func (s *Service) Toggle() bool {
	return s.set(!s.current.Get())
}

// SetDarkMode sets the preference explicitly, persists it, and publishes it.
func (s *Service) SetDarkMode(dark bool) {
	s.set(dark)
}

func (s *Service) set(dark bool) bool {
	if err := s.store.Set(storage.KeyDarkMode, strconv.FormatBool(dark)); err != nil {
		s.logger.Warn("failed to persist theme preference", zap.Error(err))
	}
	s.current.Set(dark)
	return dark
}

// Subscribe registers for preference updates; the channel is primed with the
// current value.
func (s *Service) Subscribe() (string, <-chan bool) {
	return s.current.Subscribe(2)
}

// Unsubscribe releases a subscription.
func (s *Service) Unsubscribe(id string) {
	s.current.Unsubscribe(id)
}
