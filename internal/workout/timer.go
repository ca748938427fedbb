package workout

// StartRestTimer starts the countdown with an explicit duration,
// optionally associated with an exercise. The store performs no internal
// scheduling; an external driver calls TickRestTimer once per second.
func (s *Store) StartRestTimer(seconds int, exerciseRef string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds <= 0 {
		return
	}
	s.timer = RestTimer{IsRunning: true, Seconds: seconds, ExerciseID: exerciseRef}
}

// StopRestTimer stops the countdown early and clears it.
func (s *Store) StopRestTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = RestTimer{}
}

// TickRestTimer advances the countdown by one second. Reaching zero
// auto-stops and clears the associated exercise reference.
func (s *Store) TickRestTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.timer.IsRunning {
		return
	}
	s.timer.Seconds--
	if s.timer.Seconds <= 0 {
		s.timer = RestTimer{}
	}
}

// RestTimerState returns the current rest timer.
func (s *Store) RestTimerState() RestTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer
}
