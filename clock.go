package admission

import "time"

// Clock supplies the current time to every time-windowed decision in the
// engine. Injected through [Builder.WithClock] so tests can drive windows and
// expiries deterministically; defaults to [time.Now].
type Clock func() time.Time
