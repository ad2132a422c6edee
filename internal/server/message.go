// Package server builds the canonical message envelope for chat messages and
// system announcements via the Formatter type.
package server

import "time"

// SystemSender is the reserved sender name on system-generated announcements.
const SystemSender = "Admin"

// timeLayout renders the capture time as a locale-style hour:minute:second
// string, e.g. "3:04:05 PM".
const timeLayout = "3:04:05 PM"

// Envelope is the payload of a chat message or system announcement. It is
// built per event and consumed immediately by emission, never stored.
type Envelope struct {
	Name string `json:"name"`
	Text string `json:"text"`
	Time string `json:"time"`
}

// Formatter stamps envelopes with the current time. The clock source is
// injectable so tests can pin or break it.
type Formatter struct {
	now func() time.Time
}

// NewFormatter creates a Formatter using the system clock.
func NewFormatter() *Formatter {
	return &Formatter{now: time.Now}
}

// NewFormatterWithClock creates a Formatter using the given clock source.
func NewFormatterWithClock(now func() time.Time) *Formatter {
	return &Formatter{now: now}
}

// Message builds an envelope with a caller-supplied sender name. When the
// clock is unavailable the envelope is still returned with an empty Time
// alongside a ClockError; callers log the error and deliver anyway.
func (f *Formatter) Message(name, text string) (Envelope, error) {
	stamp, err := f.timestamp()
	return Envelope{Name: name, Text: text, Time: stamp}, err
}

// Announcement builds a system-originated envelope.
func (f *Formatter) Announcement(text string) (Envelope, error) {
	return f.Message(SystemSender, text)
}

func (f *Formatter) timestamp() (string, error) {
	if f.now == nil {
		return "", &ClockError{Reason: "no clock source configured"}
	}

	t := f.now()
	if t.IsZero() {
		return "", &ClockError{Reason: "clock returned zero time"}
	}

	return t.Format(timeLayout), nil
}
