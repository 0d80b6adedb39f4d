package orion

import "time"

// SetSleep replaces the function used to pause between idle frames.
func (d *SessionDriver) SetSleep(sleep func(time.Duration)) {
	d.sleep = sleep
}
