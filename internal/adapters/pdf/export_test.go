package pdf

import "time"

func (l *LogoInliner) SetClock(now func() time.Time) { l.now = now }
