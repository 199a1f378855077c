// Package power implements the timed low-power halt used by one-shot mode.
//
// Halt suspends the machine with rtcwake and arms the RTC alarm. When the
// alarm fires and the kernel resumes, the process replaces itself with a
// fresh copy of the same executable, so every wake starts from scratch with
// no state carried over, exactly like a cold boot.
package power
