// Package scheduler runs the daily birthday reminder on a cron schedule.
//
// Schedules use the standard five-field cron syntax evaluated in the
// configured zone (default "0 9 * * *" in America/Chicago). Only one run is
// in flight at a time; a tick that fires while the previous run is still
// going is skipped.
package scheduler
