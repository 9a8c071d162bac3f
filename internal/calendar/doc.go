// Package calendar turns stored event definitions into the occurrences a viewer sees.
//
// It covers four concerns: reconciling an absolute instant against the viewer's local
// clock or the configured server clock, expanding recurrence rules over a rolling
// lookahead window or a fixed month, aggregating the upcoming feed, and bucketing a
// month's occurrences into display days.
//
// Every function is pure. The current time and the viewer's location are always passed
// in, never read from the environment.
package calendar
