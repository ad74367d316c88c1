// Package bootstrap runs cemint binaries through one lifecycle: start
// components, run configure callbacks and hooks, then either serve until a
// signal (Run) or execute a finite task (RunTask), and shut down in reverse.
package bootstrap
