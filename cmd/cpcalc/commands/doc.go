// Package commands defines the cpcalc operator CLI.
//
// Commands
//
//   - calculate   Run a performance calculation from a noon-report CSV and flags, or a request file
//   - validate    Check a request file without calculating
//   - reports     List archived reports of a voyage
//   - show        Print one archived report
//
// calculate builds an interactive session from its flags, so every value is
// validated as it is entered, exactly as the service validates requests.
package commands
