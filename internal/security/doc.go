// Package security classifies shell command strings by advisory risk.
//
// Classification is substring based: a command containing a known destructive
// fragment is Dangerous, otherwise a command mentioning a privilege-elevation
// token is ElevatedPrivileges, otherwise it is Clear. The verdict only gates
// confirmation; it never prevents execution on its own.
package security
