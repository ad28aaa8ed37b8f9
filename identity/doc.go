// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package identity drives the student registration and verification state
machine that gates every interactive action (like, comment, react).

# States

A visitor is in exactly one state each time verification is required:

	Anonymous      → open the flow at "enter student id"
	NoAccount      → id unknown: collect nickname + password, create record
	NeedsPassword  → id known, no password yet: collect and attach one
	HasPassword    → id known with password: collect and verify it
	Verified       → identity held locally and the record is not blocked
	Blocked        → the record reports isBlocked; all actions refused

Blocking and deletion are admin actions that arrive out of band. A blocked
record short-circuits Register, SetPassword, and VerifyPassword into
ErrBlocked before any password comparison; the client shows the admin's
reason without clearing local identity, so the user sees why they can no
longer interact. A deleted record resolves to NoAccount, which the HTTP
layer treats as a forced logout.

# Hashing

Passwords are stored as an unsalted SHA-256 hex digest (see password.go).
This is a documented low-assurance scheme, kept deliberately: the stored
hash format is part of the data contract and the threat model is a school
election.
*/
package identity
