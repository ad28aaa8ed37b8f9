// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and document types for the API.

# Document Shapes

Candidates carry their policies embedded as a map keyed by policy id, and
each policy carries its comments embedded the same way:

	Candidate → Policies map[string]Policy → Comments map[string]Comment

Users are keyed by 5-digit student id. Alerts, settings documents
(config, schedule, warningTemplates, ipAliases), and log entries round out
the store. Every field is optional in the store and decodes to its zero
value when absent; code must never assume a field is present.

# Admin Actions

AdminAction values are stable strings used in the audit log wire format
(create_candidate, update_votes, block_user, ...). IsValidAction guards
against typos at the logging boundary.
*/
package models
