// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package auditlog records admin actions to the logs collection.
//
// Every mutating admin operation produces one entry naming the action kind,
// the target document, a human-readable detail string, and the admin's IP.
// Entries are written fire-and-forget via Record so a slow or failing store
// never blocks the admin panel; RecordSync exists for callers that need the
// write confirmed.
package auditlog
