// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ipinfo is the public IP lookup collaborator: a single HTTPS GET
returning {"ip": "..."}.

The lookup is strictly best-effort. Registration metadata and audit log
entries want an IP when one is available, but a failed or slow lookup
degrades to an empty string and never propagates an error.
*/
package ipinfo
