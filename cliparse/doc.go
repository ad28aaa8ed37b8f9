// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

Flags take precedence over environment variables. ADMIN_PASSWORD and
SESSION_SALT are required; everything else has a sensible default (port
8317, a local sqlite file, the ipify lookup endpoint, stderr logging).
*/
package cliparse
