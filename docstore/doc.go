// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package docstore is the document store collaborator: a small JSON document
layer over a single SQL table, with the operations the election app needs
and nothing more.

# Operations

	Get / GetAll      – read a document or a whole collection
	Set               – create or overwrite a document
	Update            – partial update with dotted paths, in a transaction
	Delete            – remove a document
	List              – newest-first, cursor-paginated listing (audit log)
	Subscribe         – live full-snapshot feed for a collection
	SubscribeDoc      – live full-snapshot feed for one document

# Partial Updates

Update keys are dotted paths into nested objects, so concurrent edits to
different policies or comments on the same candidate do not clobber each
other:

	store.Update(ctx, "candidates", id, map[string]any{
		"policies.p1.likes": docstore.Increment(1),
		"policies.p1.comments.c9": comment,
	})

Increment is applied in-transaction against the stored value (never against
a client snapshot) and clamps at zero, since every counter in this system
is non-negative. DeleteField removes a field at its path. A missing
document is created, so Update doubles as a merge write.

# Subscriptions

Subscriptions push full-state snapshots, not deltas; consumers replace
their local view on each push. Writes between reads coalesce: a slow
consumer only ever sees the latest state. Handles are cancellable and must
be cancelled when the owning view goes away.

# Backends

The store runs on sqlite (modernc.org/sqlite, default) or PostgreSQL
(lib/pq), selected by config. On postgres, Update locks the row with
SELECT ... FOR UPDATE; on sqlite the single connection serializes writers.
*/
package docstore
