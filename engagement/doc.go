// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engagement computes the ranked read-only views shown on the home
page: trending policies and top engaged candidates.

The score of a policy is a plain unweighted sum:

	score(P) = likes + |comments| + Σ (comment.likes + comment.dislikes)

Both rankings are stable descending sorts over a deterministic flatten
order, truncated to display limits. All functions are pure: they take an
in-memory snapshot of the candidates collection and report what they are
given, defaulting missing fields to zero, and never fail.
*/
package engagement
