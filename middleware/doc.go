// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware holds the HTTP plumbing shared by the election handlers.

WithLogging wraps each route and writes one line per request with the
response status, the election ID taken from the {id} path value and the
calling identity. Caller keys never reach the log. 5xx responses log at
error level and other 4xx responses at warn.

CORS admits browser clients that send X-Caller-Identity and X-Caller-Key.
Preflight requests are answered with 204 and never reach a handler.

Repository failures are turned into responses by WorkflowErrorResponse:

	wf, _, err := repo.Apply(ctx, id, origin, op)
	if err != nil {
		middleware.WorkflowErrorResponse(w, r, err)
		return
	}

A rejected operation keeps its kind and its reason text:

	409 {"error":"Conflict","kind":"AlreadyVoted","message":"the voter has already voted"}

Unauthorized maps to 403, UnknownCandidate to 404 and InvalidIdentity to
400. InvalidPhase, AlreadyRegistered and AlreadyVoted map to 409, as does a
lost write race. Anything else is logged and reported as a bare 500.

GetClientIP feeds the origin hash stored with each journal entry.
*/
package middleware
