// Package route defines the normalized route specification and the types
// handlers work with.
//
// Route definitions come in two shapes. The positional form is a list whose
// meaning depends on its length:
//
//	[url, response]
//	[method, url, response]
//	[method, url, response, trailing...]
//
// Trailing elements are classified by kind: callables become processors,
// maps become args, strings become the range, numbers and two-number lists
// become the delay. When several trailing values of the same kind are given
// the last one wins.
//
// The object form names its fields:
//
//	method: get
//	url: /users/:id
//	response: {id: "${req.params.id}"}
//	range: "1..10"
//	delay: [0.1, 0.5]
//	args: {prefix: user}
//	processResponse: !fn wrap
//
// Normalize turns either shape into a *Spec. Callables are registered Go
// functions (see Registry) or expression sources (see Expr).
package route
