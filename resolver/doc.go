// Package resolver picks one sliver for a query.
//
// Every policy starts from the same candidate list: the slivers of the
// requested tool that are online for the query's address family. When
// that list is empty and the client didn't insist on the family, the
// other family is tried (a client detected as IPv6 can still be sent to
// an IPv4-only sliver). The policy then chooses among the candidates:
//
//   - geo: the sliver closest to the client, by great-circle distance.
//     Without client coordinates the first candidate is used.
//   - country: the first sliver in the country the user asked for.
//   - metro: the first sliver in the metro the user asked for.
//   - random: any candidate, uniformly.
//
// Unknown policy names select random. No match is reported as a nil
// sliver with a nil error; retrieval failures are errors wrapping
// candidates.ErrRetrieval.
package resolver
