// Package filter defines the boolean/comparison expression tree the
// translator emits and the run store interprets.
//
// The wire form is a recursive tagged tree of single-operator JSON objects,
// wrapped at the top level as {"$expr": ...}:
//
//	{"$expr": {"$gt": [
//	    {"$convert": {"input": {"$getField": "output.model_latency.mean"}, "to": "double"}},
//	    {"$literal": 100}
//	]}}
//
// Allowed operators are $eq, $gt, $gte, $and, $or, $not, and $contains, plus
// the $literal, $getField, and $convert value nodes. There is no native
// less-than, less-or-equal, or not-equal; those are composed with $not:
//
//	lt(a, b)  == $not([$gte(a, b)])
//	lte(a, b) == $not([$gt(a, b)])
//	neq(a, b) == $not([$eq(a, b)])
//
// The Lt, Lte, and Neq constructors build these shapes. Numeric fields must
// pass through $convert to "double" before comparison; the raw stored values
// are strings.
//
// Parse is strict: unknown operators, multi-key nodes, and wrong arities are
// rejected. Equal compares two queries by exact structure, not semantics, so
// logically equivalent but differently shaped trees are unequal. That is
// what the evaluation harness wants.
package filter
