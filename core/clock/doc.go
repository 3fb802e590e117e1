// Package clock provides an injectable time source.
//
// Lock staleness and quota day boundaries are computed from an injected
// Clock rather than the ambient time.Now, so the reconciliation state
// machine can be tested deterministically. Production code uses System;
// tests use Fake and advance it explicitly.
package clock
