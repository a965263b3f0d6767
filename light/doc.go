// Copyright 2025 The go-tmlight Authors
// This file is part of the go-tmlight library.
//
// The go-tmlight library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-tmlight library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-tmlight library. If not, see <http://www.gnu.org/licenses/>.

/*
Package light implements the verification core of a light client for a
BFT proof-of-stake blockchain.

A light client checks that a block at some height belongs to the canonical
chain without replaying history. It starts from a trust anchor - a block the
operator declares trusted out of band - and extends trust forward through
one of two kinds of hops:

  - Adjacent verification: the candidate sits exactly one height above the
    trusted block, so its validator set is already pinned by the trusted
    header's next-validators hash. The candidate must reference the trusted
    header as its parent and carry +2/3 signatures of its own set.

  - Skipping verification: the candidate is further ahead and its validator
    set is unknown. Trust carries over only if validators holding more than
    the trust threshold (default 1/3) of the trusted next set's voting power
    also signed the candidate, and the candidate again carries +2/3 of its
    own set.

When a skipping hop fails for lack of overlap the client bisects: it picks
an intermediate height, verifies up to it, and retries from there. Every
fetched block lands in the store unverified; blocks verify one hop at a
time and the whole path flips to trusted when the target verifies.

All of this is only sound while the trusted block's validator set is within
its trusting period, which must be shorter than the chain's unbonding
period. Once the anchor expires the core cannot recover by itself - the
operator has to supply a fresh anchor.

The package deliberately leaves peer selection, fork detection across
providers, and persistence policy to its callers; see the provider and
store sub-packages for the pluggable edges.
*/
package light
