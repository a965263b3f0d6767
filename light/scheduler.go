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

package light

// Scheduler picks the next candidate height after a hop failed with
// VerdictNotEnoughTrust. nextHeight is the height that just failed,
// targetHeight the ultimate goal. The returned height m must satisfy
// trustedHeight < m <= nextHeight, and repeated invocations without
// progress must yield strictly decreasing heights so the client is
// guaranteed to terminate.
type Scheduler interface {
	Schedule(trustedHeight, nextHeight, targetHeight int64) int64
}

// BisectingScheduler halves the verification gap on every failed hop.
// The midpoint arithmetic avoids overflow for heights near the int64 range.
type BisectingScheduler struct{}

// Schedule implements Scheduler.
func (BisectingScheduler) Schedule(trustedHeight, nextHeight, targetHeight int64) int64 {
	if nextHeight <= trustedHeight+1 {
		// Cannot subdivide further; an adjacent hop either verifies or
		// the block is invalid.
		return nextHeight
	}
	return trustedHeight + (nextHeight-trustedHeight)/2
}
