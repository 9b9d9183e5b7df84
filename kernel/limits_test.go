/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

import "testing"

func TestMsbZero(t *testing.T) {
	if got := msb(0); got != -1 {
		t.Fatalf("msb(0) = %d, want -1", got)
	}
}

func TestMsbSelectsHighestBit(t *testing.T) {
	cases := []struct {
		v    BooleanVector
		want int
	}{
		{1, 0},
		{0b10, 1},
		{0b11, 1},
		{0b101, 2},
		{bit(31), 31},
		{bit(31) | bit(0), 31},
	}
	for _, c := range cases {
		if got := msb(c.v); got != c.want {
			t.Fatalf("msb(%b) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestMaskUpTo(t *testing.T) {
	if got, want := maskUpTo(0), BooleanVector(1); got != want {
		t.Fatalf("maskUpTo(0) = %b, want %b", got, want)
	}
	if got, want := maskUpTo(3), BooleanVector(0b1111); got != want {
		t.Fatalf("maskUpTo(3) = %b, want %b", got, want)
	}
}
