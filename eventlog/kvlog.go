/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package eventlog

import (
	"fmt"

	"github.com/crewjam/rfc5424"
)

// KV builds a structured-data parameter. cmd/rtsim attaches these to its
// log records -- task names, priorities, resource names -- instead of
// formatting strings by hand.
func KV(name string, value interface{}) rfc5424.SDParam {
	switch v := value.(type) {
	case string:
		return rfc5424.SDParam{Name: name, Value: v}
	default:
		return rfc5424.SDParam{Name: name, Value: fmt.Sprintf("%v", v)}
	}
}

func KVErr(err error) rfc5424.SDParam {
	return KV("error", err)
}

// Mask renders a BooleanVector-shaped value as a fixed-width binary string
// so task/resource masks read the same way in every log line regardless of
// how many bits happen to be set.
func Mask(name string, value uint32) rfc5424.SDParam {
	return rfc5424.SDParam{Name: name, Value: fmt.Sprintf("%032b", value)}
}
