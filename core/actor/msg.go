package actor

import "github.com/codewandler/asys-go/internal/reflector"

type msgTyper interface{ MsgType() string }

// msgTypeOf names a payload for logs and metric labels. Payloads may pick
// their own name by implementing MsgType() string.
func msgTypeOf(x any) string {
	if mt, ok := x.(msgTyper); ok {
		return mt.MsgType()
	}
	return reflector.TypeInfoOf(x).Name
}
