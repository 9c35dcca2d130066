package emitter

import "reflect"

func funcPointer(l Listener) uintptr {
	return reflect.ValueOf(l).Pointer()
}
