package restbridge

import "reflect"

func typeOf(v interface{}) reflect.Type { return reflect.TypeOf(v) }
