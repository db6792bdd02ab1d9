package dylink

import "testing"

func TestFuncAddr_Valid(t *testing.T) {
	if FuncAddr(0).Valid() {
		t.Fatal("expected zero FuncAddr to be invalid")
	}
	if !FuncAddr(0x1000).Valid() {
		t.Fatal("expected non-zero FuncAddr to be valid")
	}
}
