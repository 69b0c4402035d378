package strx

import "testing"

func TestCoalesce(t *testing.T) {
	if Coalesce("", "b", "c") != "b" || Coalesce() != "" || Coalesce("a") != "a" {
		t.Fatal("Coalesce")
	}
}
